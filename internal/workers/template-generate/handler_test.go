package templategen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madlib-engine/internal/agent"
	apperrors "madlib-engine/internal/common/errors"
	"madlib-engine/internal/common/logger"
	"madlib-engine/internal/madlib"
)

func newTestConfig(baseURL string, slotsPerKind int) *Config {
	return &Config{
		Agent: agent.Config{
			BaseURL:     baseURL,
			Timeout:     5 * time.Second,
			MaxRetries:  1,
			MaxTokens:   1000,
			Temperature: 0.8,
		},
		SlotsPerKind: slotsPerKind,
		MaxWords:     150,
	}
}

func agentServer(t *testing.T, templateText string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/agents/run", r.URL.Path)
		var req agent.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, AgentName, req.Agent)

		out := map[string]interface{}{
			"output": Output{Topic: "dogs", TemplateText: templateText},
		}
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
}

func TestHandler_Generate(t *testing.T) {
	text := "The {adjective_1} {noun_1} likes to {verb_1} with a {adjective_2} " +
		"{noun_2} that can {verb_2}."
	server := agentServer(t, text)
	defer server.Close()

	h := NewHandler(newTestConfig(server.URL, 2), logger.NewTestLogger(t))
	tmpl, err := h.Generate(context.Background(), "dogs")

	require.NoError(t, err)
	assert.Equal(t, "dogs", tmpl.Topic)
	assert.Equal(t, text, tmpl.Text)
	require.Len(t, tmpl.Placeholders, 6)

	// Placeholders follow occurrence order with IDs starting at one.
	assert.Equal(t, 1, tmpl.Placeholders[0].ID)
	assert.Equal(t, madlib.KindAdjective, tmpl.Placeholders[0].Kind)
	assert.Equal(t, 1, tmpl.Placeholders[0].Index)
	assert.Equal(t, 6, tmpl.Placeholders[5].ID)
	assert.Equal(t, madlib.KindVerb, tmpl.Placeholders[5].Kind)
	assert.Equal(t, 2, tmpl.Placeholders[5].Index)
	assert.False(t, tmpl.CreatedAt.IsZero())
}

func TestHandler_Generate_ContractViolations(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "missing a kind entirely",
			text: "The {adjective_1} {noun_1} and the {adjective_2} {noun_2}.",
		},
		{
			name: "too few markers",
			text: "The {adjective_1} {noun_1} likes to {verb_1}.",
		},
		{
			name: "duplicate index instead of distinct",
			text: "{noun_1} {noun_1} {verb_1} {verb_2} {adjective_1} {adjective_2}",
		},
		{
			name: "index out of range",
			text: "{noun_1} {noun_3} {verb_1} {verb_2} {adjective_1} {adjective_2}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := agentServer(t, tt.text)
			defer server.Close()

			h := NewHandler(newTestConfig(server.URL, 2), logger.NewTestLogger(t))
			tmpl, err := h.Generate(context.Background(), "dogs")

			require.Error(t, err)
			assert.Nil(t, tmpl)
			assert.Equal(t, apperrors.ErrCodeTemplateMalformed, apperrors.CodeOf(err))
		})
	}
}

func TestHandler_Generate_AgentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	h := NewHandler(newTestConfig(server.URL, 2), logger.NewTestLogger(t))
	_, err := h.Generate(context.Background(), "dogs")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTemplateGenerationFailed, apperrors.CodeOf(err))
}

func TestHandler_Instructions_NameEveryMarker(t *testing.T) {
	h := NewHandler(newTestConfig("http://unused", 2), logger.NewNoOpLogger())
	instructions := h.instructions()

	for _, kind := range madlib.Kinds() {
		for i := 1; i <= 2; i++ {
			assert.Contains(t, instructions, madlib.SlotRef{Kind: kind, Index: i}.Marker())
		}
	}
}
