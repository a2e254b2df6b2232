package nounvalidate

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
	"madlib-engine/internal/common/logger"
)

func newTestConfig(baseURL string) *Config {
	return &Config{
		Agent: agent.Config{
			BaseURL:     baseURL,
			Timeout:     5 * time.Second,
			MaxRetries:  1,
			MaxTokens:   300,
			Temperature: 0.2,
		},
	}
}

func TestHandler_Validate(t *testing.T) {
	tests := []struct {
		name     string
		word     string
		output   string
		wantNoun bool
	}{
		{
			name:     "clear noun accepted",
			word:     "castle",
			output:   `{"isNoun": true, "reasoning": "castle is a common noun"}`,
			wantNoun: true,
		},
		{
			name:     "primarily a verb rejected",
			word:     "jump",
			output:   `{"isNoun": false, "reasoning": "jump is primarily a verb"}`,
			wantNoun: false,
		},
		{
			name:     "adjective rejected",
			word:     "happy",
			output:   `{"isNoun": false, "reasoning": "happy is an adjective"}`,
			wantNoun: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotInput string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req agent.Request
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, AgentName, req.Agent)
				gotInput = req.Input
				_, _ = w.Write([]byte(`{"output": ` + tt.output + `}`))
			}))
			defer server.Close()

			h := NewHandler(newTestConfig(server.URL), logger.NewTestLogger(t))
			verdict, err := h.Validate(context.Background(), tt.word)

			require.NoError(t, err)
			assert.Equal(t, tt.wantNoun, verdict.IsNoun)
			assert.NotEmpty(t, verdict.Reasoning)
			assert.Contains(t, gotInput, tt.word)
		})
	}
}

func TestHandler_Validate_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	h := NewHandler(newTestConfig(server.URL), logger.NewTestLogger(t))
	_, err := h.Validate(context.Background(), "castle")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidatorUnavailable)
}

func TestHandler_Validate_MalformedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output": {"isNoun": "yes"}}`))
	}))
	defer server.Close()

	h := NewHandler(newTestConfig(server.URL), logger.NewTestLogger(t))
	_, err := h.Validate(context.Background(), "castle")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidatorUnavailable)
}
