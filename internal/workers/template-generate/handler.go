// Package templategen produces madlib templates for a topic and enforces
// the placeholder contract on the generator's output instead of trusting
// the model.
package templategen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"madlib-engine/internal/agent"
	apperrors "madlib-engine/internal/common/errors"
	"madlib-engine/internal/common/logger"
	"madlib-engine/internal/common/validation"
	"madlib-engine/internal/madlib"
)

const AgentName = "template-generator"

type Handler struct {
	config *Config
	agent  *agent.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		agent:  agent.NewClient(&config.Agent, log),
		logger: log.With(map[string]interface{}{
			"worker": AgentName,
		}),
	}
}

// Generate asks the agent for a template and validates it structurally:
// exactly SlotsPerKind markers of each kind, indices 1..SlotsPerKind, with
// every marker present in the text.
func (h *Handler) Generate(ctx context.Context, topic string) (*madlib.Template, error) {
	raw, err := h.agent.Run(ctx, &agent.Request{
		Agent:        AgentName,
		Instructions: h.instructions(),
		Input:        fmt.Sprintf("Create a madlib template about: %s", topic),
		OutputSchema: json.RawMessage(outputSchema),
	})
	if err != nil {
		return nil, apperrors.NewTemplateGenerationFailed(err)
	}

	if err := validation.ValidateJSON(outputSchema, raw); err != nil {
		return nil, apperrors.NewTemplateGenerationFailed(err)
	}

	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.NewTemplateGenerationFailed(fmt.Errorf("decode: %w", err))
	}

	inv := madlib.Parse(out.TemplateText)
	if err := h.checkContract(inv); err != nil {
		return nil, err
	}

	placeholders := make([]madlib.Placeholder, 0, len(inv.Occurrences))
	for i, ref := range inv.Occurrences {
		placeholders = append(placeholders, madlib.Placeholder{
			ID:    i + 1,
			Kind:  ref.Kind,
			Index: ref.Index,
		})
	}

	h.logger.Info("template generated", map[string]interface{}{
		"topic":   topic,
		"markers": len(inv.Occurrences),
	})

	return &madlib.Template{
		Topic:        topic,
		Text:         out.TemplateText,
		Placeholders: placeholders,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (h *Handler) checkContract(inv madlib.Inventory) error {
	n := h.config.SlotsPerKind
	if got, want := len(inv.Occurrences), 3*n; got != want {
		return apperrors.NewTemplateMalformed(fmt.Sprintf("expected %d markers, found %d", want, got))
	}
	for _, kind := range madlib.Kinds() {
		indices := inv.Indices[kind]
		if len(indices) != n {
			return apperrors.NewTemplateMalformed(
				fmt.Sprintf("expected %d distinct %s indices, found %d", n, kind, len(indices)))
		}
		for i, idx := range indices {
			if idx != i+1 {
				return apperrors.NewTemplateMalformed(
					fmt.Sprintf("%s indices must be 1..%d, found %d", kind, n, idx))
			}
		}
	}
	return nil
}

func (h *Handler) instructions() string {
	n := h.config.SlotsPerKind
	markers := make([]string, 0, 3*n)
	for _, kind := range madlib.Kinds() {
		for i := 1; i <= n; i++ {
			markers = append(markers, madlib.SlotRef{Kind: kind, Index: i}.Marker())
		}
	}

	return fmt.Sprintf(`Create a fun, engaging madlib template for the given topic.
- Keep it under %d words
- Include EXACTLY %d fill-in placeholders: %d nouns, %d verbs, and %d adjectives
- Use placeholders in this exact format: %s
- Make sure to use ALL %d placeholders in your template
- Make it entertaining and appropriate for all ages`,
		h.config.MaxWords, 3*n, n, n, n, strings.Join(markers, ", "), 3*n)
}
