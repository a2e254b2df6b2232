// Package wordgen produces fixed-size batches of unique verbs or
// adjectives. The batch contract, exactly N mutually distinct words, is
// enforced here so the fill engine never sees a short or duplicated batch.
package wordgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"madlib-engine/internal/agent"
	"madlib-engine/internal/common/logger"
	"madlib-engine/internal/common/validation"
	"madlib-engine/internal/madlib"
)

var ErrBatchContract = errors.New("WORD_BATCH_CONTRACT_VIOLATED")

const verbInstructions = `Generate exactly %d unique verbs in their base form.
- Make them varied and interesting
- Keep them family-friendly
- Ensure all %d are completely different from each other
- Mix action types (movement, communication, creation, etc.)
Just provide the verbs, no context or explanation.`

const adjectiveInstructions = `Generate exactly %d unique adjectives.
- Make them varied and interesting (mix colors, textures, emotions, sizes, etc.)
- Keep them family-friendly
- Ensure all %d are completely different from each other
- Avoid repetitive patterns (like all ending in -ous or -ful)
Just provide the adjectives, no context or explanation.`

type Handler struct {
	agent  *agent.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		agent: agent.NewClient(&config.Agent, log),
		logger: log.With(map[string]interface{}{
			"worker": "word-generator",
		}),
	}
}

// Generate requests exactly count unique words of the given kind.
func (h *Handler) Generate(ctx context.Context, kind madlib.Kind, count int) ([]string, error) {
	var instructions string
	switch kind {
	case madlib.KindVerb:
		instructions = fmt.Sprintf(verbInstructions, count, count)
	case madlib.KindAdjective:
		instructions = fmt.Sprintf(adjectiveInstructions, count, count)
	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrBatchContract, kind)
	}

	raw, err := h.agent.Run(ctx, &agent.Request{
		Agent:        fmt.Sprintf("%s-generator", kind),
		Instructions: instructions,
		Input:        fmt.Sprintf("Generate %d %ss", count, kind),
		OutputSchema: json.RawMessage(outputSchema),
	})
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateJSON(outputSchema, raw); err != nil {
		return nil, err
	}

	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if len(out.Words) != count {
		return nil, fmt.Errorf("%w: requested %d %ss, got %d", ErrBatchContract, count, kind, len(out.Words))
	}
	seen := make(map[string]bool, count)
	for _, w := range out.Words {
		if seen[w] {
			return nil, fmt.Errorf("%w: duplicate %s %q", ErrBatchContract, kind, w)
		}
		seen[w] = true
	}

	h.logger.Info("word batch generated", map[string]interface{}{
		"kind":  string(kind),
		"count": count,
	})

	return out.Words, nil
}
