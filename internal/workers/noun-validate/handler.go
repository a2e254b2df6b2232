// Package nounvalidate judges whether a player-supplied word is primarily
// a noun.
package nounvalidate

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

const AgentName = "noun-validator"

var ErrValidatorUnavailable = errors.New("NOUN_VALIDATOR_UNAVAILABLE")

const instructions = `Check if the given word is primarily a noun.
Be very strict:
- Reject words that are primarily verbs like: jump, run, fight, fly, swim, eat, sleep
- Reject words that are primarily adjectives like: happy, sad, big, small
- Accept only words that are clearly nouns like: car, house, person, tree, book, computer, dog, cat, sword, stone, pool
- If a word CAN be used as a noun but is MORE COMMONLY used as another part of speech, reject it
For example, 'fight' CAN be a noun (as in 'a fight') but is primarily a verb, so reject it.`

type Handler struct {
	agent  *agent.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		agent: agent.NewClient(&config.Agent, log),
		logger: log.With(map[string]interface{}{
			"worker": AgentName,
		}),
	}
}

// Validate returns the validator's verdict. A negative verdict is a normal
// result; only transport or malformed output is an error.
func (h *Handler) Validate(ctx context.Context, word string) (madlib.NounVerdict, error) {
	raw, err := h.agent.Run(ctx, &agent.Request{
		Agent:        AgentName,
		Instructions: instructions,
		Input:        fmt.Sprintf("Is '%s' a noun?", word),
		OutputSchema: json.RawMessage(outputSchema),
	})
	if err != nil {
		return madlib.NounVerdict{}, fmt.Errorf("%w: %v", ErrValidatorUnavailable, err)
	}

	if err := validation.ValidateJSON(outputSchema, raw); err != nil {
		return madlib.NounVerdict{}, fmt.Errorf("%w: %v", ErrValidatorUnavailable, err)
	}

	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return madlib.NounVerdict{}, fmt.Errorf("%w: decode: %v", ErrValidatorUnavailable, err)
	}

	h.logger.Debug("word validated", map[string]interface{}{
		"word":   word,
		"isNoun": out.IsNoun,
	})

	return madlib.NounVerdict{IsNoun: out.IsNoun, Reasoning: out.Reasoning}, nil
}
