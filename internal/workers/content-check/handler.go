// Package contentcheck gates session topics on family-friendliness.
package contentcheck

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

const AgentName = "content-checker"

var ErrContentCheckFailed = errors.New("CONTENT_CHECK_FAILED")

const instructions = `Check if the given topic is family-friendly.
Topics containing violence, adult content, profanity, drugs,
or other inappropriate content should be marked as not family-friendly.`

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

// Check returns the checker's verdict on the topic. The verdict itself is
// never an error; only transport or malformed output fails.
func (h *Handler) Check(ctx context.Context, topic string) (madlib.SafetyVerdict, error) {
	raw, err := h.agent.Run(ctx, &agent.Request{
		Agent:        AgentName,
		Instructions: instructions,
		Input:        topic,
		OutputSchema: json.RawMessage(outputSchema),
	})
	if err != nil {
		return madlib.SafetyVerdict{}, fmt.Errorf("%w: %v", ErrContentCheckFailed, err)
	}

	if err := validation.ValidateJSON(outputSchema, raw); err != nil {
		return madlib.SafetyVerdict{}, fmt.Errorf("%w: %v", ErrContentCheckFailed, err)
	}

	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return madlib.SafetyVerdict{}, fmt.Errorf("%w: decode: %v", ErrContentCheckFailed, err)
	}

	h.logger.Info("topic checked", map[string]interface{}{
		"familyFriendly": out.IsFamilyFriendly,
	})

	return madlib.SafetyVerdict{
		FamilyFriendly: out.IsFamilyFriendly,
		Reasoning:      out.Reasoning,
	}, nil
}
