package agent

import (
	"time"

	"madlib-engine/internal/common/config"
)

// ConfigFromApp converts the application config section into a client config.
func ConfigFromApp(cfg config.AgentConfig) Config {
	return Config{
		BaseURL:     cfg.BaseURL,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
		MaxRetries:  cfg.MaxRetries,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}
