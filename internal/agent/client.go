// Package agent invokes the language-model agent service. Each collaborator
// worker sends a prompt plus a declared output shape and gets structured
// JSON back; everything past that boundary is typed by the caller.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"madlib-engine/internal/common/logger"
)

var (
	ErrAgentTimeout = errors.New("AGENT_TIMEOUT")
	ErrAgentFailed  = errors.New("AGENT_FAILED")
)

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// Request describes one agent invocation.
type Request struct {
	Agent        string          `json:"agent"`
	Instructions string          `json:"instructions"`
	Input        string          `json:"input"`
	OutputSchema json.RawMessage `json:"outputSchema,omitempty"`
	MaxTokens    int             `json:"maxTokens"`
	Temperature  float64         `json:"temperature"`
}

type runResponse struct {
	Output json.RawMessage `json:"output"`
}

type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		// No HTTP client timeout, the per-run context bounds each call.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "agent-client",
		}),
	}
}

// Run executes one agent invocation and returns the raw structured output.
// Transient failures are retried with exponential backoff inside the
// configured timeout.
func (c *Client) Run(ctx context.Context, req *Request) (json.RawMessage, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = c.config.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = c.config.Temperature
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrAgentFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrAgentTimeout
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/agents/run", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAgentFailed, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, lastErr = c.client.Do(httpReq)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return nil, ErrAgentTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrAgentTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrAgentFailed, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrAgentFailed)
	}
	defer resp.Body.Close()

	var runResp runResponse
	if err := json.NewDecoder(resp.Body).Decode(&runResp); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrAgentFailed, err)
	}

	if len(runResp.Output) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrAgentFailed)
	}

	c.logger.Debug("agent run completed", map[string]interface{}{
		"agent":       req.Agent,
		"outputBytes": len(runResp.Output),
	})

	return runResp.Output, nil
}
