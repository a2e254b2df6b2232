// Package madlibsave posts completed madlibs to the external madlib API.
// The save is fire-and-forget from the session's perspective; a failure
// here never invalidates the completed madlib.
package madlibsave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"madlib-engine/internal/common/logger"
	"madlib-engine/internal/madlib"
)

var ErrSaveFailed = errors.New("MADLIB_SAVE_FAILED")

type Handler struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"worker": "madlib-save",
		}),
	}
}

// Save posts the madlib and returns the sink's opaque identifier.
func (h *Handler) Save(ctx context.Context, m *madlib.CompletedMadlib) (string, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("%w: marshal: %v", ErrSaveFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	requestID := uuid.NewString()

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrSaveFailed, ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", h.config.Endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", requestID)

		resp, lastErr = h.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrSaveFailed, ctx.Err())
		}
	}

	if lastErr != nil || resp == nil {
		return "", fmt.Errorf("%w: %v", ErrSaveFailed, lastErr)
	}
	defer resp.Body.Close()

	var saveResp saveResponse
	if err := json.NewDecoder(resp.Body).Decode(&saveResp); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrSaveFailed, err)
	}
	if saveResp.Status != "success" || saveResp.ID == "" {
		return "", fmt.Errorf("%w: sink rejected save, status %q", ErrSaveFailed, saveResp.Status)
	}

	h.logger.Info("madlib saved", map[string]interface{}{
		"id":        saveResp.ID,
		"requestId": requestID,
	})

	return saveResp.ID, nil
}
