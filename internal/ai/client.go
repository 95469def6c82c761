// internal/ai/client.go

// Package ai calls the GenAI intent endpoint. The collaborator is opaque:
// it reports success or failure and hands back raw text expected to
// approximate a JSON intent object.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"timesheet-planner/internal/common/config"
	"timesheet-planner/internal/common/logger"
)

var (
	ErrAIServiceFailed  = errors.New("AI_SERVICE_FAILED")
	ErrAIServiceTimeout = errors.New("AI_SERVICE_TIMEOUT")
)

// ParseResult is the collaborator's answer. Response is raw text that the
// intent extractor will attempt to parse as JSON.
type ParseResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Service is the intent-parsing collaborator contract.
type Service interface {
	Parse(ctx context.Context, prompt, timezone, weekStart string) (*ParseResult, error)
}

// Client talks to the GenAI service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	client     *http.Client
	logger     logger.Logger
}

func NewClient(cfg config.AIConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		},
		logger: log.WithFields(map[string]interface{}{"component": "ai-client"}),
	}
}

// Parse submits the prompt and returns the raw collaborator result. A
// transport-level error after all retries is returned as an error; a
// collaborator-reported failure comes back as Success=false.
func (c *Client) Parse(ctx context.Context, prompt, timezone, weekStart string) (*ParseResult, error) {
	body, err := json.Marshal(map[string]string{
		"prompt":     prompt,
		"timezone":   timezone,
		"week_start": weekStart,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIServiceFailed, err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrAIServiceTimeout
			}
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/ai/parse-intent", bytes.NewReader(body))
		if reqErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrAIServiceFailed, reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, lastErr = c.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrAIServiceTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrAIServiceTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrAIServiceFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrAIServiceFailed)
	}
	defer resp.Body.Close()

	var result ParseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrAIServiceFailed, err)
	}

	c.logger.Debug("intent parse call finished", map[string]interface{}{
		"success":        result.Success,
		"responseLength": len(result.Response),
	})

	return &result, nil
}
