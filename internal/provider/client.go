// Package provider wraps the external face-swap HTTP API. Submit returns the
// provider-assigned request id; PollStatus classifies every response and
// transport error into an explicit Result so the poller's control flow is a
// plain switch.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hqbui/faceswap-be/internal/domain"
)

// Config holds face-swap provider client configuration
type Config struct {
	BaseURL     string
	APIKey      string
	CallTimeout time.Duration
}

// Client is an HTTP client for the face-swap provider
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a provider client
func NewClient(config *Config, logger *slog.Logger) *Client {
	timeout := config.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type submitRequest struct {
	Kind   string   `json:"kind"`
	Assets []string `json:"assets"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
}

type statusResponse struct {
	State     string `json:"state"`
	ResultURL string `json:"result_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Submit sends a new swap task to the provider and returns its request id
func (c *Client) Submit(ctx context.Context, assets []string, kind domain.JobKind) (string, error) {
	body, err := json.Marshal(submitRequest{
		Kind:   string(kind),
		Assets: assets,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider submit call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("provider rejected submission: status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var parsed submitResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse provider response: %w", err)
	}

	if parsed.RequestID == "" {
		return "", fmt.Errorf("provider response missing request id")
	}

	c.logger.Info("Swap task submitted to provider",
		slog.String("request_id", parsed.RequestID),
		slog.String("kind", string(kind)),
	)

	return parsed.RequestID, nil
}

// PollStatus queries the provider for a task's current state. Transport
// errors, timeouts, 429 and 5xx responses classify as retry; other 4xx
// responses are permanent failures.
func (c *Client) PollStatus(ctx context.Context, requestID string, kind domain.JobKind) Result {
	url := fmt.Sprintf("%s/tasks/%s?kind=%s", c.config.BaseURL, requestID, kind)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry(fmt.Sprintf("failed to build status request: %v", err))
	}
	req.Header.Set("X-API-Key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry(fmt.Sprintf("status call failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return retry(fmt.Sprintf("failed to read status response: %v", err))
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return retry(fmt.Sprintf("provider status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return failed(fmt.Sprintf("provider rejected status query: status %d: %s", resp.StatusCode, truncate(respBody, 200)))
	}

	var parsed statusResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return retry(fmt.Sprintf("malformed status response: %v", err))
	}

	switch parsed.State {
	case "completed":
		if parsed.ResultURL == "" {
			return failed("provider reported completion without a result")
		}
		return completed(parsed.ResultURL)
	case "failed":
		reason := parsed.Error
		if reason == "" {
			reason = "provider reported failure"
		}
		return failed(reason)
	case "processing", "queued", "pending":
		return stillProcessing()
	default:
		return retry(fmt.Sprintf("unknown provider state %q", parsed.State))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
