// Package provider implements the outbound client for the external completion
// provider (an OpenAI-compatible chat completions API). The relay treats the
// provider as a black-box request/response function: one call per chat
// request, no retries, success yields the completion text.
//
// Upstream failure detail (HTTP status, provider error message) is retained in
// *Error for server-side diagnostics; handlers surface only a generic relay
// failure to end users.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/psych-platform/chatbot-backend/internal/config"
	"github.com/psych-platform/chatbot-backend/internal/telemetry"
)

// Error is a failed provider call. StatusCode is zero when the request never
// reached the provider (network error, timeout).
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("completion provider returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion provider unreachable: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client calls the completion provider's chat endpoint
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	httpClient   *http.Client
}

// NewClient creates a provider client from configuration. The API key is held
// here and attached to outbound requests only; it is never logged.
func NewClient(cfg *config.ProviderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the user's message framed by the fixed system prompt and
// returns the completion text. The context governs cancellation: a caller
// disconnecting mid-call aborts the outbound request.
func (c *Client) Complete(ctx context.Context, message string) (string, error) {
	messages := []chatMessage{}
	if c.systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: c.systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	body, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("provider: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("provider: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	telemetry.ProviderRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		telemetry.ProviderRequestsTotal.WithLabelValues(outcome).Inc()
		return "", &Error{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		telemetry.ProviderRequestsTotal.WithLabelValues("error").Inc()

		// Keep the provider's own error message for diagnostics. Handlers
		// must not forward it verbatim to end users.
		var detail apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := "unknown provider error"
		if json.Unmarshal(raw, &detail) == nil && detail.Error.Message != "" {
			msg = detail.Error.Message
		}
		return "", &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		telemetry.ProviderRequestsTotal.WithLabelValues("error").Inc()
		return "", &Error{Message: "malformed provider response", Err: err}
	}

	if len(result.Choices) == 0 {
		telemetry.ProviderRequestsTotal.WithLabelValues("error").Inc()
		return "", &Error{Message: "provider returned no choices"}
	}

	telemetry.ProviderRequestsTotal.WithLabelValues("ok").Inc()
	return result.Choices[0].Message.Content, nil
}
