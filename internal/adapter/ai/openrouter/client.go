// Package openrouter implements domain.AIClient against an OpenAI-compatible
// chat completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/resume-screener/internal/config"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// Client implements domain.AIClient using the OpenRouter chat completions API.
// It performs exactly one request per call; the retry discipline lives in the
// prompt executor, which classifies the errors returned here.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a client with the configured timeout. Outbound requests go
// through an otelhttp transport so provider calls show up as spans.
func New(cfg config.Config) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("AI %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.ChatTimeout, Transport: transport},
	}
}

// retryAfterPhrase matches provider hints like "try again in 12s" or
// "retry after 30 seconds" embedded in 429 bodies.
var retryAfterPhrase = regexp.MustCompile(`(?i)(?:try again|retry) (?:in|after) (\d+)\s*s`)

// ChatText calls the chat completions endpoint and returns the message content.
func (c *Client) ChatText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		slog.Error("OpenRouter API key missing", slog.String("provider", "openrouter"))
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY missing", domain.ErrInvalidArgument)
	}
	body := map[string]any{
		"model":       c.cfg.ChatModel,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, _ := json.Marshal(body)

	start := time.Now()
	// Recreate the request each call to avoid reusing consumed bodies.
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("op=openrouter.chat: %w", err)
	}
	r.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
	r.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(r)
	observability.AIRequestsTotal.WithLabelValues("openrouter", "chat").Inc()
	observability.AIRequestDuration.WithLabelValues("openrouter", "chat").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("ai provider request failed", slog.String("provider", "openrouter"), slog.Any("error", err))
		return "", fmt.Errorf("op=openrouter.chat: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("failed to read response body", slog.String("provider", "openrouter"), slog.Any("error", err))
		return "", fmt.Errorf("op=openrouter.chat: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		hint := retryAfterHint(resp.Header.Get("Retry-After"), bodyBytes)
		slog.Warn("ai provider rate limited",
			slog.String("provider", "openrouter"),
			slog.Int("status", resp.StatusCode),
			slog.Duration("retry_after", hint),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
		return "", &domain.RateLimitError{RetryAfter: hint, Detail: "status 429"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(bodyBytes)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		slog.Error("ai provider non-2xx",
			slog.String("provider", "openrouter"),
			slog.Int("status", resp.StatusCode),
			slog.String("model", c.cfg.ChatModel),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
			slog.String("body", snippet))
		return "", fmt.Errorf("op=openrouter.chat: status %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		slog.Error("ai provider decode error", slog.String("provider", "openrouter"), slog.Any("error", err))
		return "", fmt.Errorf("op=openrouter.chat: decode: %w", err)
	}
	if len(out.Choices) == 0 {
		slog.Error("ai provider returned empty choices", slog.String("provider", "openrouter"))
		return "", errors.New("op=openrouter.chat: empty choices")
	}
	return out.Choices[0].Message.Content, nil
}

// retryAfterHint extracts a machine-readable wait from the Retry-After header
// or from a "try again in Ns" phrase in the error body. Zero means no hint.
func retryAfterHint(header string, body []byte) time.Duration {
	if header != "" {
		if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if m := retryAfterPhrase.FindSubmatch(body); m != nil {
		if secs, err := strconv.Atoi(string(m[1])); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
