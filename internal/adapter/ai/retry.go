package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// RetrySettings tunes the executor. Zero values fall back to the defaults
// used across the pipeline (3 attempts, 5s initial delay, x2 growth).
type RetrySettings struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

func (s RetrySettings) withDefaults() RetrySettings {
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = 3
	}
	if s.InitialDelay <= 0 {
		s.InitialDelay = 5 * time.Second
	}
	if s.Multiplier <= 0 {
		s.Multiplier = 2.0
	}
	return s
}

// RetryingPromptExecutor wraps a single prompt invocation with capped
// exponential backoff on rate limits. The classification is asymmetric on
// purpose: only rate limiting is transient; a malformed response from a
// successful call is a prompt bug, not something another attempt fixes.
type RetryingPromptExecutor struct {
	ai       domain.AIClient
	settings RetrySettings
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRetryingPromptExecutor wraps the given client.
func NewRetryingPromptExecutor(client domain.AIClient, settings RetrySettings) *RetryingPromptExecutor {
	return &RetryingPromptExecutor{
		ai:       client,
		settings: settings.withDefaults(),
		sleep:    sleepCtx,
	}
}

// Invoke issues the prompt, retrying rate-limited calls up to the attempt
// cap. When the provider sent a retry-after hint, the wait is the larger of
// the hint and the scheduled backoff. Exhaustion returns an error wrapping
// domain.ErrUpstreamRateLimit so the stage can apply its fallback; any other
// failure propagates from the first attempt.
func (e *RetryingPromptExecutor) Invoke(ctx context.Context, stage, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = e.settings.InitialDelay
	expo.Multiplier = e.settings.Multiplier
	expo.RandomizationFactor = 0
	expo.MaxInterval = time.Hour
	expo.MaxElapsedTime = 0
	expo.Reset()

	var lastErr error
	for attempt := 1; attempt <= e.settings.MaxAttempts; attempt++ {
		raw, err := e.ai.ChatText(ctx, systemPrompt, userPrompt, maxTokens)
		if err == nil {
			return raw, nil
		}
		var rle *domain.RateLimitError
		if !errors.As(err, &rle) {
			observability.StageFailed(stage)
			return "", err
		}
		lastErr = err
		if attempt == e.settings.MaxAttempts {
			break
		}
		wait := expo.NextBackOff()
		if rle.RetryAfter > wait {
			wait = rle.RetryAfter
		}
		slog.Warn("rate limited, backing off",
			slog.String("stage", stage),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Duration("retry_after_hint", rle.RetryAfter))
		if err := e.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	slog.Error("rate limit retries exhausted",
		slog.String("stage", stage),
		slog.Int("attempts", e.settings.MaxAttempts))
	return "", fmt.Errorf("op=ai.invoke stage=%s: attempts exhausted: %w", stage, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
