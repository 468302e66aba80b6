package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// seqClient replays a fixed sequence of responses.
type seqClient struct {
	calls int
	resps []string
	errs  []error
}

func (c *seqClient) ChatText(_ context.Context, _, _ string, _ int) (string, error) {
	i := c.calls
	c.calls++
	if i >= len(c.errs) {
		i = len(c.errs) - 1
	}
	return c.resps[i], c.errs[i]
}

func newTestExecutor(client domain.AIClient) (*RetryingPromptExecutor, *[]time.Duration) {
	e := NewRetryingPromptExecutor(client, RetrySettings{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		Multiplier:   2.0,
	})
	waits := &[]time.Duration{}
	e.sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return e, waits
}

func TestInvoke_SuccessFirstAttempt(t *testing.T) {
	t.Parallel()
	client := &seqClient{resps: []string{"82"}, errs: []error{nil}}
	e, waits := newTestExecutor(client)
	out, err := e.Invoke(context.Background(), "evaluate", "sys", "user", 100)
	require.NoError(t, err)
	assert.Equal(t, "82", out)
	assert.Equal(t, 1, client.calls)
	assert.Empty(t, *waits)
}

func TestInvoke_RateLimitThenSuccess(t *testing.T) {
	t.Parallel()
	client := &seqClient{
		resps: []string{"", "ok"},
		errs:  []error{&domain.RateLimitError{}, nil},
	}
	e, waits := newTestExecutor(client)
	out, err := e.Invoke(context.Background(), "extract", "sys", "user", 100)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, client.calls)
	require.Len(t, *waits, 1)
	assert.Equal(t, 10*time.Millisecond, (*waits)[0])
}

func TestInvoke_ExhaustionAfterExactlyThreeAttempts(t *testing.T) {
	t.Parallel()
	client := &seqClient{
		resps: []string{"", "", ""},
		errs:  []error{&domain.RateLimitError{}, &domain.RateLimitError{}, &domain.RateLimitError{}},
	}
	e, waits := newTestExecutor(client)
	_, err := e.Invoke(context.Background(), "extract", "sys", "user", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamRateLimit)
	assert.Equal(t, 3, client.calls)
	// Two sleeps between three attempts, doubling schedule.
	require.Len(t, *waits, 2)
	assert.Equal(t, 10*time.Millisecond, (*waits)[0])
	assert.Equal(t, 20*time.Millisecond, (*waits)[1])
}

func TestInvoke_RetryAfterHintWins(t *testing.T) {
	t.Parallel()
	client := &seqClient{
		resps: []string{"", "ok"},
		errs:  []error{&domain.RateLimitError{RetryAfter: 90 * time.Millisecond}, nil},
	}
	e, waits := newTestExecutor(client)
	_, err := e.Invoke(context.Background(), "evaluate", "sys", "user", 100)
	require.NoError(t, err)
	require.Len(t, *waits, 1)
	assert.Equal(t, 90*time.Millisecond, (*waits)[0])
}

func TestInvoke_SmallHintDoesNotShrinkBackoff(t *testing.T) {
	t.Parallel()
	client := &seqClient{
		resps: []string{"", "ok"},
		errs:  []error{&domain.RateLimitError{RetryAfter: time.Millisecond}, nil},
	}
	e, waits := newTestExecutor(client)
	_, err := e.Invoke(context.Background(), "evaluate", "sys", "user", 100)
	require.NoError(t, err)
	require.Len(t, *waits, 1)
	assert.Equal(t, 10*time.Millisecond, (*waits)[0])
}

func TestInvoke_FatalErrorNotRetried(t *testing.T) {
	t.Parallel()
	fatal := errors.New("model returned 500")
	client := &seqClient{resps: []string{""}, errs: []error{fatal}}
	e, waits := newTestExecutor(client)
	_, err := e.Invoke(context.Background(), "extract", "sys", "user", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, client.calls)
	assert.Empty(t, *waits)
}

func TestInvoke_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	client := &seqClient{
		resps: []string{"", ""},
		errs:  []error{&domain.RateLimitError{}, &domain.RateLimitError{}},
	}
	e := NewRetryingPromptExecutor(client, RetrySettings{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond, Multiplier: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Invoke(ctx, "extract", "sys", "user", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, client.calls)
}
