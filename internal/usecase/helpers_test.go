package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/resume-screener/internal/adapter/ai"
	"github.com/fairyhunter13/resume-screener/internal/config"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// scriptedAI routes each call through fn with a 1-based call counter, so a
// test can script different responses per stage or per attempt.
type scriptedAI struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, systemPrompt, userPrompt string) (string, error)
}

func (c *scriptedAI) ChatText(_ context.Context, systemPrompt, userPrompt string, _ int) (string, error) {
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()
	return c.fn(n, systemPrompt, userPrompt)
}

func (c *scriptedAI) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// newFastExec wraps a client with millisecond backoff so rate-limit paths
// stay fast under test.
func newFastExec(client domain.AIClient) *ai.RetryingPromptExecutor {
	return ai.NewRetryingPromptExecutor(client, ai.RetrySettings{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
	})
}

func testRubric() config.Rubric {
	return config.Rubric{
		MatchThreshold:   75,
		WeightSkills:     35,
		WeightExperience: 25,
		WeightEducation:  10,
		WeightProjects:   20,
		WeightBonus:      10,
		QuestionCount:    3,
	}
}

// staticFetcher serves canned READMEs keyed by repository link.
type staticFetcher struct {
	readmes map[string]string
}

func (f *staticFetcher) FetchReadme(_ context.Context, repoURL string) (string, bool) {
	text, ok := f.readmes[repoURL]
	return text, ok
}

// recordingSheet captures mirrored rows.
type recordingSheet struct {
	mu   sync.Mutex
	rows map[string][][]string
	err  error
}

func newRecordingSheet() *recordingSheet {
	return &recordingSheet{rows: make(map[string][][]string)}
}

func (s *recordingSheet) AppendRow(_ context.Context, sheet string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows[sheet] = append(s.rows[sheet], row)
	return nil
}

func (s *recordingSheet) rowsFor(sheet string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[sheet]
}
