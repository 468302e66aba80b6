package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/resume-screener/internal/domain"
)

func TestNarrate_BranchSelection(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		decision domain.Decision
		wantIn   string
	}{
		{name: "eligible gets selection rationale", decision: domain.DecisionEligible, wantIn: "selection rationale"},
		{name: "not eligible gets supportive feedback", decision: domain.DecisionNotEligible, wantIn: "rejection feedback"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var seenSystem string
			client := &scriptedAI{fn: func(_ int, system, _ string) (string, error) {
				seenSystem = system
				return "Narrative text.", nil
			}}
			svc := NewNarrativeService(newFastExec(client), 256)
			out := svc.Narrate(context.Background(), domain.ResumeInfo{}, "job", domain.EvaluationResult{Decision: tc.decision})
			assert.Equal(t, "Narrative text.", out)
			assert.Contains(t, seenSystem, tc.wantIn)
		})
	}
}

func TestNarrate_FallbackOnError(t *testing.T) {
	t.Parallel()
	client := &scriptedAI{fn: func(int, string, string) (string, error) {
		return "", errors.New("model unavailable")
	}}
	svc := NewNarrativeService(newFastExec(client), 256)
	out := svc.Narrate(context.Background(), domain.ResumeInfo{}, "job", domain.EvaluationResult{Decision: domain.DecisionNotEligible})
	assert.Equal(t, narrativeFallback, out)
}

func TestNarrate_FallbackOnRateLimitExhaustion(t *testing.T) {
	t.Parallel()
	client := &scriptedAI{fn: func(int, string, string) (string, error) {
		return "", &domain.RateLimitError{}
	}}
	svc := NewNarrativeService(newFastExec(client), 256)
	out := svc.Narrate(context.Background(), domain.ResumeInfo{}, "job", domain.EvaluationResult{Decision: domain.DecisionEligible})
	assert.Equal(t, narrativeFallback, out)
	assert.Equal(t, 3, client.callCount())
}

func TestNarrate_FallbackOnBlankResponse(t *testing.T) {
	t.Parallel()
	client := &scriptedAI{fn: func(int, string, string) (string, error) { return "   \n", nil }}
	svc := NewNarrativeService(newFastExec(client), 256)
	out := svc.Narrate(context.Background(), domain.ResumeInfo{}, "job", domain.EvaluationResult{Decision: domain.DecisionEligible})
	assert.Equal(t, narrativeFallback, out)
}
