package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecideEligibility(t *testing.T) {
	t.Parallel()
	cases := []struct {
		score     int
		threshold int
		want      Decision
	}{
		{score: 0, threshold: 75, want: DecisionNotEligible},
		{score: 74, threshold: 75, want: DecisionNotEligible},
		{score: 75, threshold: 75, want: DecisionEligible},
		{score: 76, threshold: 75, want: DecisionEligible},
		{score: 100, threshold: 75, want: DecisionEligible},
		{score: 50, threshold: 50, want: DecisionEligible},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("%d_vs_%d", tc.score, tc.threshold), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, DecideEligibility(tc.score, tc.threshold))
		})
	}
}

func TestRateLimitErrorUnwrapsToSentinel(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("op=chat: %w", &RateLimitError{RetryAfter: 5 * time.Second, Detail: "status 429"})
	assert.ErrorIs(t, err, ErrUpstreamRateLimit)

	var rle *RateLimitError
	assert.True(t, errors.As(err, &rle))
	assert.Equal(t, 5*time.Second, rle.RetryAfter)
	assert.Contains(t, rle.Error(), "status 429")
}

func TestSchemaValidationErrorUnwrapsToSentinel(t *testing.T) {
	t.Parallel()
	err := &SchemaValidationError{Shape: "resume", Field: "skills", Detail: "expected array"}
	assert.ErrorIs(t, err, ErrSchemaInvalid)
	assert.Contains(t, err.Error(), "shape=resume")
	assert.Contains(t, err.Error(), "field=skills")
}

func TestExamStateOf(t *testing.T) {
	t.Parallel()
	exam := &Exam{Questions: []Question{{ID: "q1", Text: "t"}}}
	cases := []struct {
		name string
		app  Application
		want ExamState
	}{
		{name: "not eligible is terminal", app: Application{Evaluation: EvaluationResult{Decision: DecisionNotEligible}, Exam: exam}, want: ExamStateNotEligible},
		{name: "eligible without exam", app: Application{Evaluation: EvaluationResult{Decision: DecisionEligible}}, want: ExamStateNoExam},
		{name: "eligible with exam", app: Application{Evaluation: EvaluationResult{Decision: DecisionEligible}, Exam: exam}, want: ExamStateGenerated},
		{name: "taken is terminal", app: Application{Evaluation: EvaluationResult{Decision: DecisionEligible}, Exam: exam, ExamTaken: true}, want: ExamStateTaken},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExamStateOf(tc.app))
		})
	}
}
