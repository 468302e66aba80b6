package usecase

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fairyhunter13/resume-screener/internal/adapter/ai"
	"github.com/fairyhunter13/resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/resume-screener/internal/config"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// rateLimitFallbackReason marks evaluations that never got a model answer.
const rateLimitFallbackReason = "rate limit consistently hit"

// EvaluationService scores a structured resume against a job description.
// It always produces a decision: persistent rate limiting degrades to a zero
// score rather than an error, because an application without a decision is
// worth less than a conservatively rejected one.
type EvaluationService struct {
	Exec      *ai.RetryingPromptExecutor
	Cleaner   *ai.ResponseCleaner
	Rubric    config.Rubric
	MaxTokens int
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(exec *ai.RetryingPromptExecutor, cleaner *ai.ResponseCleaner, rubric config.Rubric, maxTokens int) *EvaluationService {
	return &EvaluationService{Exec: exec, Cleaner: cleaner, Rubric: rubric, MaxTokens: maxTokens}
}

// Evaluate returns the score and threshold decision for the resume. The
// rubric weighting lives in the prompt; the threshold comparison is the one
// hard invariant enforced here.
func (s *EvaluationService) Evaluate(ctx domain.Context, resume domain.ResumeInfo, jobDescription string) domain.EvaluationResult {
	resumeJSON, err := json.Marshal(resume)
	if err != nil {
		slog.Error("resume marshal failed", slog.Any("error", err))
		return domain.EvaluationResult{Score: 0, Decision: domain.DecisionNotEligible}
	}
	raw, err := s.Exec.Invoke(ctx, "evaluate", evaluationSystemPrompt(s.Rubric), evaluationUserPrompt(string(resumeJSON), jobDescription), s.MaxTokens)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamRateLimit) {
			observability.StageFallback("evaluate")
			return domain.EvaluationResult{
				Score:    0,
				Decision: domain.DecisionNotEligible,
				Reason:   rateLimitFallbackReason,
			}
		}
		slog.Error("evaluation call failed", slog.Any("error", err))
		observability.StageFallback("evaluate")
		return domain.EvaluationResult{Score: 0, Decision: domain.DecisionNotEligible}
	}
	score := s.Cleaner.ExtractScore(raw)
	if score > 100 {
		score = 100
	}
	observability.StageOK("evaluate")
	observability.MatchScoreHistogram.Observe(float64(score))
	return domain.EvaluationResult{
		Score:    score,
		Decision: domain.DecideEligibility(score, s.Rubric.MatchThreshold),
	}
}
