package usecase

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/resume-screener/internal/adapter/ai"
	"github.com/fairyhunter13/resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// narrativeFallback is returned whenever the narrative cannot be produced;
// a missing rationale must never block the rest of the pipeline.
const narrativeFallback = "We are sorry, detailed feedback could not be generated at this time."

// NarrativeService writes the human-readable rationale for a decision:
// a selection reason for eligible candidates, supportive gap feedback for
// rejected ones. The branch is chosen purely by the evaluation decision.
type NarrativeService struct {
	Exec      *ai.RetryingPromptExecutor
	MaxTokens int
}

// NewNarrativeService constructs a NarrativeService.
func NewNarrativeService(exec *ai.RetryingPromptExecutor, maxTokens int) *NarrativeService {
	return &NarrativeService{Exec: exec, MaxTokens: maxTokens}
}

// Narrate returns the rationale text for the decision. It never fails.
func (s *NarrativeService) Narrate(ctx domain.Context, resume domain.ResumeInfo, jobDescription string, result domain.EvaluationResult) string {
	system := narrativeFeedbackSystemPrompt
	if result.Decision == domain.DecisionEligible {
		system = narrativeSelectionSystemPrompt
	}
	resumeJSON, err := json.Marshal(resume)
	if err != nil {
		return narrativeFallback
	}
	raw, err := s.Exec.Invoke(ctx, "narrate", system, narrativeUserPrompt(string(resumeJSON), jobDescription), s.MaxTokens)
	if err != nil {
		slog.Warn("narrative generation failed",
			slog.String("decision", string(result.Decision)),
			slog.Any("error", err))
		observability.StageFallback("narrate")
		return narrativeFallback
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		observability.StageFallback("narrate")
		return narrativeFallback
	}
	observability.StageOK("narrate")
	return text
}
