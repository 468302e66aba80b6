package usecase

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/resume-screener/internal/adapter/ai"
	"github.com/fairyhunter13/resume-screener/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// ExtractionService turns raw resume text into structured candidate data.
//
// Rate limiting is retried by the executor and, once exhausted, surfaces as
// ErrExtractionFailed; a malformed or schema-violating response is never
// retried, that is a prompt bug, not a transient fault.
type ExtractionService struct {
	Exec        *ai.RetryingPromptExecutor
	Schema      *ai.SchemaValidator
	Budget      *tokencount.Budgeter
	TokenBudget int
	MaxTokens   int
}

// NewExtractionService constructs an ExtractionService.
func NewExtractionService(exec *ai.RetryingPromptExecutor, schema *ai.SchemaValidator, budget *tokencount.Budgeter, tokenBudget, maxTokens int) *ExtractionService {
	return &ExtractionService{Exec: exec, Schema: schema, Budget: budget, TokenBudget: tokenBudget, MaxTokens: maxTokens}
}

// Extract runs invoke → clean → validate for the resume shape. Empty input is
// a precondition failure owned by the text-extraction collaborator.
func (s *ExtractionService) Extract(ctx domain.Context, resumeText string) (domain.ResumeInfo, error) {
	if resumeText == "" {
		return domain.ResumeInfo{}, fmt.Errorf("%w: empty resume text", domain.ErrInvalidArgument)
	}
	if s.Budget != nil {
		resumeText = s.Budget.Truncate(resumeText, s.TokenBudget)
	}
	raw, err := s.Exec.Invoke(ctx, "extract", extractionSystemPrompt, extractionUserPrompt(resumeText), s.MaxTokens)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamRateLimit) {
			observability.StageFallback("extract")
			return domain.ResumeInfo{}, fmt.Errorf("%w: persistent rate limit", domain.ErrExtractionFailed)
		}
		return domain.ResumeInfo{}, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	info, err := s.Schema.ValidateResume(raw)
	if err != nil {
		slog.Error("resume validation failed", slog.Any("error", err))
		observability.StageFailed("extract")
		return domain.ResumeInfo{}, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	observability.StageOK("extract")
	return info, nil
}
