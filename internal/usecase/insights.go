package usecase

import (
	"log/slog"

	"github.com/fairyhunter13/resume-screener/internal/adapter/ai"
	"github.com/fairyhunter13/resume-screener/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// InsightService enriches resume projects with structured insights derived
// from their linked repository READMEs. Enrichment is strictly per-project:
// a missing link, failed fetch or bad model output leaves that one project's
// insights absent and the rest untouched.
type InsightService struct {
	Exec        *ai.RetryingPromptExecutor
	Schema      *ai.SchemaValidator
	Fetcher     domain.ReadmeFetcher
	Budget      *tokencount.Budgeter
	TokenBudget int
	MaxTokens   int
}

// NewInsightService constructs an InsightService.
func NewInsightService(exec *ai.RetryingPromptExecutor, schema *ai.SchemaValidator, fetcher domain.ReadmeFetcher, budget *tokencount.Budgeter, tokenBudget, maxTokens int) *InsightService {
	return &InsightService{Exec: exec, Schema: schema, Fetcher: fetcher, Budget: budget, TokenBudget: tokenBudget, MaxTokens: maxTokens}
}

// Enrich fills Insights for every project whose README can be fetched and
// parsed. It never fails; projects it cannot enrich are returned as-is.
func (s *InsightService) Enrich(ctx domain.Context, projects []domain.Project) []domain.Project {
	out := make([]domain.Project, len(projects))
	copy(out, projects)
	for i := range out {
		if out[i].Link == "" {
			continue
		}
		readme, ok := s.Fetcher.FetchReadme(ctx, out[i].Link)
		if !ok || readme == "" {
			slog.Debug("no readme for project", slog.String("project", out[i].Title))
			continue
		}
		if s.Budget != nil {
			readme = s.Budget.Truncate(readme, s.TokenBudget)
		}
		raw, err := s.Exec.Invoke(ctx, "insights", insightsSystemPrompt, insightsUserPrompt(readme), s.MaxTokens)
		if err != nil {
			slog.Warn("project insight generation failed",
				slog.String("project", out[i].Title),
				slog.Any("error", err))
			observability.StageFallback("insights")
			continue
		}
		insights, err := s.Schema.ValidateInsights(raw)
		if err != nil {
			slog.Warn("project insight validation failed",
				slog.String("project", out[i].Title),
				slog.Any("error", err))
			observability.StageFallback("insights")
			continue
		}
		out[i].Insights = &insights
		observability.StageOK("insights")
	}
	return out
}
