package usecase

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// Sheet names for the best-effort spreadsheet mirror.
const (
	sheetApplications = "applications"
	sheetExamResults  = "exam_results"
)

// ApplicationPipeline runs the full screening lifecycle for one submission:
// extract → enrich projects → evaluate → narrate → generate exam → persist.
//
// Only extraction failure aborts the submission. Every downstream stage
// degrades in place: a partial application (evaluated but without a
// narrative, or eligible but without an exam) still gets persisted.
type ApplicationPipeline struct {
	Jobs      domain.JobRepository
	Apps      domain.ApplicationRepository
	Extract   *ExtractionService
	Insights  *InsightService
	Evaluate  *EvaluationService
	Narrate   *NarrativeService
	Exam      *ExamService
	Sheet     domain.SheetSink
}

// NewApplicationPipeline wires the stages together.
func NewApplicationPipeline(jobs domain.JobRepository, apps domain.ApplicationRepository, extract *ExtractionService, insights *InsightService, evaluate *EvaluationService, narrate *NarrativeService, exam *ExamService, sheet domain.SheetSink) *ApplicationPipeline {
	return &ApplicationPipeline{
		Jobs:     jobs,
		Apps:     apps,
		Extract:  extract,
		Insights: insights,
		Evaluate: evaluate,
		Narrate:  narrate,
		Exam:     exam,
		Sheet:    sheet,
	}
}

// Submit processes one resume submission against a job and returns the
// persisted application. Stage order is fixed; an exam is never generated
// before eligibility is known.
func (p *ApplicationPipeline) Submit(ctx domain.Context, jobID, resumeText string) (domain.Application, error) {
	tracer := otel.Tracer("usecase.pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.Submit")
	defer span.End()

	job, err := p.Jobs.Get(ctx, jobID)
	if err != nil {
		return domain.Application{}, err
	}

	resume, err := p.Extract.Extract(ctx, resumeText)
	if err != nil {
		return domain.Application{}, err
	}
	resume.Projects = p.Insights.Enrich(ctx, resume.Projects)

	result := p.Evaluate.Evaluate(ctx, resume, job.Description)
	result.Reason = p.Narrate.Narrate(ctx, resume, job.Description, result)

	a := domain.Application{
		JobID:      job.ID,
		Status:     domain.AppNotEligible,
		Resume:     resume,
		Evaluation: result,
		CreatedAt:  time.Now().UTC(),
	}
	if result.Decision == domain.DecisionEligible {
		a.Status = domain.AppEligible
	}
	id, err := p.Apps.Create(ctx, a)
	if err != nil {
		return domain.Application{}, fmt.Errorf("op=pipeline.submit: %w", err)
	}
	a.ID = id

	if result.Decision == domain.DecisionEligible {
		a, err = p.Exam.Generate(ctx, a, job.Description)
		if err != nil {
			// Eligibility survives; the application carries the annotation.
			slog.Warn("continuing without generated exam",
				slog.String("application_id", a.ID),
				slog.Any("error", err))
		}
	}

	p.mirrorApplication(ctx, job, a)
	return a, nil
}

// SubmitExam grades the candidate's answers for an application and mirrors
// the outcome. The guard semantics live in ExamService.Grade.
func (p *ApplicationPipeline) SubmitExam(ctx domain.Context, appID string, answers map[string]string) (domain.ExamSubmission, error) {
	tracer := otel.Tracer("usecase.pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.SubmitExam")
	defer span.End()

	a, err := p.Apps.Get(ctx, appID)
	if err != nil {
		return domain.ExamSubmission{}, err
	}
	job, err := p.Jobs.Get(ctx, a.JobID)
	if err != nil {
		return domain.ExamSubmission{}, err
	}
	sub, err := p.Exam.Grade(ctx, appID, job.Description, answers)
	if err != nil {
		return domain.ExamSubmission{}, err
	}
	p.mirrorExamResult(ctx, job, appID, sub)
	return sub, nil
}

func (p *ApplicationPipeline) mirrorApplication(ctx domain.Context, job domain.Job, a domain.Application) {
	if p.Sheet == nil {
		return
	}
	row := []string{
		a.ID,
		job.Company,
		job.Title,
		a.Resume.Name,
		a.Resume.Email,
		strconv.Itoa(a.Evaluation.Score),
		string(a.Evaluation.Decision),
		string(a.Status),
	}
	if err := p.Sheet.AppendRow(ctx, sheetApplications, row); err != nil {
		slog.Warn("application mirror skipped", slog.String("application_id", a.ID))
	}
}

func (p *ApplicationPipeline) mirrorExamResult(ctx domain.Context, job domain.Job, appID string, sub domain.ExamSubmission) {
	if p.Sheet == nil {
		return
	}
	row := []string{
		appID,
		job.Company,
		job.Title,
		strconv.Itoa(sub.Total),
		strconv.Itoa(len(sub.Grades)),
	}
	if err := p.Sheet.AppendRow(ctx, sheetExamResults, row); err != nil {
		slog.Warn("exam result mirror skipped", slog.String("application_id", appID))
	}
}
