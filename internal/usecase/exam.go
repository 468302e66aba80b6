package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fairyhunter13/resume-screener/internal/adapter/ai"
	"github.com/fairyhunter13/resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// invalidAnswerFeedback is recorded without a model call for answers that
// cannot be graded at all.
const invalidAnswerFeedback = "invalid question id or missing answer"

// ExamCache is the optional cache-aside layer in front of the repository for
// generated exams, plus the submission fence. A nil cache disables both.
type ExamCache interface {
	GetExam(ctx domain.Context, appID string) (domain.Exam, bool)
	PutExam(ctx domain.Context, appID string, exam domain.Exam)
	AcquireSubmitLock(ctx domain.Context, appID string) bool
	ReleaseSubmitLock(ctx domain.Context, appID string)
}

// ExamService generates and grades technical exams. The two operations share
// one lifecycle flag: an exam is generated at most once per application and
// graded at most once, with the repository's atomic update as the final
// arbiter against concurrent submissions.
type ExamService struct {
	Exec          *ai.RetryingPromptExecutor
	Schema        *ai.SchemaValidator
	Apps          domain.ApplicationRepository
	Cache         ExamCache
	QuestionCount int
	MaxTokens     int
}

// NewExamService constructs an ExamService.
func NewExamService(exec *ai.RetryingPromptExecutor, schema *ai.SchemaValidator, apps domain.ApplicationRepository, cache ExamCache, questionCount, maxTokens int) *ExamService {
	return &ExamService{Exec: exec, Schema: schema, Apps: apps, Cache: cache, QuestionCount: questionCount, MaxTokens: maxTokens}
}

// Generate produces the exam for an eligible application. Existing questions
// make the call a no-op returning the cached set. Generation failure keeps
// the eligibility outcome but annotates the application so the operational
// failure is visible, not silently treated as ineligible.
func (s *ExamService) Generate(ctx domain.Context, a domain.Application, jobDescription string) (domain.Application, error) {
	if a.Evaluation.Decision != domain.DecisionEligible {
		return a, fmt.Errorf("%w: application not eligible", domain.ErrConflict)
	}
	if a.Exam != nil && len(a.Exam.Questions) > 0 {
		return a, nil
	}
	if s.Cache != nil {
		if exam, ok := s.Cache.GetExam(ctx, a.ID); ok {
			a.Exam = &exam
			a.Status = domain.AppEligible
			if err := s.Apps.Update(ctx, a); err != nil {
				return a, err
			}
			return a, nil
		}
	}

	raw, err := s.Exec.Invoke(ctx, "exam_generate", examSystemPrompt(s.QuestionCount), examUserPrompt(jobDescription), s.MaxTokens)
	if err == nil {
		var exam domain.Exam
		exam, err = s.Schema.ValidateExam(raw, s.QuestionCount)
		if err == nil {
			a.Exam = &exam
			a.Status = domain.AppEligible
			if uerr := s.Apps.Update(ctx, a); uerr != nil {
				return a, uerr
			}
			if s.Cache != nil {
				s.Cache.PutExam(ctx, a.ID, exam)
			}
			observability.StageOK("exam_generate")
			return a, nil
		}
	}

	slog.Error("exam generation failed",
		slog.String("application_id", a.ID),
		slog.Any("error", err))
	observability.StageFallback("exam_generate")
	a.Status = domain.AppEligibleExamFail
	if uerr := s.Apps.Update(ctx, a); uerr != nil {
		return a, uerr
	}
	return a, fmt.Errorf("op=exam.generate: %w", err)
}

// Grade scores the submitted answers against the application's exam and
// commits the submission exactly once. Preconditions: the application must be
// eligible, hold a generated exam, and not have taken it yet. A failure
// grading one answer records a zero for that answer only; the loop never
// aborts.
func (s *ExamService) Grade(ctx domain.Context, appID, jobDescription string, answers map[string]string) (domain.ExamSubmission, error) {
	a, err := s.Apps.Get(ctx, appID)
	if err != nil {
		return domain.ExamSubmission{}, err
	}
	if a.Evaluation.Decision != domain.DecisionEligible {
		return domain.ExamSubmission{}, fmt.Errorf("%w: application not eligible for exam", domain.ErrConflict)
	}
	if a.ExamTaken {
		return domain.ExamSubmission{}, fmt.Errorf("op=exam.grade: %w", domain.ErrExamTaken)
	}
	if a.Exam == nil || len(a.Exam.Questions) == 0 {
		return domain.ExamSubmission{}, fmt.Errorf("%w: exam not generated", domain.ErrConflict)
	}
	if len(answers) == 0 {
		return domain.ExamSubmission{}, fmt.Errorf("%w: no answers submitted", domain.ErrInvalidArgument)
	}
	if s.Cache != nil && !s.Cache.AcquireSubmitLock(ctx, appID) {
		return domain.ExamSubmission{}, fmt.Errorf("op=exam.grade: %w", domain.ErrExamTaken)
	}

	byID := make(map[string]domain.Question, len(a.Exam.Questions))
	for _, q := range a.Exam.Questions {
		byID[q.ID] = q
	}
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sub := domain.ExamSubmission{Grades: make([]domain.AnswerGrade, 0, len(ids))}
	for _, id := range ids {
		answer := answers[id]
		q, found := byID[id]
		if !found || answer == "" {
			sub.Grades = append(sub.Grades, domain.AnswerGrade{
				QuestionID: id,
				Answer:     answer,
				Score:      0,
				Feedback:   invalidAnswerFeedback,
			})
			continue
		}
		sub.Grades = append(sub.Grades, s.gradeOne(ctx, jobDescription, q, answer))
	}
	for _, g := range sub.Grades {
		sub.Total += g.Score
	}
	sub.SubmittedAt = time.Now().UTC()

	if err := s.Apps.MarkExamTaken(ctx, appID, sub); err != nil {
		if s.Cache != nil && !errors.Is(err, domain.ErrExamTaken) {
			// Commit failed for another reason; let a later attempt through.
			s.Cache.ReleaseSubmitLock(ctx, appID)
		}
		return domain.ExamSubmission{}, err
	}
	observability.StageOK("exam_grade")
	return sub, nil
}

// gradeOne grades a single answer; any failure records a zero with
// explanatory feedback instead of propagating.
func (s *ExamService) gradeOne(ctx domain.Context, jobDescription string, q domain.Question, answer string) domain.AnswerGrade {
	g := domain.AnswerGrade{QuestionID: q.ID, Answer: answer}
	raw, err := s.Exec.Invoke(ctx, "exam_grade", gradingSystemPrompt, gradingUserPrompt(jobDescription, q.Text, q.IdealAnswer, answer), s.MaxTokens)
	if err != nil {
		slog.Warn("answer grading failed",
			slog.String("question_id", q.ID),
			slog.Any("error", err))
		observability.StageFallback("exam_grade")
		g.Feedback = "grading unavailable for this answer"
		return g
	}
	res, err := s.Schema.ValidateGrade(raw)
	if err != nil {
		slog.Warn("grade validation failed",
			slog.String("question_id", q.ID),
			slog.Any("error", err))
		observability.StageFallback("exam_grade")
		g.Feedback = "grading response could not be parsed"
		return g
	}
	g.Score = res.Score
	g.Feedback = res.Feedback
	return g
}
