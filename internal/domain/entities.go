// Package domain defines the screening entities, ports and error taxonomy.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrExamTaken         = errors.New("exam already taken")
	ErrInternal          = errors.New("internal error")
)

// RateLimitError signals a retryable provider slowdown. RetryAfter carries
// the provider's own wait hint when it sent one; zero means no hint.
type RateLimitError struct {
	RetryAfter time.Duration
	Detail     string
}

func (e *RateLimitError) Error() string {
	if e.Detail == "" {
		return ErrUpstreamRateLimit.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUpstreamRateLimit.Error(), e.Detail)
}

// Unwrap lets errors.Is(err, ErrUpstreamRateLimit) classify the failure.
func (e *RateLimitError) Unwrap() error { return ErrUpstreamRateLimit }

// SchemaValidationError reports a structured-output shape violation.
type SchemaValidationError struct {
	Shape  string
	Field  string
	Detail string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s: shape=%s field=%s: %s", ErrSchemaInvalid.Error(), e.Shape, e.Field, e.Detail)
}

// Unwrap maps the error onto the ErrSchemaInvalid sentinel.
func (e *SchemaValidationError) Unwrap() error { return ErrSchemaInvalid }

// ResumeInfo is the structured candidate data extracted from raw resume text.
// After validation every list field is a non-nil slice; scalar fields that the
// model omitted stay empty, never fabricated.
type ResumeInfo struct {
	Name              string           `json:"name,omitempty"`
	Email             string           `json:"email,omitempty"`
	Phone             string           `json:"phone,omitempty"`
	Education         []Education      `json:"education"`
	Skills            []string         `json:"skills"`
	Experience        []Experience     `json:"experience"`
	Projects          []Project        `json:"projects"`
	Certificates      []string         `json:"certificates"`
	Achievements      []string         `json:"achievements"`
	Memberships       []string         `json:"memberships"`
	CampusInvolvement []string         `json:"campus_involvement"`
}

// Education is one degree entry on a resume.
type Education struct {
	Degree        string   `json:"degree,omitempty"`
	Institution   string   `json:"institution,omitempty"`
	StartYear     string   `json:"start_year,omitempty"`
	EndYear       string   `json:"end_year,omitempty"`
	Concentration string   `json:"concentration,omitempty"`
	GPA           string   `json:"gpa,omitempty"`
	Coursework    []string `json:"coursework"`
}

// Experience is one work entry on a resume.
type Experience struct {
	Title       string   `json:"title,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Location    string   `json:"location,omitempty"`
	Description []string `json:"description"`
}

// Project is one project entry; Insights is filled only when a linked
// repository's documentation could be fetched and parsed.
type Project struct {
	Title       string           `json:"title,omitempty"`
	Link        string           `json:"link,omitempty"`
	Description []string         `json:"description"`
	Insights    *ProjectInsights `json:"insights,omitempty"`
}

// ProjectInsights is structured project understanding derived from a README.
type ProjectInsights struct {
	Purpose              string   `json:"purpose,omitempty"`
	KeyFeatures          []string `json:"key_features"`
	TechnologiesUsed     []string `json:"technologies_used"`
	TargetUsers          string   `json:"target_users,omitempty"`
	ProjectChallenges    []string `json:"project_challenges"`
	BusinessValue        string   `json:"business_value,omitempty"`
	FutureScope          []string `json:"future_scope"`
	DesignConsiderations []string `json:"design_considerations"`
	InterviewQuestions   []string `json:"interview_questions"`
}

// Decision is the eligibility outcome of evaluation.
type Decision string

const (
	DecisionEligible    Decision = "eligible"
	DecisionNotEligible Decision = "not_eligible"
)

// DecideEligibility is the one hard invariant of evaluation: eligible iff
// score meets the threshold.
func DecideEligibility(score, threshold int) Decision {
	if score >= threshold {
		return DecisionEligible
	}
	return DecisionNotEligible
}

// EvaluationResult is the score and decision for one application. Reason is
// filled by the narrative stage after the decision is made.
type EvaluationResult struct {
	Score    int      `json:"score"`
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
}

// Question is one generated exam question with its reference answer.
type Question struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	IdealAnswer string `json:"ideal_answer,omitempty"`
}

// Exam is the ordered question set generated once per application.
type Exam struct {
	Questions []Question `json:"questions"`
}

// AnswerGrade is the per-question grading outcome.
type AnswerGrade struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"` // 0..10
	Feedback   string `json:"feedback"`
}

// ExamSubmission is the graded exam; Total is the sum of per-question scores.
type ExamSubmission struct {
	Grades      []AnswerGrade `json:"grades"`
	Total       int           `json:"total"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// ApplicationStatus tracks an application through the pipeline.
type ApplicationStatus string

const (
	AppSubmitted         ApplicationStatus = "submitted"
	AppNotEligible       ApplicationStatus = "not_eligible"
	AppEligible          ApplicationStatus = "eligible"
	AppEligibleExamFail  ApplicationStatus = "eligible_exam_gen_failed"
	AppExamTaken         ApplicationStatus = "exam_taken"
)

// ExamState is the exam sub-state machine of an application.
// Transitions only move forward; terminal states are NotEligible and Taken.
type ExamState string

const (
	ExamStateNotEligible ExamState = "not_eligible"
	ExamStateNoExam      ExamState = "eligible_no_exam"
	ExamStateGenerated   ExamState = "eligible_exam_generated"
	ExamStateTaken       ExamState = "exam_taken"
)

// ExamStateOf derives the exam sub-state from the application's fields.
func ExamStateOf(a Application) ExamState {
	switch {
	case a.Evaluation.Decision != DecisionEligible:
		return ExamStateNotEligible
	case a.ExamTaken:
		return ExamStateTaken
	case a.Exam != nil && len(a.Exam.Questions) > 0:
		return ExamStateGenerated
	default:
		return ExamStateNoExam
	}
}

// Application is the aggregate root linking a job to a candidate submission.
type Application struct {
	ID         string            `json:"id"`
	JobID      string            `json:"job_id"`
	Status     ApplicationStatus `json:"status"`
	Resume     ResumeInfo        `json:"resume"`
	Evaluation EvaluationResult  `json:"evaluation"`
	Exam       *Exam             `json:"exam,omitempty"`
	Submission *ExamSubmission   `json:"submission,omitempty"`
	ExamTaken  bool              `json:"exam_taken"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Job is an HR-posted opening; it owns its applications.
type Job struct {
	ID          string    `json:"id"`
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repositories (ports)

//go:generate mockery --name=JobRepository --with-expecter --filename=job_repository_mock.go
//go:generate mockery --name=ApplicationRepository --with-expecter --filename=application_repository_mock.go

// JobRepository persists job postings.
type JobRepository interface {
	Create(ctx context.Context, j Job) (string, error)
	Get(ctx context.Context, id string) (Job, error)
	List(ctx context.Context) ([]Job, error)
}

// ApplicationRepository persists applications. MarkExamTaken must be atomic:
// it succeeds for exactly one caller per application and returns ErrExamTaken
// for every later one.
type ApplicationRepository interface {
	Create(ctx context.Context, a Application) (string, error)
	Get(ctx context.Context, id string) (Application, error)
	ListByJob(ctx context.Context, jobID string) ([]Application, error)
	Update(ctx context.Context, a Application) error
	MarkExamTaken(ctx context.Context, id string, sub ExamSubmission) error
}

// AIClient (port)

// AIClient issues one prompt to a text-completion model and returns the raw
// free text. Rate limiting must surface as a *RateLimitError; every other
// failure is fatal to the call.
type AIClient interface {
	ChatText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// TextExtractor (port)
// Extracts plain text from an uploaded resume file; empty output signals
// extraction failure and is handled before the pipeline starts.
type TextExtractor interface {
	Extract(ctx context.Context, fileName string, content []byte) (string, error)
}

// ReadmeFetcher (port)
// Returns README text for a repository link, or ok=false when no branch
// served one. Fetch failures never propagate as errors.
type ReadmeFetcher interface {
	FetchReadme(ctx context.Context, repoURL string) (text string, ok bool)
}

// SheetSink (port)
// Best-effort spreadsheet mirror; implementations log failures and return
// them only so callers can count, never to block the pipeline.
type SheetSink interface {
	AppendRow(ctx context.Context, sheet string, values []string) error
}

// Context aliases context.Context so adapters and usecases share the
// domain vocabulary without re-importing std context everywhere.
type Context = context.Context
