package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-screener/internal/adapter/ai"
	"github.com/fairyhunter13/resume-screener/internal/adapter/ai/stub"
	"github.com/fairyhunter13/resume-screener/internal/adapter/repo/memory"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// newStubPipeline wires the full pipeline over in-memory repos and the
// deterministic stub model.
func newStubPipeline(t *testing.T, sheet domain.SheetSink) (*ApplicationPipeline, *memory.JobRepo, *memory.ApplicationRepo, string) {
	t.Helper()
	jobs := memory.NewJobRepo()
	apps := memory.NewApplicationRepo()
	exec := newFastExec(stub.New())
	schema := ai.NewSchemaValidator()
	rubric := testRubric()

	extract := NewExtractionService(exec, schema, nil, 0, 256)
	insights := NewInsightService(exec, schema, &staticFetcher{}, nil, 0, 256)
	evaluate := NewEvaluationService(exec, ai.NewResponseCleaner(), rubric, 256)
	narrate := NewNarrativeService(exec, 256)
	exam := NewExamService(exec, schema, apps, nil, rubric.QuestionCount, 256)
	p := NewApplicationPipeline(jobs, apps, extract, insights, evaluate, narrate, exam, sheet)

	jobID, err := jobs.Create(context.Background(), domain.Job{
		Company:     "Acme",
		Title:       "Backend Engineer",
		Description: "Build Go services against PostgreSQL.",
	})
	require.NoError(t, err)
	return p, jobs, apps, jobID
}

func TestSubmit_FullEligibleFlow(t *testing.T) {
	t.Parallel()
	sheet := newRecordingSheet()
	p, _, apps, jobID := newStubPipeline(t, sheet)

	a, err := p.Submit(context.Background(), jobID, "Dev Candidate\nBackend engineer, Go and PostgreSQL.")
	require.NoError(t, err)

	assert.Equal(t, "Dev Candidate", a.Resume.Name)
	assert.Equal(t, "dev@example.com", a.Resume.Email)
	assert.Equal(t, 82, a.Evaluation.Score)
	assert.Equal(t, domain.DecisionEligible, a.Evaluation.Decision)
	assert.NotEmpty(t, a.Evaluation.Reason)
	assert.Equal(t, domain.AppEligible, a.Status)
	require.NotNil(t, a.Exam)
	assert.Len(t, a.Exam.Questions, 3)
	assert.False(t, a.ExamTaken)

	stored, err := apps.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Status, stored.Status)

	rows := sheet.rowsFor("applications")
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0][0])
	assert.Equal(t, "Acme", rows[0][1])
	assert.Equal(t, "82", rows[0][5])
}

func TestSubmit_UnknownJob(t *testing.T) {
	t.Parallel()
	p, _, _, _ := newStubPipeline(t, nil)
	_, err := p.Submit(context.Background(), "no-such-job", "resume text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmit_EmptyResumeAborts(t *testing.T) {
	t.Parallel()
	p, _, apps, jobID := newStubPipeline(t, nil)
	_, err := p.Submit(context.Background(), jobID, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	list, err := apps.ListByJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmit_SheetFailureDoesNotPropagate(t *testing.T) {
	t.Parallel()
	sheet := newRecordingSheet()
	sheet.err = assert.AnError
	p, _, _, jobID := newStubPipeline(t, sheet)
	a, err := p.Submit(context.Background(), jobID, "resume text")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
}

func TestSubmitExam_FullFlow(t *testing.T) {
	t.Parallel()
	sheet := newRecordingSheet()
	p, _, apps, jobID := newStubPipeline(t, sheet)

	a, err := p.Submit(context.Background(), jobID, "Dev Candidate resume")
	require.NoError(t, err)
	require.NotNil(t, a.Exam)

	answers := map[string]string{}
	for _, q := range a.Exam.Questions {
		answers[q.ID] = "A reasonable answer to " + q.ID
	}
	sub, err := p.SubmitExam(context.Background(), a.ID, answers)
	require.NoError(t, err)
	require.Len(t, sub.Grades, 3)
	// Stub grader scores every answer 7.
	assert.Equal(t, 21, sub.Total)

	stored, err := apps.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, stored.ExamTaken)
	assert.Equal(t, domain.AppExamTaken, stored.Status)

	rows := sheet.rowsFor("exam_results")
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0][0])
	assert.Equal(t, "21", rows[0][3])
}

func TestSubmitExam_SecondSubmissionRejected(t *testing.T) {
	t.Parallel()
	p, _, _, jobID := newStubPipeline(t, nil)
	a, err := p.Submit(context.Background(), jobID, "Dev Candidate resume")
	require.NoError(t, err)

	answers := map[string]string{"q1": "a", "q2": "b", "q3": "c"}
	_, err = p.SubmitExam(context.Background(), a.ID, answers)
	require.NoError(t, err)

	_, err = p.SubmitExam(context.Background(), a.ID, answers)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExamTaken)
}

func TestSubmitExam_UnknownApplication(t *testing.T) {
	t.Parallel()
	p, _, _, _ := newStubPipeline(t, nil)
	_, err := p.SubmitExam(context.Background(), "missing", map[string]string{"q1": "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
