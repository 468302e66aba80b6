package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-screener/internal/domain"
)

func TestJobRepo_CreateGetList(t *testing.T) {
	t.Parallel()
	r := NewJobRepo()
	ctx := context.Background()

	id, err := r.Create(ctx, domain.Job{Company: "Acme", Title: "Backend"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", job.Company)
	assert.False(t, job.CreatedAt.IsZero())

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	jobs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestApplicationRepo_Lifecycle(t *testing.T) {
	t.Parallel()
	r := NewApplicationRepo()
	ctx := context.Background()

	id, err := r.Create(ctx, domain.Application{JobID: "job-1", Status: domain.AppEligible})
	require.NoError(t, err)

	a, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "job-1", a.JobID)

	a.Status = domain.AppEligibleExamFail
	require.NoError(t, r.Update(ctx, a))
	a, err = r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.AppEligibleExamFail, a.Status)

	err = r.Update(ctx, domain.Application{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := r.ListByJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestApplicationRepo_MarkExamTakenFirstWriterWins(t *testing.T) {
	t.Parallel()
	r := NewApplicationRepo()
	ctx := context.Background()
	id, err := r.Create(ctx, domain.Application{JobID: "job-1", Status: domain.AppEligible})
	require.NoError(t, err)

	require.NoError(t, r.MarkExamTaken(ctx, id, domain.ExamSubmission{Total: 21}))
	err = r.MarkExamTaken(ctx, id, domain.ExamSubmission{Total: 30})
	assert.ErrorIs(t, err, domain.ErrExamTaken)

	a, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.ExamTaken)
	assert.Equal(t, domain.AppExamTaken, a.Status)
	require.NotNil(t, a.Submission)
	assert.Equal(t, 21, a.Submission.Total)
}

func TestApplicationRepo_MarkExamTakenConcurrent(t *testing.T) {
	t.Parallel()
	r := NewApplicationRepo()
	ctx := context.Background()
	id, err := r.Create(ctx, domain.Application{JobID: "job-1", Status: domain.AppEligible})
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.MarkExamTaken(ctx, id, domain.ExamSubmission{Total: i})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrExamTaken)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestApplicationRepo_MarkExamTakenMissing(t *testing.T) {
	t.Parallel()
	r := NewApplicationRepo()
	err := r.MarkExamTaken(context.Background(), "missing", domain.ExamSubmission{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
