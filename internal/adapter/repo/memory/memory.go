// Package memory provides in-memory repositories for tests and for running
// the server without a database. Writes are serialized per store, and the
// exam-taken guard has the same first-writer-wins semantics as the SQL repo.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// JobRepo is an in-memory domain.JobRepository.
type JobRepo struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

// NewJobRepo constructs an empty JobRepo.
func NewJobRepo() *JobRepo {
	return &JobRepo{jobs: make(map[string]domain.Job)}
}

// Create stores a job and returns its id.
func (r *JobRepo) Create(_ context.Context, j domain.Job) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	r.jobs[j.ID] = j
	return j.ID, nil
}

// Get loads a job by id.
func (r *JobRepo) Get(_ context.Context, id string) (domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
	}
	return j, nil
}

// List returns all jobs, newest first.
func (r *JobRepo) List(_ context.Context) ([]domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

// ApplicationRepo is an in-memory domain.ApplicationRepository.
type ApplicationRepo struct {
	mu   sync.Mutex
	apps map[string]domain.Application
}

// NewApplicationRepo constructs an empty ApplicationRepo.
func NewApplicationRepo() *ApplicationRepo {
	return &ApplicationRepo{apps: make(map[string]domain.Application)}
}

// Create stores an application and returns its id.
func (r *ApplicationRepo) Create(_ context.Context, a domain.Application) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	r.apps[a.ID] = a
	return a.ID, nil
}

// Get loads an application by id.
func (r *ApplicationRepo) Get(_ context.Context, id string) (domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return domain.Application{}, fmt.Errorf("op=application.get: %w", domain.ErrNotFound)
	}
	return a, nil
}

// ListByJob returns a job's applications, newest first.
func (r *ApplicationRepo) ListByJob(_ context.Context, jobID string) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Application
	for _, a := range r.apps {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

// Update replaces a stored application.
func (r *ApplicationRepo) Update(_ context.Context, a domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[a.ID]; !ok {
		return fmt.Errorf("op=application.update: %w", domain.ErrNotFound)
	}
	a.UpdatedAt = time.Now().UTC()
	r.apps[a.ID] = a
	return nil
}

// MarkExamTaken stores the submission and flips exam_taken under the store
// lock; the first writer wins, later ones get ErrExamTaken.
func (r *ApplicationRepo) MarkExamTaken(_ context.Context, id string, sub domain.ExamSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return fmt.Errorf("op=application.mark_exam_taken: %w", domain.ErrNotFound)
	}
	if a.ExamTaken {
		return fmt.Errorf("op=application.mark_exam_taken: %w", domain.ErrExamTaken)
	}
	a.ExamTaken = true
	a.Submission = &sub
	a.Status = domain.AppExamTaken
	a.UpdatedAt = time.Now().UTC()
	r.apps[id] = a
	return nil
}
