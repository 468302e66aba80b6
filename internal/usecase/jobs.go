package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// JobService manages HR job postings.
type JobService struct {
	Repo domain.JobRepository
}

// NewJobService constructs a JobService with the given repo.
func NewJobService(r domain.JobRepository) JobService { return JobService{Repo: r} }

// Create validates and stores a new posting, returning its id.
func (s JobService) Create(ctx domain.Context, company, title, description string) (string, error) {
	company = strings.TrimSpace(company)
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if company == "" || title == "" || description == "" {
		return "", fmt.Errorf("%w: company, title and description required", domain.ErrInvalidArgument)
	}
	return s.Repo.Create(ctx, domain.Job{
		Company:     company,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	})
}

// Get loads one posting.
func (s JobService) Get(ctx domain.Context, id string) (domain.Job, error) {
	return s.Repo.Get(ctx, id)
}

// List returns all postings.
func (s JobService) List(ctx domain.Context) ([]domain.Job, error) {
	return s.Repo.List(ctx)
}
