package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// ApplicationRepo persists applications with their resume, evaluation, exam
// and submission documents as JSONB columns.
type ApplicationRepo struct{ Pool PgxPool }

// NewApplicationRepo constructs an ApplicationRepo with the given pool.
func NewApplicationRepo(p PgxPool) *ApplicationRepo { return &ApplicationRepo{Pool: p} }

// Create inserts a new application and returns its id.
func (r *ApplicationRepo) Create(ctx domain.Context, a domain.Application) (string, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.Create")
	defer span.End()
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	resume, evaluation, exam, submission, err := marshalDocs(a)
	if err != nil {
		return "", fmt.Errorf("op=application.create: %w", err)
	}
	now := time.Now().UTC()
	q := `INSERT INTO applications (id, job_id, status, resume, evaluation, exam, submission, exam_taken, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err = r.Pool.Exec(ctx, q, id, a.JobID, a.Status, resume, evaluation, exam, submission, a.ExamTaken, now, now)
	if err != nil {
		return "", fmt.Errorf("op=application.create: %w", err)
	}
	return id, nil
}

// Get loads an application by id.
func (r *ApplicationRepo) Get(ctx domain.Context, id string) (domain.Application, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.Get")
	defer span.End()
	q := `SELECT id, job_id, status, resume, evaluation, exam, submission, exam_taken, created_at, updated_at
	      FROM applications WHERE id=$1`
	return r.scanOne(r.Pool.QueryRow(ctx, q, id), "application.get")
}

// ListByJob returns a job's applications, newest first.
func (r *ApplicationRepo) ListByJob(ctx domain.Context, jobID string) ([]domain.Application, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.ListByJob")
	defer span.End()
	q := `SELECT id, job_id, status, resume, evaluation, exam, submission, exam_taken, created_at, updated_at
	      FROM applications WHERE job_id=$1 ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q, jobID)
	if err != nil {
		return nil, fmt.Errorf("op=application.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Application
	for rows.Next() {
		a, err := r.scanOne(rows, "application.list")
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=application.list: %w", err)
	}
	return out, nil
}

// Update persists the mutable fields of an application.
func (r *ApplicationRepo) Update(ctx domain.Context, a domain.Application) error {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.Update")
	defer span.End()
	resume, evaluation, exam, submission, err := marshalDocs(a)
	if err != nil {
		return fmt.Errorf("op=application.update: %w", err)
	}
	q := `UPDATE applications SET status=$2, resume=$3, evaluation=$4, exam=$5, submission=$6, updated_at=$7 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, a.ID, a.Status, resume, evaluation, exam, submission, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=application.update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=application.update: %w", domain.ErrNotFound)
	}
	return nil
}

// MarkExamTaken stores the graded submission and flips exam_taken, guarded so
// only the first writer succeeds. The WHERE clause makes the check-then-set
// atomic; a concurrent second submission sees zero rows affected.
func (r *ApplicationRepo) MarkExamTaken(ctx domain.Context, id string, sub domain.ExamSubmission) error {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.MarkExamTaken")
	defer span.End()
	b, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("op=application.mark_exam_taken: %w", err)
	}
	q := `UPDATE applications SET submission=$2, exam_taken=TRUE, status=$3, updated_at=$4
	      WHERE id=$1 AND exam_taken=FALSE`
	tag, err := r.Pool.Exec(ctx, q, id, b, domain.AppExamTaken, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=application.mark_exam_taken: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either absent or already taken; disambiguate for the caller.
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("op=application.mark_exam_taken: %w", domain.ErrExamTaken)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ApplicationRepo) scanOne(row rowScanner, op string) (domain.Application, error) {
	var a domain.Application
	var resume, evaluation []byte
	var exam, submission []byte
	if err := row.Scan(&a.ID, &a.JobID, &a.Status, &resume, &evaluation, &exam, &submission, &a.ExamTaken, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Application{}, fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
		}
		return domain.Application{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if err := json.Unmarshal(resume, &a.Resume); err != nil {
		return domain.Application{}, fmt.Errorf("op=%s: resume: %w", op, err)
	}
	if err := json.Unmarshal(evaluation, &a.Evaluation); err != nil {
		return domain.Application{}, fmt.Errorf("op=%s: evaluation: %w", op, err)
	}
	if len(exam) > 0 {
		a.Exam = &domain.Exam{}
		if err := json.Unmarshal(exam, a.Exam); err != nil {
			return domain.Application{}, fmt.Errorf("op=%s: exam: %w", op, err)
		}
	}
	if len(submission) > 0 {
		a.Submission = &domain.ExamSubmission{}
		if err := json.Unmarshal(submission, a.Submission); err != nil {
			return domain.Application{}, fmt.Errorf("op=%s: submission: %w", op, err)
		}
	}
	return a, nil
}

func marshalDocs(a domain.Application) (resume, evaluation, exam, submission []byte, err error) {
	if resume, err = json.Marshal(a.Resume); err != nil {
		return nil, nil, nil, nil, err
	}
	if evaluation, err = json.Marshal(a.Evaluation); err != nil {
		return nil, nil, nil, nil, err
	}
	if a.Exam != nil {
		if exam, err = json.Marshal(a.Exam); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	if a.Submission != nil {
		if submission, err = json.Marshal(a.Submission); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return resume, evaluation, exam, submission, nil
}
