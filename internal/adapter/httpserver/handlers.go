package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/resume-screener/internal/config"
	"github.com/fairyhunter13/resume-screener/internal/domain"
	"github.com/fairyhunter13/resume-screener/internal/usecase"
	"github.com/fairyhunter13/resume-screener/pkg/textx"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg       config.Config
	Jobs      usecase.JobService
	Pipeline  *usecase.ApplicationPipeline
	Apps      domain.ApplicationRepository
	Extractor domain.TextExtractor
	DBCheck   func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, jobs usecase.JobService, pipeline *usecase.ApplicationPipeline, apps domain.ApplicationRepository, extractor domain.TextExtractor, dbCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Jobs: jobs, Pipeline: pipeline, Apps: apps, Extractor: extractor, DBCheck: dbCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// allowedExt enforces an allowlist for resume uploads: .txt, .pdf, .docx
func allowedExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".pdf") || strings.HasSuffix(n, ".docx")
}

func allowedMIMEFor(m, filename string) bool {
	m = strings.ToLower(m)
	if strings.HasSuffix(strings.ToLower(filename), ".txt") && strings.HasPrefix(m, "text/") {
		return true
	}
	if strings.HasPrefix(m, "text/plain") {
		return true
	}
	return m == "application/pdf" || m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// applicationView is the candidate-facing projection of an application.
// Reference answers for exam questions are never exposed over the API.
type applicationView struct {
	ID         string                   `json:"id"`
	JobID      string                   `json:"job_id"`
	Status     domain.ApplicationStatus `json:"status"`
	Resume     domain.ResumeInfo        `json:"resume"`
	Evaluation domain.EvaluationResult  `json:"evaluation"`
	Exam       []questionView           `json:"exam,omitempty"`
	Submission *domain.ExamSubmission   `json:"submission,omitempty"`
	ExamTaken  bool                     `json:"exam_taken"`
}

type questionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func viewOf(a domain.Application) applicationView {
	v := applicationView{
		ID:         a.ID,
		JobID:      a.JobID,
		Status:     a.Status,
		Resume:     a.Resume,
		Evaluation: a.Evaluation,
		Submission: a.Submission,
		ExamTaken:  a.ExamTaken,
	}
	if a.Exam != nil {
		for _, q := range a.Exam.Questions {
			v.Exam = append(v.Exam, questionView{ID: q.ID, Text: q.Text})
		}
	}
	return v
}

// CreateJobHandler creates a job posting.
func (s *Server) CreateJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Company     string `json:"company" validate:"required,max=200"`
			Title       string `json:"title" validate:"required,max=200"`
			Description string `json:"description" validate:"required,max=10000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			if ve, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}
		id, err := s.Jobs.Create(r.Context(), req.Company, req.Title, req.Description)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// ListJobsHandler returns all job postings.
func (s *Server) ListJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := s.Jobs.List(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if jobs == nil {
			jobs = []domain.Job{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
	}
}

// ApplyHandler accepts a multipart resume upload and runs the screening
// pipeline synchronously. The response carries the evaluation outcome and,
// when the candidate is eligible, the generated exam questions.
func (s *Server) ApplyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "id")
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code: "INVALID_ARGUMENT", Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("resume")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume file required", domain.ErrInvalidArgument), map[string]string{"field": "resume"})
			return
		}
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if !allowedExt(header.Filename) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code: "INVALID_ARGUMENT", Message: "unsupported media type (extension)",
				Details: map[string]any{"filename": header.Filename},
			}})
			return
		}
		mt := mimetype.Detect(data)
		if !allowedMIMEFor(mt.String(), header.Filename) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code: "INVALID_ARGUMENT", Message: "unsupported media type (content)",
				Details: map[string]any{"mime": mt.String(), "filename": header.Filename},
			}})
			return
		}

		text, err := s.extractResumeText(r.Context(), header.Filename, data)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume extract: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if strings.TrimSpace(text) == "" {
			writeError(w, r, fmt.Errorf("%w: resume has no extractable text", domain.ErrInvalidArgument), nil)
			return
		}

		app, err := s.Pipeline.Submit(r.Context(), jobID, text)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(app))
	}
}

// extractResumeText routes binary formats through the external extractor and
// treats .txt as sanitized plain text.
func (s *Server) extractResumeText(ctx context.Context, fileName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".pdf" || ext == ".docx" {
		if s.Extractor == nil {
			return "", fmt.Errorf("%s extraction unavailable", strings.TrimPrefix(ext, "."))
		}
		return s.Extractor.Extract(ctx, fileName, data)
	}
	return textx.SanitizeText(string(data)), nil
}

// GetApplicationHandler returns the candidate-facing application state.
func (s *Server) GetApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := s.Apps.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(app))
	}
}

// SubmitExamHandler grades the submitted exam answers.
func (s *Server) SubmitExamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Answers map[string]string `json:"answers" validate:"required,min=1"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: answers required", domain.ErrInvalidArgument), nil)
			return
		}
		sub, err := s.Pipeline.SubmitExam(r.Context(), chi.URLParam(r, "id"), req.Answers)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// ReadyzHandler reports readiness of downstream dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DBCheck != nil {
			if err := s.DBCheck(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
