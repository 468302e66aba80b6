package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/resume-screener/internal/domain"
)

// Shape names used in validation errors.
const (
	ShapeResume   = "resume"
	ShapeInsights = "project_insights"
	ShapeExam     = "exam"
	ShapeGrade    = "answer_grade"
)

// GradeResult is the wire shape of one grading response.
type GradeResult struct {
	Score    int    `json:"score" validate:"gte=0,lte=10"`
	Feedback string `json:"feedback"`
}

// examShape is the wire shape of a generated exam.
type examShape struct {
	Questions []questionShape `json:"questions" validate:"required,min=1,dive"`
}

type questionShape struct {
	ID          string `json:"id" validate:"required"`
	Text        string `json:"text" validate:"required"`
	IdealAnswer string `json:"ideal_answer"`
}

// SchemaValidator parses cleaned model output against a declared shape.
// Unknown keys are rejected, missing list fields default to empty slices, and
// a known single-valued field given as a list of strings is joined with ", "
// (models sometimes return multiple phone numbers as an array).
type SchemaValidator struct {
	v       *validator.Validate
	cleaner *ResponseCleaner
}

// NewSchemaValidator creates a SchemaValidator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		v:       validator.New(),
		cleaner: NewResponseCleaner(),
	}
}

// ValidateResume parses raw model output into a normalized ResumeInfo.
func (s *SchemaValidator) ValidateResume(raw string) (domain.ResumeInfo, error) {
	var out domain.ResumeInfo
	if err := s.parse(ShapeResume, raw, &out); err != nil {
		return domain.ResumeInfo{}, err
	}
	fillEmptySlices(reflect.ValueOf(&out).Elem())
	return out, nil
}

// ValidateInsights parses raw model output into normalized ProjectInsights.
func (s *SchemaValidator) ValidateInsights(raw string) (domain.ProjectInsights, error) {
	var out domain.ProjectInsights
	if err := s.parse(ShapeInsights, raw, &out); err != nil {
		return domain.ProjectInsights{}, err
	}
	fillEmptySlices(reflect.ValueOf(&out).Elem())
	return out, nil
}

// ValidateExam parses raw model output into an Exam with exactly want
// questions carrying unique ids.
func (s *SchemaValidator) ValidateExam(raw string, want int) (domain.Exam, error) {
	var shape examShape
	if err := s.parse(ShapeExam, raw, &shape); err != nil {
		return domain.Exam{}, err
	}
	if err := s.v.Struct(shape); err != nil {
		return domain.Exam{}, &domain.SchemaValidationError{Shape: ShapeExam, Field: firstValidatorField(err), Detail: err.Error()}
	}
	if len(shape.Questions) != want {
		return domain.Exam{}, &domain.SchemaValidationError{
			Shape:  ShapeExam,
			Field:  "questions",
			Detail: fmt.Sprintf("expected %d questions, got %d", want, len(shape.Questions)),
		}
	}
	seen := make(map[string]struct{}, len(shape.Questions))
	exam := domain.Exam{Questions: make([]domain.Question, 0, len(shape.Questions))}
	for _, q := range shape.Questions {
		if _, dup := seen[q.ID]; dup {
			return domain.Exam{}, &domain.SchemaValidationError{Shape: ShapeExam, Field: "questions.id", Detail: "duplicate question id " + q.ID}
		}
		seen[q.ID] = struct{}{}
		exam.Questions = append(exam.Questions, domain.Question{ID: q.ID, Text: q.Text, IdealAnswer: q.IdealAnswer})
	}
	return exam, nil
}

// ValidateGrade parses raw model output into a bounded GradeResult.
func (s *SchemaValidator) ValidateGrade(raw string) (GradeResult, error) {
	var out GradeResult
	if err := s.parse(ShapeGrade, raw, &out); err != nil {
		return GradeResult{}, err
	}
	if err := s.v.Struct(out); err != nil {
		return GradeResult{}, &domain.SchemaValidationError{Shape: ShapeGrade, Field: firstValidatorField(err), Detail: err.Error()}
	}
	return out, nil
}

// parse cleans raw output, normalizes it against the target shape and decodes
// it strictly into dst.
func (s *SchemaValidator) parse(shape, raw string, dst any) error {
	cleaned := s.cleaner.CleanJSON(raw)
	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return &domain.SchemaValidationError{Shape: shape, Field: "", Detail: "invalid json: " + err.Error()}
	}
	t := reflect.TypeOf(dst).Elem()
	normalized, err := normalizeValue(shape, t, decoded, "")
	if err != nil {
		return err
	}
	b, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("op=schema.parse: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return &domain.SchemaValidationError{Shape: shape, Field: "", Detail: "type mismatch: " + err.Error()}
	}
	return nil
}

// normalizeValue walks a decoded JSON value against the target type, rejecting
// unknown keys and joining string-lists handed to scalar string fields.
func normalizeValue(shape string, t reflect.Type, v any, path string) (any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v == nil {
		return nil, nil
	}
	switch t.Kind() {
	case reflect.Struct:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, &domain.SchemaValidationError{Shape: shape, Field: path, Detail: "expected object"}
		}
		fields := jsonFields(t)
		out := make(map[string]any, len(m))
		for key, val := range m {
			ft, known := fields[key]
			if !known {
				return nil, &domain.SchemaValidationError{Shape: shape, Field: joinPath(path, key), Detail: "unknown field"}
			}
			nv, err := normalizeValue(shape, ft, val, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = nv
		}
		return out, nil
	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			return nil, &domain.SchemaValidationError{Shape: shape, Field: path, Detail: "expected array"}
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			nv, err := normalizeValue(shape, t.Elem(), item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil
	case reflect.String:
		if items, ok := v.([]any); ok {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				str, isStr := item.(string)
				if !isStr {
					return nil, &domain.SchemaValidationError{Shape: shape, Field: path, Detail: "expected string"}
				}
				parts = append(parts, str)
			}
			return strings.Join(parts, ", "), nil
		}
		return v, nil
	default:
		return v, nil
	}
}

// jsonFields maps json tag names to field types for a struct type.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	out := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		out[name] = f.Type
	}
	return out
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// fillEmptySlices replaces nil slices with empty ones, recursively, so every
// list field is present after validation.
func fillEmptySlices(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			f := rv.Field(i)
			if !f.CanSet() {
				continue
			}
			fillEmptySlices(f)
		}
	case reflect.Slice:
		if rv.IsNil() {
			rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
			return
		}
		for i := 0; i < rv.Len(); i++ {
			fillEmptySlices(rv.Index(i))
		}
	case reflect.Pointer:
		if !rv.IsNil() {
			fillEmptySlices(rv.Elem())
		}
	}
}

func firstValidatorField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return strings.ToLower(verrs[0].Field())
	}
	return ""
}
