package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type studentStore interface {
	Get(ctx context.Context, id int64) (*models.StudentRecord, error)
	Create(ctx context.Context, values map[string]string) (*models.StudentRecord, error)
	Update(ctx context.Context, id int64, values map[string]string) (*models.StudentRecord, error)
}

type submissionRecorder interface {
	RecordSubmission(valid bool)
}

// SubmitResult carries either the stored record or the validation outcome.
type SubmitResult struct {
	Record     *models.StudentRecord `json:"record,omitempty"`
	Validation ValidationResult      `json:"validation"`
}

// FormView is a form opened for display.
type FormView struct {
	Mode     FormMode                 `json:"mode"`
	RecordID int64                    `json:"recordId,omitempty"`
	Fields   []models.FieldDefinition `json:"fields"`
	Values   map[string]string        `json:"values"`
}

// FormService drives student forms against the live schema.
type FormService struct {
	schema   schemaProvider
	students studentStore
	engine   *FormEngine
	logger   *zap.Logger
	metrics  submissionRecorder
}

// NewFormService constructs the service.
func NewFormService(schema schemaProvider, students studentStore, engine *FormEngine, logger *zap.Logger) *FormService {
	if engine == nil {
		engine = NewFormEngine(false)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{schema: schema, students: students, engine: engine, logger: logger}
}

// SetMetrics attaches a submission counter.
func (s *FormService) SetMetrics(m submissionRecorder) {
	s.metrics = m
}

// New opens an adding form and returns its initial state.
func (s *FormService) New(ctx context.Context, session models.Session) (*FormView, error) {
	schema, err := s.schema.Schema(ctx)
	if err != nil {
		return nil, err
	}
	form := NewForm(s.engine, schema)
	if err := form.OpenAdding(session); err != nil {
		return nil, err
	}
	return &FormView{Mode: form.Mode(), Fields: schema, Values: form.Values()}, nil
}

// Open loads a record for viewing or editing.
func (s *FormService) Open(ctx context.Context, session models.Session, mode FormMode, id int64) (*FormView, error) {
	schema, err := s.schema.Schema(ctx)
	if err != nil {
		return nil, err
	}
	record, err := s.students.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	form := NewForm(s.engine, schema)
	switch mode {
	case FormEditing:
		err = form.OpenEditing(session, *record)
	case FormViewing:
		err = form.OpenViewing(session, *record)
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "mode must be editing or viewing")
	}
	if err != nil {
		return nil, err
	}
	return &FormView{Mode: form.Mode(), RecordID: form.RecordID(), Fields: schema, Values: form.Values()}, nil
}

// Validate checks values against the current schema without storing anything.
func (s *FormService) Validate(ctx context.Context, values map[string]string) (ValidationResult, error) {
	schema, err := s.schema.Schema(ctx)
	if err != nil {
		return ValidationResult{}, err
	}
	return s.engine.Validate(schema, values), nil
}

// Submit validates values and creates (FormAdding) or updates (FormEditing)
// the record. An invalid submission returns the result together with a
// validation error naming the first invalid key.
func (s *FormService) Submit(ctx context.Context, session models.Session, mode FormMode, id int64, values map[string]string) (*SubmitResult, error) {
	schema, err := s.schema.Schema(ctx)
	if err != nil {
		return nil, err
	}

	form := NewForm(s.engine, schema)
	switch mode {
	case FormAdding:
		err = form.OpenAdding(session)
	case FormEditing:
		if !session.IsAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can edit students")
		}
		var record *models.StudentRecord
		record, err = s.students.Get(ctx, id)
		if err == nil {
			err = form.OpenEditing(session, *record)
		}
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "form mode does not accept submissions")
	}
	if err != nil {
		return nil, err
	}
	if err := form.SetAll(values); err != nil {
		return nil, err
	}

	normalized, result, err := form.Submit()
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordSubmission(result.IsValid)
	}
	if !result.IsValid {
		s.logger.Debug("student form rejected", zap.String("mode", string(mode)), zap.String("first_invalid", result.FirstInvalid))
		verr := appErrors.Validation(result.Errors[result.FirstInvalid], result.Errors)
		verr.Field = result.FirstInvalid
		return &SubmitResult{Validation: result}, verr
	}

	var record *models.StudentRecord
	if mode == FormAdding {
		record, err = s.students.Create(ctx, normalized)
	} else {
		record, err = s.students.Update(ctx, id, normalized)
	}
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Record: record, Validation: result}, nil
}
