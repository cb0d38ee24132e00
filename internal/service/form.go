package service

import (
	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

// FormMode is the state of a Form.
type FormMode string

const (
	FormClosed  FormMode = "closed"
	FormAdding  FormMode = "adding"
	FormEditing FormMode = "editing"
	FormViewing FormMode = "viewing"
)

// Form is one student form instance: Closed -> Adding|Editing|Viewing -> Closed.
type Form struct {
	engine   *FormEngine
	schema   []models.FieldDefinition
	mode     FormMode
	recordID int64
	values   map[string]string
}

// NewForm creates a closed form over a schema snapshot.
func NewForm(engine *FormEngine, schema []models.FieldDefinition) *Form {
	return &Form{engine: engine, schema: models.CloneFields(schema), mode: FormClosed}
}

// Mode returns the current state.
func (f *Form) Mode() FormMode { return f.mode }

// RecordID is the record being edited or viewed, 0 when adding.
func (f *Form) RecordID() int64 { return f.recordID }

// OpenAdding starts a blank form. Admins only.
func (f *Form) OpenAdding(session models.Session) error {
	if err := f.requireClosed(); err != nil {
		return err
	}
	if !session.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can add students")
	}
	f.mode = FormAdding
	f.recordID = 0
	f.values = f.engine.Initialize(f.schema)
	return nil
}

// OpenEditing loads record for modification. Admins only.
func (f *Form) OpenEditing(session models.Session, record models.StudentRecord) error {
	if err := f.requireClosed(); err != nil {
		return err
	}
	if !session.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can edit students")
	}
	f.mode = FormEditing
	f.recordID = record.ID
	f.values = f.engine.Prefill(f.schema, record.Values)
	return nil
}

// OpenViewing loads record read-only. Students may only view their own record.
func (f *Form) OpenViewing(session models.Session, record models.StudentRecord) error {
	if err := f.requireClosed(); err != nil {
		return err
	}
	if !session.IsAdmin() && record.Value(models.KeyEmail) != session.Email {
		return appErrors.Clone(appErrors.ErrForbidden, "students can only view their own record")
	}
	f.mode = FormViewing
	f.recordID = record.ID
	f.values = f.engine.Prefill(f.schema, record.Values)
	return nil
}

// Set changes one value. Viewing and closed forms reject edits.
func (f *Form) Set(key, value string) error {
	if err := f.requireEditable(); err != nil {
		return err
	}
	f.values[key] = value
	return nil
}

// SetAll applies every entry of values.
func (f *Form) SetAll(values map[string]string) error {
	if err := f.requireEditable(); err != nil {
		return err
	}
	for k, v := range values {
		f.values[k] = v
	}
	return nil
}

// Values returns a copy of the current values.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Validate checks the current values without leaving the current state.
func (f *Form) Validate() (ValidationResult, error) {
	if err := f.requireEditable(); err != nil {
		return ValidationResult{}, err
	}
	return f.engine.Validate(f.schema, f.values), nil
}

// Submit validates the values. On success it returns the normalized values
// and closes the form; on failure the form stays open with its edits.
func (f *Form) Submit() (map[string]string, ValidationResult, error) {
	result, err := f.Validate()
	if err != nil {
		return nil, result, err
	}
	if !result.IsValid {
		return nil, result, nil
	}
	values := f.engine.Normalize(f.schema, f.values)
	f.Close()
	return values, result, nil
}

// Close discards unsaved edits.
func (f *Form) Close() {
	f.mode = FormClosed
	f.recordID = 0
	f.values = nil
}

func (f *Form) requireClosed() error {
	if f.mode != FormClosed {
		return appErrors.Clone(appErrors.ErrValidation, "form is already open")
	}
	return nil
}

func (f *Form) requireEditable() error {
	if f.mode != FormAdding && f.mode != FormEditing {
		return appErrors.Clone(appErrors.ErrValidation, "form is not editable in "+string(f.mode)+" mode")
	}
	return nil
}
