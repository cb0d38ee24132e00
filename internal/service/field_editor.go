package service

import (
	"fmt"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

// FieldUpdate is a partial update; nil members are left untouched.
type FieldUpdate struct {
	Label        *string           `json:"label,omitempty"`
	Type         *models.FieldType `json:"type,omitempty"`
	Required     *bool             `json:"required,omitempty"`
	Options      *[]string         `json:"options,omitempty"`
	DefaultValue *string           `json:"defaultValue,omitempty"`
}

// Mutation operations understood by FieldEditor.Apply.
const (
	MutationAddField     = "add_field"
	MutationRemoveField  = "remove_field"
	MutationUpdateField  = "update_field"
	MutationAddOption    = "add_option"
	MutationUpdateOption = "update_option"
	MutationRemoveOption = "remove_option"
)

// FieldMutation is one step of an editing session.
type FieldMutation struct {
	Op      string       `json:"op" validate:"required,oneof=add_field remove_field update_field add_option update_option remove_option"`
	FieldID string       `json:"fieldId"`
	Index   int          `json:"index"`
	Value   string       `json:"value"`
	Update  *FieldUpdate `json:"update,omitempty"`
}

// FieldEditor holds an unsaved draft of the custom fields. It never touches storage.
type FieldEditor struct {
	fields []models.FieldDefinition
	newID  func() string
}

// NewFieldEditor starts a draft from a snapshot of custom fields.
func NewFieldEditor(fields []models.FieldDefinition, newID func() string) *FieldEditor {
	if newID == nil {
		newID = NewFieldID
	}
	return &FieldEditor{fields: models.CloneFields(fields), newID: newID}
}

// Fields returns a copy of the current draft.
func (e *FieldEditor) Fields() []models.FieldDefinition {
	return models.CloneFields(e.fields)
}

// AddField appends a blank field to the draft. An empty id gets a fresh one.
func (e *FieldEditor) AddField(id string) models.FieldDefinition {
	if id == "" {
		id = e.newID()
	}
	field := BlankField(id)
	e.fields = append(e.fields, field)
	return field.Clone()
}

// RemoveField drops a field from the draft.
func (e *FieldEditor) RemoveField(id string) error {
	idx, err := e.find(id)
	if err != nil {
		return err
	}
	e.fields = append(e.fields[:idx], e.fields[idx+1:]...)
	return nil
}

// UpdateField merges the non-nil members of update into the field. A label
// change recomputes the key; switching to a type without options clears
// options and default value.
func (e *FieldEditor) UpdateField(id string, update FieldUpdate) (models.FieldDefinition, error) {
	idx, err := e.find(id)
	if err != nil {
		return models.FieldDefinition{}, err
	}
	if update.Type != nil && !update.Type.Valid() {
		return models.FieldDefinition{}, appErrors.Validation(fmt.Sprintf("unknown field type %q", *update.Type), map[string]string{"type": "unsupported field type"})
	}

	field := e.fields[idx]
	if update.Label != nil {
		field.Label = *update.Label
		field.Key = DeriveKey(*update.Label)
	}
	if update.Required != nil {
		field.Required = *update.Required
	}
	if update.Options != nil {
		field.Options = append([]string{}, (*update.Options)...)
	}
	if update.DefaultValue != nil {
		field.DefaultValue = *update.DefaultValue
	}
	if update.Type != nil {
		field.Type = *update.Type
		if !supportsOptions(field.Type) {
			field.Options = []string{}
			field.DefaultValue = ""
		}
	}
	e.fields[idx] = field
	return field.Clone(), nil
}

// AddOption appends an empty option.
func (e *FieldEditor) AddOption(id string) error {
	idx, err := e.find(id)
	if err != nil {
		return err
	}
	e.fields[idx].Options = append(e.fields[idx].Options, "")
	return nil
}

// UpdateOption replaces the option at index.
func (e *FieldEditor) UpdateOption(id string, index int, value string) error {
	idx, err := e.findOption(id, index)
	if err != nil {
		return err
	}
	e.fields[idx].Options[index] = value
	return nil
}

// RemoveOption deletes the option at index. A default pointing at the removed
// option is cleared so it cannot come back.
func (e *FieldEditor) RemoveOption(id string, index int) error {
	idx, err := e.findOption(id, index)
	if err != nil {
		return err
	}
	field := &e.fields[idx]
	removed := field.Options[index]
	options := make([]string, 0, len(field.Options)-1)
	options = append(options, field.Options[:index]...)
	field.Options = append(options, field.Options[index+1:]...)
	if field.DefaultValue == removed && !containsOption(field.Options, removed) {
		field.DefaultValue = ""
	}
	return nil
}

// Apply replays mutations in order and stops at the first failure, reporting
// the step that failed.
func (e *FieldEditor) Apply(mutations []FieldMutation) error {
	for i, m := range mutations {
		if err := e.apply(m); err != nil {
			appErr := appErrors.FromError(err)
			clone := appErrors.Clone(appErr, fmt.Sprintf("mutation %d (%s): %s", i, m.Op, appErr.Message))
			return clone
		}
	}
	return nil
}

func (e *FieldEditor) apply(m FieldMutation) error {
	switch m.Op {
	case MutationAddField:
		e.AddField(m.FieldID)
		return nil
	case MutationRemoveField:
		return e.RemoveField(m.FieldID)
	case MutationUpdateField:
		if m.Update == nil {
			return appErrors.Validation("update payload required", map[string]string{"update": "required"})
		}
		_, err := e.UpdateField(m.FieldID, *m.Update)
		return err
	case MutationAddOption:
		return e.AddOption(m.FieldID)
	case MutationUpdateOption:
		return e.UpdateOption(m.FieldID, m.Index, m.Value)
	case MutationRemoveOption:
		return e.RemoveOption(m.FieldID, m.Index)
	default:
		return appErrors.Validation(fmt.Sprintf("unknown operation %q", m.Op), map[string]string{"op": "unsupported operation"})
	}
}

func (e *FieldEditor) find(id string) (int, error) {
	for i := range e.fields {
		if e.fields[i].ID == id {
			return i, nil
		}
	}
	return -1, appErrors.Clone(appErrors.ErrNotFound, "Field not found")
}

func (e *FieldEditor) findOption(id string, index int) (int, error) {
	idx, err := e.find(id)
	if err != nil {
		return -1, err
	}
	if index < 0 || index >= len(e.fields[idx].Options) {
		return -1, appErrors.Validation(fmt.Sprintf("option index %d out of range", index), map[string]string{"index": "no option at this position"})
	}
	return idx, nil
}

func containsOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
