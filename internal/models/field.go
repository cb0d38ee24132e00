package models

import (
	"encoding/json"
	"fmt"
)

// FieldType is the closed set of input types a field can take.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldDropdown FieldType = "dropdown"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldFile     FieldType = "file"
)

// FieldTypes lists every variant in display order.
var FieldTypes = []FieldType{FieldText, FieldNumber, FieldDate, FieldDropdown, FieldEmail, FieldTel, FieldFile}

// FieldTypeVisitor dispatches per variant. Adding a FieldType means adding a
// method here, which breaks every implementation until it handles the variant.
type FieldTypeVisitor[R any] interface {
	VisitText() R
	VisitNumber() R
	VisitDate() R
	VisitDropdown() R
	VisitEmail() R
	VisitTel() R
	VisitFile() R
}

// VisitFieldType calls the visitor method matching t. ok is false for unknown types.
func VisitFieldType[R any](t FieldType, v FieldTypeVisitor[R]) (result R, ok bool) {
	switch t {
	case FieldText:
		return v.VisitText(), true
	case FieldNumber:
		return v.VisitNumber(), true
	case FieldDate:
		return v.VisitDate(), true
	case FieldDropdown:
		return v.VisitDropdown(), true
	case FieldEmail:
		return v.VisitEmail(), true
	case FieldTel:
		return v.VisitTel(), true
	case FieldFile:
		return v.VisitFile(), true
	}
	return result, false
}

// Valid reports whether t is one of the known variants.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseFieldType validates a raw type name.
func ParseFieldType(raw string) (FieldType, error) {
	t := FieldType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown field type %q", raw)
	}
	return t, nil
}

// FieldDefinition describes one attribute of a student record.
type FieldDefinition struct {
	ID           string    `json:"id" yaml:"id"`
	Label        string    `json:"label" yaml:"label"`
	Key          string    `json:"key" yaml:"key"`
	Type         FieldType `json:"type" yaml:"type"`
	Required     bool      `json:"required" yaml:"required"`
	Options      []string  `json:"options" yaml:"options"`
	DefaultValue string    `json:"defaultValue" yaml:"defaultValue"`
	IsSystem     bool      `json:"isSystem,omitempty" yaml:"isSystem"`
}

// MarshalJSON always emits options as an array.
func (f FieldDefinition) MarshalJSON() ([]byte, error) {
	type alias FieldDefinition
	out := alias(f)
	if out.Options == nil {
		out.Options = []string{}
	}
	return json.Marshal(out)
}

// Clone returns a copy that shares no option storage with f.
func (f FieldDefinition) Clone() FieldDefinition {
	out := f
	out.Options = append(make([]string, 0, len(f.Options)), f.Options...)
	return out
}

// FieldSchema is the persisted pair of field collections.
type FieldSchema struct {
	DefaultFields []FieldDefinition `json:"defaultFields"`
	CustomFields  []FieldDefinition `json:"customFields"`
}

// All returns system fields followed by custom fields.
func (s FieldSchema) All() []FieldDefinition {
	all := make([]FieldDefinition, 0, len(s.DefaultFields)+len(s.CustomFields))
	all = append(all, s.DefaultFields...)
	return append(all, s.CustomFields...)
}

// CloneFields deep copies a field slice, never returning nil.
func CloneFields(fields []FieldDefinition) []FieldDefinition {
	out := make([]FieldDefinition, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Clone())
	}
	return out
}

// System field identifiers and keys.
const (
	SystemNameID  = "sys-1"
	SystemEmailID = "sys-2"
	SystemPhoneID = "sys-3"

	KeyName  = "name"
	KeyEmail = "email"
	KeyPhone = "phone"
)

// SystemFields returns a fresh copy of the fixed fields every schema carries.
func SystemFields() []FieldDefinition {
	return []FieldDefinition{
		{ID: SystemNameID, Label: "Full Name", Key: KeyName, Type: FieldText, Required: true, Options: []string{}, IsSystem: true},
		{ID: SystemEmailID, Label: "Email Address", Key: KeyEmail, Type: FieldEmail, Required: true, Options: []string{}, IsSystem: true},
		{ID: SystemPhoneID, Label: "Phone Number", Key: KeyPhone, Type: FieldTel, Required: true, Options: []string{}, IsSystem: true},
	}
}
