package service

import (
	"github.com/noah-isme/sma-roster-api/internal/models"
)

// ValidationResult is the outcome of checking form values against a schema.
type ValidationResult struct {
	Errors       map[string]string `json:"errors"`
	IsValid      bool              `json:"isValid"`
	FirstInvalid string            `json:"firstInvalid,omitempty"`
}

// FormEngine builds and validates records against a field schema. It is pure.
type FormEngine struct {
	applyDefaults bool
}

// NewFormEngine constructs an engine. With applyDefaults, new forms start
// from each field's effective default instead of "".
func NewFormEngine(applyDefaults bool) *FormEngine {
	return &FormEngine{applyDefaults: applyDefaults}
}

// Initialize returns one entry per schema key.
func (e *FormEngine) Initialize(schema []models.FieldDefinition) map[string]string {
	if e.applyDefaults {
		return e.Defaults(schema)
	}
	values := make(map[string]string, len(schema))
	for _, f := range schema {
		if f.Key == "" {
			continue
		}
		values[f.Key] = ""
	}
	return values
}

// Defaults returns the effective default for every schema key.
func (e *FormEngine) Defaults(schema []models.FieldDefinition) map[string]string {
	values := make(map[string]string, len(schema))
	for _, f := range schema {
		if f.Key == "" {
			continue
		}
		values[f.Key] = effectiveDefault(f)
	}
	return values
}

// Prefill copies values, filling every schema key missing from them with "".
func (e *FormEngine) Prefill(schema []models.FieldDefinition, values map[string]string) map[string]string {
	out := make(map[string]string, len(schema)+len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, f := range schema {
		if f.Key == "" {
			continue
		}
		if _, ok := out[f.Key]; !ok {
			out[f.Key] = ""
		}
	}
	return out
}

// Validate checks values field by field in schema order.
func (e *FormEngine) Validate(schema []models.FieldDefinition, values map[string]string) ValidationResult {
	result := ValidationResult{Errors: map[string]string{}}
	for _, f := range schema {
		if f.Key == "" {
			continue
		}
		if _, seen := result.Errors[f.Key]; seen {
			continue
		}
		if msg := checkField(f, values[f.Key]); msg != "" {
			result.Errors[f.Key] = msg
			if result.FirstInvalid == "" {
				result.FirstInvalid = f.Key
			}
		}
	}
	result.IsValid = len(result.Errors) == 0
	return result
}

// Normalize keeps only schema keys, in the form a record is stored.
func (e *FormEngine) Normalize(schema []models.FieldDefinition, values map[string]string) map[string]string {
	out := make(map[string]string, len(schema))
	for _, f := range schema {
		if f.Key == "" {
			continue
		}
		out[f.Key] = values[f.Key]
	}
	return out
}
