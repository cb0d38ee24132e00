package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/noah-isme/sma-roster-api/internal/models"
)

// UntitledFieldKey is the key given to fields with a blank label.
const UntitledFieldKey = "untitled_field"

// Validation messages shown next to the offending input.
const (
	msgRequiredSuffix = " is required."
	msgInvalidEmail   = "Enter a valid email address."
	msgInvalidPhone   = "Phone number must be exactly 10 digits."
)

// notSpaceOrAt mirrors a browser's notion of whitespace, which is wider than RE2's \s.
const notSpaceOrAt = `[^\s\v\p{Z}\x{FEFF}@]`

var (
	emailPattern = regexp.MustCompile(`^` + notSpaceOrAt + `+@` + notSpaceOrAt + `+\.` + notSpaceOrAt + `+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// DeriveKey turns a label into a record key: lower-case, whitespace runs
// become "_", anything outside [a-z0-9_] is dropped.
func DeriveKey(label string) string {
	if isBlank(label) {
		return UntitledFieldKey
	}

	var b strings.Builder
	inSpace := false
	for _, r := range strings.ToLower(label) {
		if isFormSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isFormSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.In(r, unicode.Z) || r == '\uFEFF'
}

func isBlank(value string) bool {
	return strings.TrimFunc(value, isFormSpace) == ""
}

// valueCheck returns an error message, or "" when value is acceptable.
type valueCheck func(value string) string

// formatChecks picks the format rule applied to non-empty values of a type.
type formatChecks struct{}

func (formatChecks) VisitText() valueCheck     { return nil }
func (formatChecks) VisitNumber() valueCheck   { return nil }
func (formatChecks) VisitDate() valueCheck     { return nil }
func (formatChecks) VisitDropdown() valueCheck { return nil }
func (formatChecks) VisitFile() valueCheck     { return nil }

func (formatChecks) VisitEmail() valueCheck {
	return func(value string) string {
		if emailPattern.MatchString(value) {
			return ""
		}
		return msgInvalidEmail
	}
}

func (formatChecks) VisitTel() valueCheck {
	return func(value string) string {
		if phonePattern.MatchString(value) {
			return ""
		}
		return msgInvalidPhone
	}
}

// checkField applies the rules for one field in order; the first failure wins.
func checkField(field models.FieldDefinition, value string) string {
	if field.Required && isBlank(value) {
		return field.Label + msgRequiredSuffix
	}
	if isBlank(value) {
		return ""
	}
	check, _ := models.VisitFieldType[valueCheck](field.Type, formatChecks{})
	if check == nil {
		return ""
	}
	return check(value)
}

// defaultRules resolves the value a new form starts with for one field.
type defaultRules struct {
	field models.FieldDefinition
}

func (d defaultRules) VisitText() string   { return d.field.DefaultValue }
func (d defaultRules) VisitNumber() string { return d.field.DefaultValue }
func (d defaultRules) VisitDate() string   { return d.field.DefaultValue }
func (d defaultRules) VisitEmail() string  { return d.field.DefaultValue }
func (d defaultRules) VisitTel() string    { return d.field.DefaultValue }
func (d defaultRules) VisitFile() string   { return "" }

func (d defaultRules) VisitDropdown() string {
	for _, option := range d.field.Options {
		if option == d.field.DefaultValue {
			return option
		}
	}
	return ""
}

func effectiveDefault(field models.FieldDefinition) string {
	value, _ := models.VisitFieldType[string](field.Type, defaultRules{field: field})
	return value
}

// supportsOptions reports whether a type keeps its option list.
func supportsOptions(t models.FieldType) bool {
	return t == models.FieldDropdown
}
