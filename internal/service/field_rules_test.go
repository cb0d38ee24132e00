package service

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-roster-api/internal/models"
)

func TestDeriveKey(t *testing.T) {
	cases := map[string]string{
		"Passing Year!!":     "passing_year",
		"Full Name":          "full_name",
		"  Leading  spaces":  "_leading_spaces",
		"Tab\tand\nnewline":  "tab_and_newline",
		"already_snake_123":  "already_snake_123",
		"Ünïcode Näme":       "ncode_nme",
		"!!!":                "",
		"":                   UntitledFieldKey,
		"   ":                UntitledFieldKey,
		"\u00a0\u2003":       UntitledFieldKey,
		"Grade (10th) - A/B": "grade_10th__ab",
	}
	for label, want := range cases {
		assert.Equal(t, want, DeriveKey(label), "label %q", label)
	}
}

func TestDeriveKeyAlwaysProducesSafeKeys(t *testing.T) {
	safe := regexp.MustCompile(`^[a-z0-9_]*$`)
	alphabet := []rune("aZ9_ -!\t éß@.日本")
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := rng.Intn(12)
		label := make([]rune, n)
		for j := range label {
			label[j] = alphabet[rng.Intn(len(alphabet))]
		}
		key := DeriveKey(string(label))
		assert.True(t, key == UntitledFieldKey || safe.MatchString(key), "label %q derived %q", string(label), key)
	}
}

func TestCheckFieldRuleOrder(t *testing.T) {
	email := models.FieldDefinition{Label: "Email Address", Key: "email", Type: models.FieldEmail, Required: true}
	phone := models.FieldDefinition{Label: "Phone Number", Key: "phone", Type: models.FieldTel, Required: true}
	optionalPhone := models.FieldDefinition{Label: "Alt Phone", Key: "alt", Type: models.FieldTel}

	assert.Equal(t, "Email Address is required.", checkField(email, "  "))
	assert.Equal(t, msgInvalidEmail, checkField(email, "not-an-email"))
	assert.Equal(t, msgInvalidEmail, checkField(email, "a b@c.d"))
	assert.Equal(t, "", checkField(email, "a@b.com"))

	assert.Equal(t, msgInvalidPhone, checkField(phone, "12345"))
	assert.Equal(t, msgInvalidPhone, checkField(phone, "012345678x"))
	assert.Equal(t, "", checkField(phone, "0123456789"))

	assert.Equal(t, "", checkField(optionalPhone, ""))
	assert.Equal(t, msgInvalidPhone, checkField(optionalPhone, "1"))
}

func TestCheckFieldIgnoresBlankOptionalValues(t *testing.T) {
	optionalEmail := models.FieldDefinition{Label: "Alt Email", Key: "alt_email", Type: models.FieldEmail}
	optionalPhone := models.FieldDefinition{Label: "Alt Phone", Key: "alt_phone", Type: models.FieldTel}

	for _, blank := range []string{" ", "   ", "\t\n", "\u00a0"} {
		assert.Equal(t, "", checkField(optionalEmail, blank), "value %q", blank)
		assert.Equal(t, "", checkField(optionalPhone, blank), "value %q", blank)
	}
	assert.Equal(t, msgInvalidEmail, checkField(optionalEmail, " x "))
}

func TestCheckFieldSkipsUnvalidatedTypes(t *testing.T) {
	dropdown := models.FieldDefinition{Label: "Grade", Key: "grade", Type: models.FieldDropdown, Options: []string{"A"}}
	date := models.FieldDefinition{Label: "Born", Key: "born", Type: models.FieldDate}

	assert.Equal(t, "", checkField(dropdown, "Z"))
	assert.Equal(t, "", checkField(date, "yesterday-ish"))
}

func TestEffectiveDefault(t *testing.T) {
	assert.Equal(t, "B", effectiveDefault(models.FieldDefinition{Type: models.FieldDropdown, Options: []string{"A", "B"}, DefaultValue: "B"}))
	assert.Equal(t, "", effectiveDefault(models.FieldDefinition{Type: models.FieldDropdown, Options: []string{"A"}, DefaultValue: "B"}))
	assert.Equal(t, "", effectiveDefault(models.FieldDefinition{Type: models.FieldFile, DefaultValue: "x"}))
	assert.Equal(t, "Jakarta", effectiveDefault(models.FieldDefinition{Type: models.FieldText, DefaultValue: "Jakarta"}))
}
