package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type submissionCounter struct {
	accepted int
	rejected int
}

func (c *submissionCounter) RecordSubmission(valid bool) {
	if valid {
		c.accepted++
		return
	}
	c.rejected++
}

func TestFormServiceSubmitCreatesAndUpdates(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	counter := &submissionCounter{}
	stack.forms.SetMetrics(counter)

	created, err := stack.forms.Submit(ctx, adminSession(), FormAdding, 0, validStudent("Jane", "jane@school.com"))
	require.NoError(t, err)
	require.NotNil(t, created.Record)
	assert.Equal(t, int64(1), created.Record.ID)
	assert.True(t, created.Validation.IsValid)

	values := validStudent("Jane Doe", "jane@school.com")
	updated, err := stack.forms.Submit(ctx, adminSession(), FormEditing, 1, values)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", updated.Record.Value("name"))

	stored, err := stack.students.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stored.Value("name"))
	assert.Equal(t, 2, counter.accepted)
}

func TestFormServiceRejectsInvalidSubmission(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	counter := &submissionCounter{}
	stack.forms.SetMetrics(counter)
	_, err := stack.fields.ListFields(ctx)
	require.NoError(t, err)
	before := stack.store.totalSets()

	result, err := stack.forms.Submit(ctx, adminSession(), FormAdding, 0, map[string]string{"name": "Jane", "email": "not-an-email", "phone": "0123456789"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "email", appErr.Field)
	assert.Equal(t, "Enter a valid email address.", appErr.Message)
	assert.Equal(t, map[string]string{"email": "Enter a valid email address."}, appErr.Details)
	require.NotNil(t, result)
	assert.Nil(t, result.Record)
	assert.False(t, result.Validation.IsValid)
	assert.Equal(t, 1, counter.rejected)

	students, err := stack.students.List(ctx, models.StudentFilter{})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Equal(t, before, stack.store.totalSets())
}

func TestFormServiceRoleChecks(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	_, err := stack.forms.Submit(ctx, studentSession("jane@school.com"), FormAdding, 0, validStudent("Jane", "jane@school.com"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = stack.forms.Submit(ctx, studentSession("jane@school.com"), FormEditing, 1, validStudent("Jane", "jane@school.com"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = stack.forms.Submit(ctx, adminSession(), FormViewing, 1, nil)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = stack.forms.Submit(ctx, adminSession(), FormEditing, 99, validStudent("Jane", "jane@school.com"))
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFormServiceOpen(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	view, err := stack.forms.New(ctx, adminSession())
	require.NoError(t, err)
	assert.Equal(t, FormAdding, view.Mode)
	assert.Len(t, view.Fields, 3)
	assert.Equal(t, "", view.Values["email"])

	_, err = stack.forms.Submit(ctx, adminSession(), FormAdding, 0, validStudent("Jane", "jane@school.com"))
	require.NoError(t, err)

	own, err := stack.forms.Open(ctx, studentSession("jane@school.com"), FormViewing, 1)
	require.NoError(t, err)
	assert.Equal(t, FormViewing, own.Mode)
	assert.Equal(t, int64(1), own.RecordID)
	assert.Equal(t, "Jane", own.Values["name"])

	_, err = stack.forms.Open(ctx, studentSession("other@school.com"), FormViewing, 1)
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = stack.forms.Open(ctx, adminSession(), FormAdding, 1)
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFormServiceValidateUsesLiveSchema(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	result, err := stack.forms.Validate(ctx, validStudent("Jane", "jane@school.com"))
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	_, err = stack.fields.SaveCustomFields(ctx, []models.FieldDefinition{
		{ID: "cf-house", Label: "House", Type: models.FieldDropdown, Required: true, Options: []string{"Red"}},
	})
	require.NoError(t, err)

	result, err = stack.forms.Validate(ctx, validStudent("Jane", "jane@school.com"))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, map[string]string{"house": "House is required."}, result.Errors)
}
