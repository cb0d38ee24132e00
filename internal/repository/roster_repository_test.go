package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

func TestFieldRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewFieldRepository(NewMemoryStore())

	_, found, err := repo.CustomFields(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	fields := []models.FieldDefinition{{ID: "cf-1", Label: "Grade", Key: "grade", Type: models.FieldDropdown, Options: []string{"A", "B"}}}
	require.NoError(t, repo.SaveCustomFields(ctx, fields))
	fields[0].Options[0] = "mutated"

	got, found, err := repo.CustomFields(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"A", "B"}, got[0].Options)
}

func TestFieldRepositoryNormalisesOptions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyCustomFields, []byte(`[{"id":"cf-1","label":"X","key":"x"}]`)))

	got, _, err := NewFieldRepository(store).CustomFields(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Options)
	assert.Equal(t, models.FieldText, got[0].Type)
}

func TestStudentRepositoryDefaults(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(NewMemoryStore())

	students, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NotNil(t, students)

	max, err := repo.MaxID(ctx)
	require.NoError(t, err)
	assert.Zero(t, max)

	require.NoError(t, repo.SaveAll(ctx, []models.StudentRecord{{ID: 1, Values: map[string]string{"name": "Ana"}}}))
	require.NoError(t, repo.SetMaxID(ctx, 1))

	students, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ana", students[0].Value("name"))

	max, err = repo.MaxID(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, max)
}

func TestSessionRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(NewMemoryStore())

	_, err := repo.Get(ctx, "admin-1")
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)

	session := models.Session{UserID: "admin-1", Role: models.RoleAdmin, Email: "admin@school.com", Name: "Super Admin", IssuedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, repo.Set(ctx, session))
	require.NoError(t, repo.Set(ctx, models.Session{UserID: "student-1", Role: models.RoleStudent, Email: "jane@school.com"}))

	got, err := repo.Get(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)
	assert.True(t, session.IssuedAt.Equal(got.IssuedAt))

	_, err = repo.Get(ctx, "")
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Clear(ctx, "admin-1"))
	_, err = repo.Get(ctx, "admin-1")
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)

	other, err := repo.Get(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "jane@school.com", other.Email)

	require.NoError(t, repo.Clear(ctx, "student-1"))
	require.NoError(t, repo.Clear(ctx, "student-1"))
	_, err = repo.Get(ctx, "student-1")
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestUserRepositoryFoundFlag(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemoryStore())

	users, found, err := repo.List(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, users)

	require.NoError(t, repo.SaveAll(ctx, []models.UserCredential{{ID: "admin-1", Role: models.RoleAdmin, Email: "admin@school.com"}}))
	users, found, err = repo.List(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, users, 1)
}
