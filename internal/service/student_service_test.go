package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/repository"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

func TestStudentServiceIdsAreNeverReused(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	first, err := stack.students.Create(ctx, validStudent("Jane", "jane@school.com"))
	require.NoError(t, err)
	second, err := stack.students.Create(ctx, validStudent("John", "john@school.com"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	require.NoError(t, stack.students.Delete(ctx, first.ID))
	third, err := stack.students.Create(ctx, validStudent("Ann", "ann@school.com"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID)

	listed, err := stack.students.List(ctx, models.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, int64(2), listed[0].ID)
	assert.Equal(t, int64(3), listed[1].ID)
}

func TestStudentServiceContinuesFromStoredMaxID(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	require.NoError(t, repository.NewStudentRepository(stack.store).SetMaxID(ctx, 41))

	record, err := stack.students.Create(ctx, validStudent("Jane", "jane@school.com"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.ID)
}

func TestStudentServiceCreateIssuesCredential(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	_, err := stack.students.Create(ctx, validStudent("Jane", "jane@school.com"))
	require.NoError(t, err)

	resp, err := stack.auth.Login(ctx, models.LoginRequest{Email: "jane@school.com", Password: "jane001"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, resp.Session.Role)
	assert.Equal(t, "Jane", resp.Session.Name)

	details, err := stack.students.MyDetails(ctx, resp.Session)
	require.NoError(t, err)
	assert.Equal(t, int64(1), details.ID)
}

func TestStudentServiceDeleteRevokesCredential(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	record, err := stack.students.Create(ctx, validStudent("Jane", "jane@school.com"))
	require.NoError(t, err)
	require.NoError(t, stack.students.Delete(ctx, record.ID))

	_, err = stack.auth.Login(ctx, models.LoginRequest{Email: "jane@school.com", Password: "jane001"})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	err = stack.students.Delete(ctx, record.ID)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "Student not found", appErrors.FromError(err).Message)
}

func TestStudentServiceUpdateMergesValues(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	values := validStudent("Jane", "jane@school.com")
	values["house"] = "Red"
	record, err := stack.students.Create(ctx, values)
	require.NoError(t, err)

	updated, err := stack.students.Update(ctx, record.ID, map[string]string{"name": "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", updated.Value("name"))
	assert.Equal(t, "Red", updated.Value("house"))

	_, err = stack.students.Update(ctx, 99, map[string]string{"name": "X"})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "Not found", appErrors.FromError(err).Message)
}

func TestStudentServiceListFilters(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	for _, v := range []map[string]string{
		{"name": "Jane Smith", "email": "jane@school.com", "phone": "0123456789", "house": "Red"},
		{"name": "John Brown", "email": "john@school.com", "phone": "0123456780", "house": "Blue"},
		{"name": "Ann Smith", "email": "ann@school.com", "phone": "0123456781", "house": "Red"},
	} {
		_, err := stack.students.Create(ctx, v)
		require.NoError(t, err)
	}

	bySearch, err := stack.students.List(ctx, models.StudentFilter{Search: " SMITH "})
	require.NoError(t, err)
	assert.Len(t, bySearch, 2)

	byField, err := stack.students.List(ctx, models.StudentFilter{Field: "house", Value: "Blue"})
	require.NoError(t, err)
	require.Len(t, byField, 1)
	assert.Equal(t, "John Brown", byField[0].Value("name"))

	combined, err := stack.students.List(ctx, models.StudentFilter{Search: "ann", Field: "house", Value: "Red"})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, int64(3), combined[0].ID)
}

func TestStudentServiceGroupBy(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	_, err := stack.fields.SaveCustomFields(ctx, []models.FieldDefinition{
		{ID: "cf-house", Label: "House", Type: models.FieldDropdown, Options: []string{"Red", "Blue", "Green"}},
	})
	require.NoError(t, err)

	for i, house := range []string{"Blue", "Red", "Blue", ""} {
		values := validStudent("Student", "s"+string(rune('a'+i))+"@school.com")
		values["house"] = house
		_, err := stack.students.Create(ctx, values)
		require.NoError(t, err)
	}

	groups, err := stack.students.GroupBy(ctx, "house")
	require.NoError(t, err)
	assert.Equal(t, []models.GroupCount{{Value: "Red", Count: 1}, {Value: "Blue", Count: 2}}, groups)

	byName, err := stack.students.GroupBy(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, []models.GroupCount{{Value: "Student", Count: 4}}, byName)

	_, err = stack.students.GroupBy(ctx, "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentServiceMyDetailsNotFound(t *testing.T) {
	stack := newTestStack(t)

	_, err := stack.students.MyDetails(context.Background(), studentSession("nobody@school.com"))
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "no details found", appErrors.FromError(err).Message)
}

func TestStudentServiceStorageFailure(t *testing.T) {
	stack := newTestStack(t)
	stack.store.failSet = true

	_, err := stack.students.Create(context.Background(), validStudent("Jane", "jane@school.com"))
	require.ErrorIs(t, err, appErrors.ErrStorage)
	assert.True(t, errors.Is(err, errStoreDown))
}

type releaseRecorder struct {
	keys []string
}

func (r *releaseRecorder) ReleaseAttachments(_ context.Context, keys []string) {
	r.keys = append(r.keys, keys...)
}

func TestStudentServiceReleasesReplacedAndDeletedAttachments(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	released := &releaseRecorder{}
	stack.students.SetAttachmentReleaser(released)

	_, err := stack.fields.SaveCustomFields(ctx, []models.FieldDefinition{
		{ID: "cf-photo", Label: "Photo", Type: models.FieldFile},
	})
	require.NoError(t, err)

	values := validStudent("Jane", "jane@school.com")
	values["photo"] = "2024/05/first.png"
	created, err := stack.students.Create(ctx, values)
	require.NoError(t, err)

	_, err = stack.students.Update(ctx, created.ID, map[string]string{"name": "Jane Doe"})
	require.NoError(t, err)
	assert.Empty(t, released.keys)

	_, err = stack.students.Update(ctx, created.ID, map[string]string{"photo": "2024/05/second.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024/05/first.png"}, released.keys)

	require.NoError(t, stack.students.Delete(ctx, created.ID))
	assert.Equal(t, []string{"2024/05/first.png", "2024/05/second.png"}, released.keys)
}

type failingCredentials struct {
	err error
}

func (f failingCredentials) CreateStudentCredential(context.Context, models.StudentRecord) error {
	return f.err
}

func (f failingCredentials) RevokeStudentCredential(context.Context, int64) error { return nil }

func TestStudentServiceCreateRollsBackWhenCredentialFails(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	repo := repository.NewStudentRepository(stack.store)
	svc := NewStudentService(repo, failingCredentials{err: errors.New("registry down")}, stack.fields, nil)

	_, err := svc.Create(ctx, validStudent("Jane", "jane@school.com"))
	require.Error(t, err)

	students, err := svc.List(ctx, models.StudentFilter{})
	require.NoError(t, err)
	assert.Empty(t, students)

	max, err := repo.MaxID(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, max)

	created, err := stack.students.Create(ctx, validStudent("Jane", "jane@school.com"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, created.ID)
}
