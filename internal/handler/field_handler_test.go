package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type fieldServiceMock struct {
	saved     []models.FieldDefinition
	mutations []service.FieldMutation
	removeErr error
}

func (m *fieldServiceMock) ListFields(ctx context.Context) (*models.FieldSchema, error) {
	return &models.FieldSchema{DefaultFields: models.SystemFields(), CustomFields: []models.FieldDefinition{}}, nil
}

func (m *fieldServiceMock) AddField(ctx context.Context) (*models.FieldDefinition, error) {
	field := service.BlankField("cf-1")
	return &field, nil
}

func (m *fieldServiceMock) RemoveField(ctx context.Context, id string) error {
	return m.removeErr
}

func (m *fieldServiceMock) SaveCustomFields(ctx context.Context, fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
	m.saved = fields
	return fields, nil
}

func (m *fieldServiceMock) Preview(ctx context.Context, mutations []service.FieldMutation) ([]models.FieldDefinition, error) {
	m.mutations = mutations
	return []models.FieldDefinition{}, nil
}

func newJSONContext(method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestFieldHandlerSaveRequiresCollection(t *testing.T) {
	mock := &fieldServiceMock{}
	handler := NewFieldHandler(mock, nil)

	c, w := newJSONContext(http.MethodPut, "/fields/custom", `{}`)
	handler.Save(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mock.saved)

	c, w = newJSONContext(http.MethodPut, "/fields/custom", `{"customFields":[]}`)
	handler.Save(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Custom fields saved successfully")
	assert.NotNil(t, mock.saved)
}

func TestFieldHandlerPreviewValidatesOps(t *testing.T) {
	mock := &fieldServiceMock{}
	handler := NewFieldHandler(mock, nil)

	c, w := newJSONContext(http.MethodPost, "/fields/custom/preview", `{"mutations":[{"op":"explode"}]}`)
	handler.Preview(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mock.mutations)

	c, w = newJSONContext(http.MethodPost, "/fields/custom/preview", `{"mutations":[{"op":"add_field","fieldId":"cf-9"},{"op":"add_option","fieldId":"cf-9"}]}`)
	handler.Preview(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mock.mutations, 2)
	assert.Equal(t, service.MutationAddOption, mock.mutations[1].Op)
}

func TestFieldHandlerRemoveNotFound(t *testing.T) {
	handler := NewFieldHandler(&fieldServiceMock{removeErr: appErrors.Clone(appErrors.ErrNotFound, "Field not found")}, nil)

	c, w := newJSONContext(http.MethodDelete, "/fields/custom/cf-x", "")
	c.Params = gin.Params{{Key: "id", Value: "cf-x"}}
	handler.Remove(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Field not found")
}

func TestStudentHandlerRejectsBadID(t *testing.T) {
	handler := NewStudentHandler(nil, nil)

	c, w := newJSONContext(http.MethodGet, "/students/abc", "")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	handler := NewAuthHandler(nil)

	c, w := newJSONContext(http.MethodGet, "/auth/me", "")
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
