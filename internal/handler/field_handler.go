package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-roster-api/internal/dto"
	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
	"github.com/noah-isme/sma-roster-api/pkg/response"
)

type fieldService interface {
	ListFields(ctx context.Context) (*models.FieldSchema, error)
	AddField(ctx context.Context) (*models.FieldDefinition, error)
	RemoveField(ctx context.Context, id string) error
	SaveCustomFields(ctx context.Context, fields []models.FieldDefinition) ([]models.FieldDefinition, error)
	Preview(ctx context.Context, mutations []service.FieldMutation) ([]models.FieldDefinition, error)
}

// FieldHandler exposes the field schema.
type FieldHandler struct {
	fields    fieldService
	validator *validator.Validate
}

// NewFieldHandler constructs FieldHandler.
func NewFieldHandler(fields fieldService, validate *validator.Validate) *FieldHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &FieldHandler{fields: fields, validator: validate}
}

// List godoc
// @Summary List fields
// @Description System fields followed by custom fields
// @Tags Fields
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /fields [get]
func (h *FieldHandler) List(c *gin.Context) {
	schema, err := h.fields.ListFields(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schema, "Fields fetched successfully")
}

// Add godoc
// @Summary Add custom field
// @Description Appends and persists a blank text field
// @Tags Fields
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /fields/custom [post]
func (h *FieldHandler) Add(c *gin.Context) {
	field, err := h.fields.AddField(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, field, "Field added successfully")
}

// Remove godoc
// @Summary Remove custom field
// @Tags Fields
// @Produce json
// @Security BearerAuth
// @Param id path string true "Field ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /fields/custom/{id} [delete]
func (h *FieldHandler) Remove(c *gin.Context) {
	if err := h.fields.RemoveField(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "Field removed")
}

// Save godoc
// @Summary Save custom fields
// @Description Replaces the custom field collection; keys are derived from labels
// @Tags Fields
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SaveCustomFieldsRequest true "Custom fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fields/custom [put]
func (h *FieldHandler) Save(c *gin.Context) {
	var req dto.SaveCustomFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid custom fields payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, bindError(err, "invalid custom fields payload"))
		return
	}

	saved, err := h.fields.SaveCustomFields(c.Request.Context(), req.CustomFields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, saved, "Custom fields saved successfully")
}

// Preview godoc
// @Summary Preview field edits
// @Description Replays editor mutations over the saved custom fields without persisting
// @Tags Fields
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object true "Mutations"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fields/custom/preview [post]
func (h *FieldHandler) Preview(c *gin.Context) {
	var payload struct {
		Mutations []service.FieldMutation `json:"mutations" validate:"required,dive"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, bindError(err, "invalid mutations payload"))
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		response.Error(c, bindError(err, "invalid mutations payload"))
		return
	}

	fields, err := h.fields.Preview(c.Request.Context(), payload.Mutations)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fields)
}
