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

type formService interface {
	New(ctx context.Context, session models.Session) (*service.FormView, error)
	Open(ctx context.Context, session models.Session, mode service.FormMode, id int64) (*service.FormView, error)
	Validate(ctx context.Context, values map[string]string) (service.ValidationResult, error)
	Submit(ctx context.Context, session models.Session, mode service.FormMode, id int64, values map[string]string) (*service.SubmitResult, error)
}

// FormHandler serves student forms built from the live schema.
type FormHandler struct {
	forms     formService
	validator *validator.Validate
}

// NewFormHandler constructs FormHandler.
func NewFormHandler(forms formService, validate *validator.Validate) *FormHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &FormHandler{forms: forms, validator: validate}
}

// New godoc
// @Summary Blank student form
// @Tags Forms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /forms/new [get]
func (h *FormHandler) New(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.forms.New(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Open godoc
// @Summary Open a student form
// @Description Loads a record for viewing (default) or editing
// @Tags Forms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param mode query string false "viewing or editing"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forms/students/{id} [get]
func (h *FormHandler) Open(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := parseStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.FormOpenQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid form query"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, bindError(err, "mode must be viewing or editing"))
		return
	}
	mode := service.FormViewing
	if query.Mode != "" {
		mode = service.FormMode(query.Mode)
	}

	view, err := h.forms.Open(c.Request.Context(), session, mode, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Validate godoc
// @Summary Validate form values
// @Description Checks values against the current schema without storing them
// @Tags Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object true "Field key to value"
// @Success 200 {object} response.Envelope
// @Router /forms/validate [post]
func (h *FormHandler) Validate(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		response.Error(c, bindError(err, "values must be an object of strings"))
		return
	}
	result, err := h.forms.Validate(c.Request.Context(), values)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
