package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-roster-api/internal/dto"
	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
	"github.com/noah-isme/sma-roster-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, error)
	Get(ctx context.Context, id int64) (*models.StudentRecord, error)
	Delete(ctx context.Context, id int64) error
	MyDetails(ctx context.Context, session models.Session) (*models.StudentRecord, error)
	GroupBy(ctx context.Context, key string) ([]models.GroupCount, error)
}

type studentSubmitter interface {
	Submit(ctx context.Context, session models.Session, mode service.FormMode, id int64, values map[string]string) (*service.SubmitResult, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
	forms    studentSubmitter
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, forms studentSubmitter) *StudentHandler {
	return &StudentHandler{students: students, forms: forms}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive substring over every value"
// @Param field query string false "Field key to filter on"
// @Param value query string false "Exact value for field"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var query dto.StudentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	students, err := h.students.List(c.Request.Context(), query.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, err := parseStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Create godoc
// @Summary Create student
// @Description Validates values against the schema, assigns the next id and issues a login
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object true "Field key to value"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	h.submit(c, service.FormAdding, 0)
}

// Update godoc
// @Summary Update student
// @Description Validates values and merges them over the stored record
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param payload body object true "Field key to value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, err := parseStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.submit(c, service.FormEditing, id)
}

func (h *StudentHandler) submit(c *gin.Context, mode service.FormMode, id int64) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		response.Error(c, bindError(err, "values must be an object of strings"))
		return
	}

	result, err := h.forms.Submit(c.Request.Context(), session, mode, id, values)
	if err != nil {
		response.Error(c, err)
		return
	}
	if mode == service.FormAdding {
		response.Created(c, result.Record, "Student added")
		return
	}
	response.OK(c, result.Record, "Updated successfully")
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := parseStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "Student deleted")
}

// Groups godoc
// @Summary Group students
// @Description Counts students per distinct value of a field
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param key path string true "Field key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/groups/{key} [get]
func (h *StudentHandler) Groups(c *gin.Context) {
	groups, err := h.students.GroupBy(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, groups)
}

// MyDetails godoc
// @Summary Own record
// @Description The record whose email matches the logged in student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/details [get]
func (h *StudentHandler) MyDetails(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.students.MyDetails(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}
