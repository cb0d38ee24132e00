package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-roster-api/internal/dto"
	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
	"github.com/noah-isme/sma-roster-api/pkg/response"
)

type rosterExporter interface {
	Roster(ctx context.Context, format string, filter models.StudentFilter) (*service.ExportFile, error)
}

// ExportHandler streams roster documents.
type ExportHandler struct {
	exports   rosterExporter
	validator *validator.Validate
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports rosterExporter, validate *validator.Validate) *ExportHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ExportHandler{exports: exports, validator: validate}
}

// Roster godoc
// @Summary Export roster
// @Description Renders students with the current schema as columns
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Param search query string false "Search filter"
// @Param field query string false "Field key to filter on"
// @Param value query string false "Exact value for field"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /students/export [get]
func (h *ExportHandler) Roster(c *gin.Context) {
	var query dto.StudentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid export query"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, bindError(err, "format must be csv or pdf"))
		return
	}

	file, err := h.exports.Roster(c.Request.Context(), query.Format, query.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
