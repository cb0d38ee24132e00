package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-roster-api/internal/dto"
	"github.com/noah-isme/sma-roster-api/internal/service"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
	"github.com/noah-isme/sma-roster-api/pkg/response"
	"github.com/noah-isme/sma-roster-api/pkg/storage"
)

type attachmentService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*service.Attachment, error)
	Link(key, filename string) (*service.Attachment, error)
	Open(token string) (*os.File, storage.DownloadGrant, error)
}

// AttachmentHandler stores and serves files for file-typed fields.
type AttachmentHandler struct {
	attachments attachmentService
	validator   *validator.Validate
}

// NewAttachmentHandler constructs AttachmentHandler.
func NewAttachmentHandler(attachments attachmentService, validate *validator.Validate) *AttachmentHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AttachmentHandler{attachments: attachments, validator: validate}
}

// Upload godoc
// @Summary Upload attachment
// @Description Stores a file and returns the key to place into a file field
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, bindError(err, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, bindError(err, "unable to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	attachment, err := h.attachments.Upload(c.Request.Context(), header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attachment)
}

// Link godoc
// @Summary Refresh download link
// @Tags Attachments
// @Produce json
// @Security BearerAuth
// @Param key query string true "Attachment key"
// @Param filename query string false "Download filename"
// @Success 200 {object} response.Envelope
// @Router /attachments/link [get]
func (h *AttachmentHandler) Link(c *gin.Context) {
	var query dto.AttachmentLinkQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid link query"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, bindError(err, "key is required"))
		return
	}
	attachment, err := h.attachments.Link(query.Key, query.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, attachment)
}

// Download godoc
// @Summary Download attachment
// @Description Serves a stored file for a signed token
// @Tags Attachments
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /attachments/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download token required"))
		return
	}
	file, grant, err := h.attachments.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read attachment"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", grant.Filename))
	c.Header("Cache-Control", "private, no-store")
	http.ServeContent(c.Writer, c.Request, grant.Filename, info.ModTime(), file)
}
