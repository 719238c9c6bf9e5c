package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oms-suite/oms-gateway/internal/models"
	"github.com/oms-suite/oms-gateway/internal/service"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
	"github.com/oms-suite/oms-gateway/pkg/response"
)

type uploadService interface {
	Upload(ctx context.Context, creds models.UpstreamCredentials, fileName, mimeType string, content io.Reader) (*service.UploadResult, error)
}

// UploadHandler forwards attachment uploads to the sheet backend.
type UploadHandler struct {
	service uploadService
	auth    credentialsProvider
}

// NewUploadHandler creates a new handler.
func NewUploadHandler(svc uploadService, auth credentialsProvider) *UploadHandler {
	return &UploadHandler{service: svc, auth: auth}
}

// Upload godoc
// @Summary Upload attachment
// @Description Accept a multipart file and forward it to the sheet backend, returning the stored file URL
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload (max 10 MB)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field required"))
		return
	}

	creds, err := h.auth.CredentialsFor(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.service.Upload(c.Request.Context(), creds, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
