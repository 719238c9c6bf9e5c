package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oms-suite/oms-gateway/internal/dto"
	"github.com/oms-suite/oms-gateway/internal/models"
	"github.com/oms-suite/oms-gateway/internal/service"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
	"github.com/oms-suite/oms-gateway/pkg/response"
)

type exportService interface {
	CreateJob(ctx context.Context, req service.ExportRequest, requestedBy string) (*models.ExportJob, error)
	GetStatus(ctx context.Context, id string, actor *models.JWTClaims) (*models.ExportJob, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler manages export job submission and downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Create godoc
// @Summary Request an export
// @Description Queue generation of a CSV/PDF list export or an ICS calendar export
// @Tags Exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export request"))
		return
	}

	claims := claimsFromContext(c)
	requestedBy := ""
	if claims != nil {
		requestedBy = claims.Username
	}

	job, err := h.service.CreateJob(c.Request.Context(), service.ExportRequest{
		Type:   models.ExportType(req.Type),
		Format: models.ExportFormat(req.Format),
		Period: req.Period,
		Year:   req.Year,
		Month:  req.Month,
	}, requestedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.FromExportJob(job), nil)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FromExportJob(job), nil)
}

// Download godoc
// @Summary Download export file
// @Description Stream a finished export using its signed token. No auth header needed; the token itself is the credential.
// @Tags Exports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Content-Type", contentTypeFor(download.Format))
	http.ServeContent(c.Writer, c.Request, download.Filename, time.Time{}, download.File)
}

func contentTypeFor(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatCSV:
		return "text/csv; charset=utf-8"
	case models.ExportFormatPDF:
		return "application/pdf"
	case models.ExportFormatICS:
		return "text/calendar; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
