package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oms-suite/oms-gateway/internal/models"
	"github.com/oms-suite/oms-gateway/internal/service"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
	"github.com/oms-suite/oms-gateway/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, req service.AnnouncementListRequest) ([]models.Announcement, error)
	Create(ctx context.Context, creds models.UpstreamCredentials, req service.SaveAnnouncementRequest) error
	Update(ctx context.Context, creds models.UpstreamCredentials, id string, req service.SaveAnnouncementRequest) error
	Delete(ctx context.Context, creds models.UpstreamCredentials, id string) error
}

type credentialsProvider interface {
	CredentialsFor(ctx context.Context, claims *models.JWTClaims) (models.UpstreamCredentials, error)
}

type viewInvalidator interface {
	Invalidate(ctx context.Context)
}

// AnnouncementHandler wires HTTP endpoints to the announcement service.
type AnnouncementHandler struct {
	service   announcementService
	auth      credentialsProvider
	calendar  viewInvalidator
	dashboard viewInvalidator
}

// NewAnnouncementHandler creates a new handler.
func NewAnnouncementHandler(svc announcementService, auth credentialsProvider, cal, dash viewInvalidator) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc, auth: auth, calendar: cal, dashboard: dash}
}

// List godoc
// @Summary List announcements
// @Description List announcements with normalised dates, optionally filtered by period
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Param period query string false "Filter window" Enums(daily, monthly, quarterly, yearly)
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context(), service.AnnouncementListRequest{
		Period: c.Query("period"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Create godoc
// @Summary Create announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SaveAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req service.SaveAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}

	creds, err := h.auth.CredentialsFor(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), creds, req); err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateViews(c)
	response.Created(c, gin.H{"status": "created"})
}

// Update godoc
// @Summary Update announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Param payload body service.SaveAnnouncementRequest true "Announcement payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req service.SaveAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}

	creds, err := h.auth.CredentialsFor(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), creds, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateViews(c)
	response.JSON(c, http.StatusOK, gin.H{"status": "updated"}, nil)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	creds, err := h.auth.CredentialsFor(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), creds, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateViews(c)
	response.NoContent(c)
}

func (h *AnnouncementHandler) invalidateViews(c *gin.Context) {
	ctx := c.Request.Context()
	if h.calendar != nil {
		h.calendar.Invalidate(ctx)
	}
	if h.dashboard != nil {
		h.dashboard.Invalidate(ctx)
	}
}
