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

type vehicleService interface {
	List(ctx context.Context, req service.VehicleListRequest) ([]models.VehicleLog, error)
	Create(ctx context.Context, creds models.UpstreamCredentials, req service.SaveVehicleLogRequest) error
	Update(ctx context.Context, creds models.UpstreamCredentials, id string, req service.SaveVehicleLogRequest) error
	Delete(ctx context.Context, creds models.UpstreamCredentials, id string) error
}

// VehicleHandler wires HTTP endpoints to the vehicle log service.
type VehicleHandler struct {
	service   vehicleService
	auth      credentialsProvider
	calendar  viewInvalidator
	dashboard viewInvalidator
}

// NewVehicleHandler creates a new handler.
func NewVehicleHandler(svc vehicleService, auth credentialsProvider, cal, dash viewInvalidator) *VehicleHandler {
	return &VehicleHandler{service: svc, auth: auth, calendar: cal, dashboard: dash}
}

// List godoc
// @Summary List vehicle logs
// @Description List vehicle usage logs with normalised dates, optionally filtered by period
// @Tags Vehicles
// @Produce json
// @Security BearerAuth
// @Param period query string false "Filter window" Enums(daily, monthly, quarterly, yearly)
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /vehicle-logs [get]
func (h *VehicleHandler) List(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context(), service.VehicleListRequest{
		Period: c.Query("period"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Create godoc
// @Summary Create vehicle log
// @Tags Vehicles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SaveVehicleLogRequest true "Vehicle log payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /vehicle-logs [post]
func (h *VehicleHandler) Create(c *gin.Context) {
	var req service.SaveVehicleLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid vehicle log payload"))
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
// @Summary Update vehicle log
// @Tags Vehicles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Vehicle log ID"
// @Param payload body service.SaveVehicleLogRequest true "Vehicle log payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /vehicle-logs/{id} [put]
func (h *VehicleHandler) Update(c *gin.Context) {
	var req service.SaveVehicleLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid vehicle log payload"))
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
// @Summary Delete vehicle log
// @Tags Vehicles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Vehicle log ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /vehicle-logs/{id} [delete]
func (h *VehicleHandler) Delete(c *gin.Context) {
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

func (h *VehicleHandler) invalidateViews(c *gin.Context) {
	ctx := c.Request.Context()
	if h.calendar != nil {
		h.calendar.Invalidate(ctx)
	}
	if h.dashboard != nil {
		h.dashboard.Invalidate(ctx)
	}
}
