package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oms-suite/oms-gateway/internal/calendar"
	"github.com/oms-suite/oms-gateway/internal/dto"
	"github.com/oms-suite/oms-gateway/internal/middleware"
	"github.com/oms-suite/oms-gateway/internal/service"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
	"github.com/oms-suite/oms-gateway/pkg/response"
)

type calendarService interface {
	Month(ctx context.Context, cursor calendar.Cursor) (*service.MonthView, bool, error)
	CurrentCursor() calendar.Cursor
}

// CalendarHandler serves the month grid.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler creates a new handler.
func NewCalendarHandler(svc calendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Month godoc
// @Summary Month calendar view
// @Description Build the month grid combining announcements and vehicle logs. Omit year and month for the current month; use nav to move relative to the given position.
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param year query int false "Grid year"
// @Param month query int false "Grid month (1-12)"
// @Param nav query string false "Relative move" Enums(previous, next, today)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	var query dto.CalendarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid calendar query"))
		return
	}

	cursor := h.resolveCursor(query)

	view, cacheHit, err := h.service.Month(c.Request.Context(), cursor)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)

	response.JSON(c, http.StatusOK, dto.CalendarResponse{
		Title:           view.Grid.Title,
		Year:            view.Grid.Year,
		Month:           view.Grid.Month,
		Cells:           view.Grid.Cells,
		DegradedSources: view.DegradedSources,
		Navigation: dto.CalendarNav{
			Previous: view.Previous,
			Next:     view.Next,
			Today:    view.Today,
		},
	}, middleware.ExtractMeta(c))
}

func (h *CalendarHandler) resolveCursor(query dto.CalendarQuery) calendar.Cursor {
	cursor := h.service.CurrentCursor()
	if query.Year > 0 && query.Month > 0 {
		cursor = calendar.NewCursor(query.Year, query.Month)
	}
	switch query.Nav {
	case "previous":
		return cursor.Previous()
	case "next":
		return cursor.Next()
	case "today":
		return h.service.CurrentCursor()
	default:
		return cursor
	}
}
