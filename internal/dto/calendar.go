package dto

import (
	"github.com/oms-suite/oms-gateway/internal/calendar"
)

// CalendarQuery carries the month selection from the request. Year and month
// default to the current month when absent; nav moves the cursor relative to
// the supplied position.
type CalendarQuery struct {
	Year  int    `form:"year"`
	Month int    `form:"month"`
	Nav   string `form:"nav" binding:"omitempty,oneof=previous next today"`
}

// CalendarResponse is the month view payload.
type CalendarResponse struct {
	Title           string          `json:"title"`
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	Cells           []calendar.Cell `json:"cells"`
	DegradedSources []string        `json:"degraded_sources,omitempty"`
	Navigation      CalendarNav     `json:"navigation"`
}

// CalendarNav lists the neighbouring cursor targets.
type CalendarNav struct {
	Previous calendar.Cursor `json:"previous"`
	Next     calendar.Cursor `json:"next"`
	Today    calendar.Cursor `json:"today"`
}
