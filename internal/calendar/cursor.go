package calendar

import "time"

// Cursor is the displayed-month position for calendar navigation. It is a
// plain value: handlers derive one from request parameters, move it, and
// return the neighbouring targets, so no view state lives on the server.
type Cursor struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewCursor normalizes arbitrary year/month input via standard date
// arithmetic, so month 13 of year Y becomes January of Y+1.
func NewCursor(year, month int) Cursor {
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// CursorFor returns the cursor for the month containing t.
func CursorFor(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// Previous moves one month back.
func (c Cursor) Previous() Cursor {
	t := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// Next moves one month forward.
func (c Cursor) Next() Cursor {
	t := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// ResetToToday snaps the cursor to the month containing now.
func (c Cursor) ResetToToday(now time.Time) Cursor {
	return CursorFor(now)
}
