// Package calendar builds the 7-column month grid the calendar view
// renders. It consumes events already normalized by datefmt and buckets
// them onto day cells by exact canonical-date match.
package calendar

import (
	"fmt"
	"time"

	"github.com/oms-suite/oms-gateway/internal/datefmt"
	"github.com/oms-suite/oms-gateway/internal/models"
)

// Thai month names for the grid title.
var thaiMonths = [12]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// Bucket groups a day's events of one category.
type Bucket struct {
	Count  int                    `json:"count"`
	Events []models.CalendarEvent `json:"events"`
}

// Cell represents one day position in the rendered grid. Leading and
// trailing cells borrow day numbers from the adjacent months.
type Cell struct {
	DayNumber      int                             `json:"day_number"`
	Date           string                          `json:"date,omitempty"`
	InCurrentMonth bool                            `json:"in_current_month"`
	IsToday        bool                            `json:"is_today"`
	Events         map[models.EventCategory]Bucket `json:"events,omitempty"`
}

// Grid is a full month view: an ordered cell sequence whose length is
// always a multiple of seven, plus the localized title.
type Grid struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Title string `json:"title"`
	Cells []Cell `json:"cells"`
}

// BuildMonthGrid produces the grid for the given month. Events bucket onto
// cells by exact date-key match; events whose Date is not a canonical key
// for this month simply never appear. isToday is computed against the
// supplied wall-clock time.
func BuildMonthGrid(year int, month time.Month, events []models.CalendarEvent, today time.Time) Grid {
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstWeekday := int(firstOfMonth.Weekday())
	daysInMonth := firstOfMonth.AddDate(0, 1, -1).Day()
	daysInPrevMonth := firstOfMonth.AddDate(0, 0, -1).Day()

	byDate := make(map[string][]models.CalendarEvent)
	for _, ev := range events {
		if ev.Date == "" {
			continue
		}
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}

	todayKey := today.Format(datefmt.DateKey)

	cells := make([]Cell, 0, firstWeekday+daysInMonth+6)
	for i := firstWeekday; i > 0; i-- {
		cells = append(cells, Cell{DayNumber: daysInPrevMonth - i + 1})
	}

	for day := 1; day <= daysInMonth; day++ {
		key := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
		cells = append(cells, Cell{
			DayNumber:      day,
			Date:           key,
			InCurrentMonth: true,
			IsToday:        key == todayKey,
			Events:         bucketByCategory(byDate[key]),
		})
	}

	if remainder := (firstWeekday + daysInMonth) % 7; remainder != 0 {
		for day := 1; day <= 7-remainder; day++ {
			cells = append(cells, Cell{DayNumber: day})
		}
	}

	return Grid{
		Year:  year,
		Month: int(month),
		Title: Title(year, month),
		Cells: cells,
	}
}

// Title renders the Thai month name with the Buddhist-era year. The era
// offset is display only; all arithmetic stays Gregorian.
func Title(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", thaiMonths[month-1], year+543)
}

func bucketByCategory(events []models.CalendarEvent) map[models.EventCategory]Bucket {
	buckets := make(map[models.EventCategory]Bucket)
	for _, ev := range events {
		b := buckets[ev.Category]
		b.Count++
		b.Events = append(b.Events, ev)
		buckets[ev.Category] = b
	}
	return buckets
}
