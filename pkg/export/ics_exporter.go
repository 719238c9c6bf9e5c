package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// ICSEvent is one all-day entry in an iCalendar export.
type ICSEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Date        time.Time
}

// ICSExporter renders events into an iCalendar document.
type ICSExporter struct {
	prodID string
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter(prodID string) *ICSExporter {
	if prodID == "" {
		prodID = "-//oms-gateway//calendar//TH"
	}
	return &ICSExporter{prodID: prodID}
}

// Render serialises the events as a VCALENDAR. Entries are emitted as
// all-day VEVENTs since the grid buckets by civil date only.
func (e *ICSExporter) Render(name string, events []ICSEvent) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.prodID)
	if name != "" {
		cal.SetName(name)
	}

	now := time.Now().UTC()
	for i, ev := range events {
		uid := ev.UID
		if uid == "" {
			uid = fmt.Sprintf("oms-%d-%s", i, ev.Date.Format("20060102"))
		}
		item := cal.AddEvent(uid)
		item.SetDtStampTime(now)
		item.SetAllDayStartAt(ev.Date)
		item.SetAllDayEndAt(ev.Date.AddDate(0, 0, 1))
		item.SetSummary(ev.Summary)
		if ev.Description != "" {
			item.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			item.SetLocation(ev.Location)
		}
	}

	return []byte(cal.Serialize()), nil
}
