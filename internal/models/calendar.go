package models

// EventCategory discriminates which detail fields of a calendar event are
// meaningful.
type EventCategory string

const (
	CategoryAnnouncement EventCategory = "announcement"
	CategoryVehicleUsage EventCategory = "vehicle-usage"
)

// CalendarEvent represents one dated item to display on the month grid.
// Date is always a valid canonical YYYY-MM-DD key; records without one are
// dropped before an event is built. Events are never mutated after creation;
// each load builds a fresh list.
type CalendarEvent struct {
	Category   EventCategory     `json:"category"`
	Date       string            `json:"date"`
	Label      string            `json:"label"`
	SourceID   string            `json:"source_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
