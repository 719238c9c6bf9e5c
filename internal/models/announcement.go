package models

// Announcement is a normalized announcement row from the sheet backend.
// Date is canonical YYYY-MM-DD (or the raw value when unparseable); Time and
// DisplayTime carry the editing and display renditions of the time cell.
type Announcement struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`
	Time        string            `json:"time,omitempty"`
	DisplayTime string            `json:"display_time,omitempty"`
	Title       string            `json:"title"`
	Detail      string            `json:"detail,omitempty"`
	Location    string            `json:"location,omitempty"`
	PostedBy    string            `json:"posted_by,omitempty"`
	FileURL     string            `json:"file_url,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}
