package models

import "time"

// ExportType selects which dataset an export job renders.
type ExportType string

const (
	ExportTypeAnnouncements ExportType = "announcements"
	ExportTypeVehicleLogs   ExportType = "vehicle-logs"
	ExportTypeCalendar      ExportType = "calendar"
)

// ExportFormat selects the output file format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
	ExportFormatICS ExportFormat = "ics"
)

// ExportStatus tracks an export job through the queue.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusFinished   ExportStatus = "finished"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJobParams carries the dataset selection for a job. Year and Month
// only apply to calendar exports; Period only to the list exports.
type ExportJobParams struct {
	Period string       `json:"period,omitempty"`
	Year   int          `json:"year,omitempty"`
	Month  int          `json:"month,omitempty"`
	Format ExportFormat `json:"format"`
}

// ExportJob is the queue record for one export request.
type ExportJob struct {
	ID           string          `json:"id"`
	Type         ExportType      `json:"type"`
	Params       ExportJobParams `json:"params"`
	Status       ExportStatus    `json:"status"`
	Progress     int             `json:"progress"`
	ResultURL    string          `json:"result_url,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RequestedBy  string          `json:"requested_by"`
	CreatedAt    time.Time       `json:"created_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}
