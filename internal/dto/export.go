package dto

import "github.com/oms-suite/oms-gateway/internal/models"

// ExportRequest submits a new export job.
type ExportRequest struct {
	Type   string `json:"type" binding:"required,oneof=announcements vehicle-logs calendar"`
	Format string `json:"format" binding:"required,oneof=csv pdf ics"`
	Period string `json:"period" binding:"omitempty,oneof=daily monthly quarterly yearly"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
}

// ExportJobResponse reports job state to clients.
type ExportJobResponse struct {
	ID        string              `json:"id"`
	Type      models.ExportType   `json:"type"`
	Format    models.ExportFormat `json:"format"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL string              `json:"result_url,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// FromExportJob maps the stored job to its response shape.
func FromExportJob(job *models.ExportJob) ExportJobResponse {
	return ExportJobResponse{
		ID:        job.ID,
		Type:      job.Type,
		Format:    job.Params.Format,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
		Error:     job.ErrorMessage,
	}
}
