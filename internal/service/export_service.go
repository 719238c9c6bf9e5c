package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/oms-suite/oms-gateway/internal/datefmt"
	"github.com/oms-suite/oms-gateway/internal/models"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
	"github.com/oms-suite/oms-gateway/pkg/export"
	"github.com/oms-suite/oms-gateway/pkg/jobs"
	"github.com/oms-suite/oms-gateway/pkg/storage"
)

type announcementLister interface {
	List(ctx context.Context, req AnnouncementListRequest) ([]models.Announcement, error)
}

type vehicleLister interface {
	List(ctx context.Context, req VehicleListRequest) ([]models.VehicleLog, error)
}

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, job *models.ExportJob) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, events []export.ICSEvent) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupSchedule string
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService renders announcement, vehicle-log and calendar datasets to
// downloadable files. Generation runs on the job queue so list endpoints are
// never blocked behind a slow sheet pull.
type ExportService struct {
	announcements announcementLister
	vehicles      vehicleLister
	store         exportJobStore
	queue         jobDispatcher
	storage       fileStorage
	csv           csvRenderer
	pdf           pdfRenderer
	ics           icsRenderer
	signer        *storage.SignedURLSigner
	logger        *zap.Logger
	cron          *cron.Cron
	cfg           ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(announcements announcementLister, vehicles vehicleLister, store exportJobStore, queue jobDispatcher, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		announcements: announcements,
		vehicles:      vehicles,
		store:         store,
		queue:         queue,
		storage:       files,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		ics:           export.NewICSExporter(""),
		signer:        signer,
		logger:        logger,
		cfg:           cfg,
	}
}

// SetQueue attaches the job dispatcher. The queue's handler needs the
// service, so wiring happens in two steps.
func (s *ExportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// ExportRequest describes a job submission.
type ExportRequest struct {
	Type   models.ExportType   `json:"type"`
	Format models.ExportFormat `json:"format"`
	Period string              `json:"period,omitempty"`
	Year   int                 `json:"year,omitempty"`
	Month  int                 `json:"month,omitempty"`
}

// CreateJob validates the request, persists the job and enqueues processing.
func (s *ExportService) CreateJob(ctx context.Context, req ExportRequest, requestedBy string) (*models.ExportJob, error) {
	if err := validateExportRequest(req); err != nil {
		return nil, err
	}
	job := &models.ExportJob{
		ID:   uuid.NewString(),
		Type: req.Type,
		Params: models.ExportJobParams{
			Period: req.Period,
			Year:   req.Year,
			Month:  req.Month,
			Format: req.Format,
		},
		Status:      models.ExportStatusQueued,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		now := time.Now().UTC()
		job.Status = models.ExportStatusFailed
		job.Progress = 100
		job.ErrorMessage = "failed to enqueue job"
		job.FinishedAt = &now
		_ = s.store.Update(ctx, job)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// GetStatus exposes job metadata, enforcing ownership for non-admins.
func (s *ExportService) GetStatus(ctx context.Context, id string, actor *models.JWTClaims) (*models.ExportJob, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role != models.RoleAdmin && job.RequestedBy != actor.Username {
		return nil, appErrors.ErrForbidden
	}
	return job, nil
}

// ResolveDownload validates the token and opens the stored export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == "" || !strings.HasSuffix(job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Generate builds the dataset for a job and stores the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	var payload []byte
	var err error
	switch job.Type {
	case models.ExportTypeCalendar:
		payload, err = s.renderCalendar(ctx, job)
	default:
		payload, err = s.renderDataset(ctx, job)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// StartCleanup schedules periodic removal of expired export files.
func (s *ExportService) StartCleanup() error {
	if s.cfg.CleanupSchedule == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(s.cfg.CleanupSchedule, func() {
		removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
		if err != nil {
			s.logger.Warn("export cleanup failed", zap.Error(err))
			return
		}
		if len(removed) > 0 {
			s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid export cleanup schedule %q: %w", s.cfg.CleanupSchedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// StopCleanup halts the cleanup schedule.
func (s *ExportService) StopCleanup() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *ExportService) renderDataset(ctx context.Context, job *models.ExportJob) ([]byte, error) {
	var dataset export.Dataset
	var title string
	switch job.Type {
	case models.ExportTypeAnnouncements:
		rows, err := s.announcements.List(ctx, AnnouncementListRequest{Period: job.Params.Period})
		if err != nil {
			return nil, err
		}
		dataset = announcementDataset(rows)
		title = "Announcements"
	case models.ExportTypeVehicleLogs:
		rows, err := s.vehicles.List(ctx, VehicleListRequest{Period: job.Params.Period})
		if err != nil {
			return nil, err
		}
		dataset = vehicleDataset(rows)
		title = "Vehicle Usage Log"
	default:
		return nil, fmt.Errorf("unsupported export type %s", job.Type)
	}

	switch job.Params.Format {
	case models.ExportFormatCSV:
		return s.csv.Render(dataset)
	case models.ExportFormatPDF:
		return s.pdf.Render(dataset, title)
	default:
		return nil, fmt.Errorf("unsupported format %s for %s export", job.Params.Format, job.Type)
	}
}

// renderCalendar emits the month's events as an iCalendar file. Rows whose
// date never normalised to a canonical key are skipped, mirroring the grid.
func (s *ExportService) renderCalendar(ctx context.Context, job *models.ExportJob) ([]byte, error) {
	if job.Params.Format != models.ExportFormatICS {
		return nil, fmt.Errorf("calendar exports support ics only, got %s", job.Params.Format)
	}

	announcements, err := s.announcements.List(ctx, AnnouncementListRequest{})
	if err != nil {
		return nil, err
	}
	logs, err := s.vehicles.List(ctx, VehicleListRequest{})
	if err != nil {
		return nil, err
	}

	monthKey := fmt.Sprintf("%04d-%02d-", job.Params.Year, job.Params.Month)
	var events []export.ICSEvent
	for _, ann := range announcements {
		day, ok := parseExportDate(ann.Date, monthKey)
		if !ok {
			continue
		}
		events = append(events, export.ICSEvent{
			UID:         "ann-" + ann.ID,
			Summary:     ann.Title,
			Description: ann.Detail,
			Location:    ann.Location,
			Date:        day,
		})
	}
	for _, log := range logs {
		day, ok := parseExportDate(log.Date, monthKey)
		if !ok {
			continue
		}
		events = append(events, export.ICSEvent{
			UID:         "veh-" + log.ID,
			Summary:     fmt.Sprintf("%s %s", log.CarLicense, log.Destination),
			Description: fmt.Sprintf("Driver: %s", log.Driver),
			Date:        day,
		})
	}

	name := fmt.Sprintf("OMS %04d-%02d", job.Params.Year, job.Params.Month)
	return s.ics.Render(name, events)
}

func parseExportDate(dateKey, monthKey string) (time.Time, bool) {
	if !strings.HasPrefix(dateKey, monthKey) {
		return time.Time{}, false
	}
	t, err := time.Parse(datefmt.DateKey, dateKey)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", job.Type, timestamp, job.Params.Format)
}

func validateExportRequest(req ExportRequest) error {
	switch req.Type {
	case models.ExportTypeAnnouncements, models.ExportTypeVehicleLogs:
		if req.Format != models.ExportFormatCSV && req.Format != models.ExportFormatPDF {
			return appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
		}
		if req.Period != "" {
			if _, ok := datefmt.ParsePeriod(req.Period); !ok {
				return appErrors.Clone(appErrors.ErrValidation, "invalid period filter")
			}
		}
	case models.ExportTypeCalendar:
		if req.Format != models.ExportFormatICS {
			return appErrors.Clone(appErrors.ErrValidation, "calendar exports support ics only")
		}
		if req.Year < 1 || req.Month < 1 || req.Month > 12 {
			return appErrors.Clone(appErrors.ErrValidation, "year and month are required for calendar exports")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported export type")
	}
	return nil
}

func announcementDataset(rows []models.Announcement) export.Dataset {
	headers := []string{"ID", "Date", "Time", "Title", "Detail", "Location", "Posted By", "File URL"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"ID":        row.ID,
			"Date":      row.Date,
			"Time":      row.DisplayTime,
			"Title":     row.Title,
			"Detail":    row.Detail,
			"Location":  row.Location,
			"Posted By": row.PostedBy,
			"File URL":  row.FileURL,
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}

func vehicleDataset(rows []models.VehicleLog) export.Dataset {
	headers := []string{"ID", "Date", "Car License", "Destination", "Driver", "Status", "Mileage Start", "Mileage End"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"ID":            row.ID,
			"Date":          row.Date,
			"Car License":   row.CarLicense,
			"Destination":   row.Destination,
			"Driver":        row.Driver,
			"Status":        row.Status,
			"Mileage Start": row.MileageStart,
			"Mileage End":   row.MileageEnd,
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}

// ExportWorker bridges queue jobs to ExportService generation.
type ExportWorker struct {
	store      exportJobStore
	exporter   *ExportService
	logger     *zap.Logger
	maxRetries int
}

// NewExportWorker constructs a worker.
func NewExportWorker(store exportJobStore, exporter *ExportService, maxRetries int, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ExportWorker{store: store, exporter: exporter, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queue job.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.store.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}

	record.Status = models.ExportStatusProcessing
	record.Progress = 10
	if err := w.store.Update(ctx, record); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		record.ErrorMessage = err.Error()
		if job.Attempt >= w.maxRetries {
			now := time.Now().UTC()
			record.Status = models.ExportStatusFailed
			record.Progress = 100
			record.FinishedAt = &now
		} else {
			record.Status = models.ExportStatusQueued
			record.Progress = 0
		}
		if updateErr := w.store.Update(ctx, record); updateErr != nil {
			w.logger.Warn("failed to update export job after error",
				zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	now := time.Now().UTC()
	record.Status = models.ExportStatusFinished
	record.Progress = 100
	record.ResultURL = result.URL
	record.ErrorMessage = ""
	record.FinishedAt = &now
	if err := w.store.Update(ctx, record); err != nil {
		w.logger.Warn("failed to mark export job finished",
			zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	return nil
}
