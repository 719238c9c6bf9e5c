package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oms-suite/oms-gateway/internal/datefmt"
	"github.com/oms-suite/oms-gateway/internal/models"
	"github.com/oms-suite/oms-gateway/internal/sheets"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

type announcementSheetClient interface {
	Get(ctx context.Context, action string, params map[string]string) (*sheets.Result, error)
	Post(ctx context.Context, body map[string]interface{}) (*sheets.Result, error)
}

// AnnouncementService proxies the announcement sheet through the gateway,
// normalising the date and time columns on the way out.
type AnnouncementService struct {
	sheets    announcementSheetClient
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(client announcementSheetClient, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{sheets: client, validator: validate, logger: logger, now: time.Now}
}

// AnnouncementListRequest describes filters for listing announcements.
type AnnouncementListRequest struct {
	Period string `json:"period"`
}

// SaveAnnouncementRequest describes the create/update payload.
type SaveAnnouncementRequest struct {
	Title   string `json:"title" validate:"required"`
	Detail  string `json:"detail"`
	FileURL string `json:"file_url"`
}

// List fetches all announcements, normalises their date and time fields and
// applies the optional period filter against today's date.
func (s *AnnouncementService) List(ctx context.Context, req AnnouncementListRequest) ([]models.Announcement, error) {
	var period datefmt.Period
	filtered := false
	if req.Period != "" {
		p, ok := datefmt.ParsePeriod(req.Period)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid period filter")
		}
		period, filtered = p, true
	}

	result, err := s.sheets.Get(ctx, "getAnnouncements", nil)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	var records []sheets.Record
	if err := result.DecodeData(&records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unreadable announcement rows")
	}

	today := s.now()
	announcements := make([]models.Announcement, 0, len(records))
	for _, rec := range records {
		ann := mapAnnouncement(rec)
		if filtered && !period.Matches(ann.Date, today) {
			continue
		}
		announcements = append(announcements, ann)
	}
	return announcements, nil
}

// Create posts a new announcement on behalf of the signed-in admin.
func (s *AnnouncementService) Create(ctx context.Context, creds models.UpstreamCredentials, req SaveAnnouncementRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	return s.post(ctx, map[string]interface{}{
		"action":   "addAnnouncement",
		"title":    req.Title,
		"detail":   req.Detail,
		"fileURL":  req.FileURL,
		"username": creds.Username,
		"password": creds.Password,
	})
}

// Update modifies an existing announcement.
func (s *AnnouncementService) Update(ctx context.Context, creds models.UpstreamCredentials, id string, req SaveAnnouncementRequest) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "announcement id required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	return s.post(ctx, map[string]interface{}{
		"action":   "updateAnnouncement",
		"id":       id,
		"title":    req.Title,
		"detail":   req.Detail,
		"fileURL":  req.FileURL,
		"username": creds.Username,
		"password": creds.Password,
	})
}

// Delete removes an announcement by id.
func (s *AnnouncementService) Delete(ctx context.Context, creds models.UpstreamCredentials, id string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "announcement id required")
	}
	return s.post(ctx, map[string]interface{}{
		"action":   "deleteAnnouncement",
		"id":       id,
		"username": creds.Username,
		"password": creds.Password,
	})
}

func (s *AnnouncementService) post(ctx context.Context, body map[string]interface{}) error {
	result, err := s.sheets.Post(ctx, body)
	if err != nil {
		return err
	}
	return result.Err()
}

// mapAnnouncement converts a raw sheet row into the API model. The sheet
// stores headers in PascalCase; the lookup tolerates case drift.
func mapAnnouncement(rec sheets.Record) models.Announcement {
	rawTime := rec.String("Time")
	known := []string{"ID", "Date", "Time", "Title", "Detail", "Location", "PostedBy", "FileURL"}
	return models.Announcement{
		ID:          rec.String("ID"),
		Date:        datefmt.NormalizeDate(rec.String("Date")),
		Time:        datefmt.NormalizeTimeForEditing(rawTime),
		DisplayTime: datefmt.FormatTimeForDisplay(rawTime),
		Title:       rec.String("Title"),
		Detail:      rec.String("Detail"),
		Location:    rec.String("Location"),
		PostedBy:    rec.String("PostedBy"),
		FileURL:     rec.String("FileURL"),
		Extra:       rec.Rest(known...),
	}
}
