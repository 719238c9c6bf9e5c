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

// VehicleService proxies the vehicle-usage sheet.
type VehicleService struct {
	sheets    announcementSheetClient
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewVehicleService constructs the service.
func NewVehicleService(client announcementSheetClient, validate *validator.Validate, logger *zap.Logger) *VehicleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleService{sheets: client, validator: validate, logger: logger, now: time.Now}
}

// VehicleListRequest describes filters for listing vehicle logs.
type VehicleListRequest struct {
	Period string `json:"period"`
}

// SaveVehicleLogRequest describes the create/update payload.
type SaveVehicleLogRequest struct {
	Date         string `json:"date" validate:"required"`
	CarLicense   string `json:"car_license" validate:"required"`
	Destination  string `json:"destination" validate:"required"`
	Driver       string `json:"driver" validate:"required"`
	Status       string `json:"status"`
	MileageStart string `json:"mileage_start"`
	MileageEnd   string `json:"mileage_end"`
}

// List fetches all vehicle logs, normalising dates and departure/return
// times, with an optional period filter against today's date.
func (s *VehicleService) List(ctx context.Context, req VehicleListRequest) ([]models.VehicleLog, error) {
	var period datefmt.Period
	filtered := false
	if req.Period != "" {
		p, ok := datefmt.ParsePeriod(req.Period)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid period filter")
		}
		period, filtered = p, true
	}

	result, err := s.sheets.Get(ctx, "getVehicleLogs", nil)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	var records []sheets.Record
	if err := result.DecodeData(&records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unreadable vehicle log rows")
	}

	today := s.now()
	logs := make([]models.VehicleLog, 0, len(records))
	for _, rec := range records {
		log := mapVehicleLog(rec)
		if filtered && !period.Matches(log.Date, today) {
			continue
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// Create posts a new vehicle log on behalf of the signed-in admin.
func (s *VehicleService) Create(ctx context.Context, creds models.UpstreamCredentials, req SaveVehicleLogRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vehicle log payload")
	}
	return s.post(ctx, s.payload("addVehicleLog", "", creds, req))
}

// Update modifies an existing vehicle log.
func (s *VehicleService) Update(ctx context.Context, creds models.UpstreamCredentials, id string, req SaveVehicleLogRequest) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "vehicle log id required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vehicle log payload")
	}
	return s.post(ctx, s.payload("updateVehicleLog", id, creds, req))
}

// Delete removes a vehicle log by id.
func (s *VehicleService) Delete(ctx context.Context, creds models.UpstreamCredentials, id string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "vehicle log id required")
	}
	return s.post(ctx, map[string]interface{}{
		"action":   "deleteVehicleLog",
		"id":       id,
		"username": creds.Username,
		"password": creds.Password,
	})
}

func (s *VehicleService) payload(action, id string, creds models.UpstreamCredentials, req SaveVehicleLogRequest) map[string]interface{} {
	status := req.Status
	if status == "" {
		status = "Active"
	}
	body := map[string]interface{}{
		"action":       action,
		"date":         req.Date,
		"carLicense":   req.CarLicense,
		"destination":  req.Destination,
		"driver":       req.Driver,
		"status":       status,
		"mileageStart": req.MileageStart,
		"mileageEnd":   req.MileageEnd,
		"username":     creds.Username,
		"password":     creds.Password,
	}
	if id != "" {
		body["id"] = id
	}
	return body
}

func (s *VehicleService) post(ctx context.Context, body map[string]interface{}) error {
	result, err := s.sheets.Post(ctx, body)
	if err != nil {
		return err
	}
	return result.Err()
}

func mapVehicleLog(rec sheets.Record) models.VehicleLog {
	departure := rec.String("DepartureTime")
	ret := rec.String("ReturnTime")
	known := []string{"ID", "Date", "CarLicense", "Destination", "Driver", "Requestor", "Status", "DepartureTime", "ReturnTime", "MileageStart", "MileageEnd"}
	return models.VehicleLog{
		ID:            rec.String("ID"),
		Date:          datefmt.NormalizeDate(rec.String("Date")),
		CarLicense:    rec.String("CarLicense"),
		Destination:   rec.String("Destination"),
		Driver:        rec.String("Driver"),
		Requestor:     rec.String("Requestor"),
		Status:        rec.String("Status"),
		DepartureTime: datefmt.FormatTimeForDisplay(departure),
		ReturnTime:    datefmt.FormatTimeForDisplay(ret),
		MileageStart:  rec.String("MileageStart"),
		MileageEnd:    rec.String("MileageEnd"),
		Extra:         rec.Rest(known...),
	}
}
