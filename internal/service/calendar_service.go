package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oms-suite/oms-gateway/internal/calendar"
	"github.com/oms-suite/oms-gateway/internal/datefmt"
	"github.com/oms-suite/oms-gateway/internal/models"
	"github.com/oms-suite/oms-gateway/internal/sheets"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

type calendarSheetClient interface {
	Get(ctx context.Context, action string, params map[string]string) (*sheets.Result, error)
}

// CalendarService assembles the month grid from the two event sources. The
// pulls run concurrently and a failure in one source does not block the
// other; the grid renders whatever succeeded and reports the degraded
// sources alongside.
type CalendarService struct {
	sheets calendarSheetClient
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewCalendarService constructs the service.
func NewCalendarService(client calendarSheetClient, cache *CacheService, logger *zap.Logger, ttl time.Duration) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{sheets: client, cache: cache, logger: logger, ttl: ttl, now: time.Now}
}

// MonthView is the assembled calendar payload for one month.
type MonthView struct {
	Grid            calendar.Grid   `json:"grid"`
	DegradedSources []string        `json:"degraded_sources,omitempty"`
	Previous        calendar.Cursor `json:"previous"`
	Next            calendar.Cursor `json:"next"`
	Today           calendar.Cursor `json:"today"`
}

// Month builds the grid for the given cursor position. Fully successful
// loads are cached per month; degraded ones are not, so a source that
// recovers shows up on the next request. The cache key includes the current
// civil date because isToday is baked into the cells. The bool reports
// whether the view came from cache.
func (s *CalendarService) Month(ctx context.Context, cursor calendar.Cursor) (*MonthView, bool, error) {
	now := s.now()
	cacheKey := fmt.Sprintf("calendar:grid:%04d-%02d:%s", cursor.Year, int(cursor.Month), now.Format(datefmt.DateKey))

	if s.cache.Enabled() {
		var cached MonthView
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	events, degraded, err := s.loadEvents(ctx)
	if err != nil {
		return nil, false, err
	}

	view := &MonthView{
		Grid:            calendar.BuildMonthGrid(cursor.Year, cursor.Month, events, now),
		DegradedSources: degraded,
		Previous:        cursor.Previous(),
		Next:            cursor.Next(),
		Today:           calendar.CursorFor(now),
	}

	if len(degraded) == 0 && s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, view, s.ttl); err != nil {
			s.logger.Warn("failed to cache month grid", zap.Error(err))
		}
	}
	return view, false, nil
}

// CurrentCursor returns the cursor for the month containing now.
func (s *CalendarService) CurrentCursor() calendar.Cursor {
	return calendar.CursorFor(s.now())
}

// Invalidate drops all cached month grids. Mutation endpoints call this so a
// new announcement or vehicle log shows up immediately.
func (s *CalendarService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "calendar:grid:*"); err != nil {
		s.logger.Warn("failed to invalidate calendar cache", zap.Error(err))
	}
}

// loadEvents pulls both sources in parallel. Only when every source fails is
// an error returned; otherwise the failed sources are reported as degraded.
func (s *CalendarService) loadEvents(ctx context.Context) ([]models.CalendarEvent, []string, error) {
	type pull struct {
		name   string
		events []models.CalendarEvent
		err    error
	}

	pulls := []*pull{{name: "announcements"}, {name: "vehicle-logs"}}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pulls[0].events, pulls[0].err = s.fetchAnnouncementEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		pulls[1].events, pulls[1].err = s.fetchVehicleEvents(ctx)
	}()
	wg.Wait()

	var events []models.CalendarEvent
	var degraded []string
	for _, p := range pulls {
		if p.err != nil {
			s.logger.Warn("calendar source failed", zap.String("source", p.name), zap.Error(p.err))
			degraded = append(degraded, p.name)
			continue
		}
		events = append(events, p.events...)
	}
	if len(degraded) == len(pulls) {
		return nil, nil, appErrors.Clone(appErrors.ErrUpstream, "all calendar sources failed")
	}
	return events, degraded, nil
}

func (s *CalendarService) fetchAnnouncementEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	records, err := s.fetch(ctx, "getAnnouncements")
	if err != nil {
		return nil, err
	}
	events := make([]models.CalendarEvent, 0, len(records))
	for _, rec := range records {
		date := datefmt.NormalizeDate(rec.String("Date"))
		if !datefmt.IsCanonicalDate(date) {
			continue
		}
		events = append(events, models.CalendarEvent{
			Category: models.CategoryAnnouncement,
			Date:     date,
			Label:    rec.String("Title"),
			SourceID: rec.String("ID"),
			Attributes: map[string]string{
				"time":     datefmt.FormatTimeForDisplay(rec.String("Time")),
				"location": rec.String("Location"),
			},
		})
	}
	return events, nil
}

func (s *CalendarService) fetchVehicleEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	records, err := s.fetch(ctx, "getVehicleLogs")
	if err != nil {
		return nil, err
	}
	events := make([]models.CalendarEvent, 0, len(records))
	for _, rec := range records {
		date := datefmt.NormalizeDate(rec.String("Date"))
		if !datefmt.IsCanonicalDate(date) {
			continue
		}
		label := rec.String("CarLicense")
		if dest := rec.String("Destination"); dest != "" {
			if label != "" {
				label += " - "
			}
			label += dest
		}
		events = append(events, models.CalendarEvent{
			Category: models.CategoryVehicleUsage,
			Date:     date,
			Label:    label,
			SourceID: rec.String("ID"),
			Attributes: map[string]string{
				"driver": rec.String("Driver"),
				"status": rec.String("Status"),
			},
		})
	}
	return events, nil
}

func (s *CalendarService) fetch(ctx context.Context, action string) ([]sheets.Record, error) {
	result, err := s.sheets.Get(ctx, action, nil)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	var records []sheets.Record
	if err := result.DecodeData(&records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unreadable calendar rows")
	}
	return records, nil
}
