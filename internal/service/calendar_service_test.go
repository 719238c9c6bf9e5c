package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms-suite/oms-gateway/internal/calendar"
	"github.com/oms-suite/oms-gateway/internal/models"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

type fakeCacheRepo struct {
	entries map[string][]byte
	sets    []string
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if f.entries == nil {
		f.entries = make(map[string][]byte)
	}
	f.entries[key] = raw
	f.sets = append(f.sets, key)
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.entries = make(map[string][]byte)
	return nil
}

func newTestCalendarService(client *fakeSheetClient, repo *fakeCacheRepo) *CalendarService {
	var cache *CacheService
	if repo != nil {
		cache = NewCacheService(repo, nil, time.Minute, nil, true)
	}
	svc := NewCalendarService(client, cache, nil, time.Minute)
	svc.now = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCalendarMonthBucketsBothSources(t *testing.T) {
	client := &fakeSheetClient{getResponses: map[string][]byte{
		"getAnnouncements": []byte(`{"success":true,"data":[
			{"ID":"A1","Date":"2024-03-14T20:00:00.000Z","Title":"ประชุม","Time":"1899-12-30T09:00:00.000Z"},
			{"ID":"A2","Date":"broken","Title":"ไม่มีวันที่"}
		]}`),
		"getVehicleLogs": []byte(`{"success":true,"data":[
			{"ID":"V1","Date":"2024-03-15","CarLicense":"กข 1234","Destination":"ศาลากลาง","Driver":"สมศักดิ์","Status":"Active"}
		]}`),
	}}
	svc := newTestCalendarService(client, nil)

	view, cacheHit, err := svc.Month(context.Background(), calendar.NewCursor(2024, 3))
	require.NoError(t, err)
	assert.False(t, cacheHit)
	require.Empty(t, view.DegradedSources)

	assert.Equal(t, 2024, view.Grid.Year)
	assert.Equal(t, 3, view.Grid.Month)
	assert.Contains(t, view.Grid.Title, "มีนาคม")
	assert.Contains(t, view.Grid.Title, "2567")
	assert.Equal(t, calendar.NewCursor(2024, 2), view.Previous)
	assert.Equal(t, calendar.NewCursor(2024, 4), view.Next)

	dated := make(map[string]calendar.Cell)
	for _, cell := range view.Grid.Cells {
		if cell.Date != "" {
			dated[cell.Date] = cell
		}
	}

	// The evening UTC instant lands on the 15th in Bangkok civil time.
	cell15 := dated["2024-03-15"]
	assert.True(t, cell15.IsToday)
	assert.Equal(t, 1, cell15.Events[models.CategoryAnnouncement].Count)
	assert.Equal(t, 1, cell15.Events[models.CategoryVehicleUsage].Count)
	assert.Equal(t, "กข 1234 - ศาลากลาง", cell15.Events[models.CategoryVehicleUsage].Events[0].Label)

	// The row with an unparseable date is dropped rather than misfiled.
	for _, cell := range view.Grid.Cells {
		for _, bucket := range cell.Events {
			for _, ev := range bucket.Events {
				assert.NotEqual(t, "A2", ev.SourceID)
			}
		}
	}
}

func TestCalendarMonthPartialDegradation(t *testing.T) {
	client := &fakeSheetClient{getResponses: map[string][]byte{
		"getAnnouncements": []byte(`{"success":true,"data":[
			{"ID":"A1","Date":"2024-03-10","Title":"ประกาศ"}
		]}`),
	}}
	repo := &fakeCacheRepo{}
	svc := newTestCalendarService(client, repo)

	view, _, err := svc.Month(context.Background(), calendar.NewCursor(2024, 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"vehicle-logs"}, view.DegradedSources)

	found := false
	for _, cell := range view.Grid.Cells {
		if cell.Date == "2024-03-10" {
			found = cell.Events[models.CategoryAnnouncement].Count == 1
		}
	}
	assert.True(t, found, "surviving source should still render")

	// Degraded results never enter the cache.
	assert.Empty(t, repo.sets)
}

func TestCalendarMonthAllSourcesFailed(t *testing.T) {
	client := &fakeSheetClient{getErr: errors.New("upstream down")}
	svc := newTestCalendarService(client, nil)

	_, _, err := svc.Month(context.Background(), calendar.NewCursor(2024, 3))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestCalendarMonthCachesSuccessfulLoads(t *testing.T) {
	client := &fakeSheetClient{getResponses: map[string][]byte{
		"getAnnouncements": []byte(`{"success":true,"data":[]}`),
		"getVehicleLogs":   []byte(`{"success":true,"data":[]}`),
	}}
	repo := &fakeCacheRepo{}
	svc := newTestCalendarService(client, repo)
	cursor := calendar.NewCursor(2024, 3)

	first, cacheHit, err := svc.Month(context.Background(), cursor)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	require.Len(t, repo.sets, 1)
	assert.Contains(t, repo.sets[0], "calendar:grid:2024-03:2024-03-15")

	// Upstream failures after a successful load are absorbed by the cache.
	client.getErr = errors.New("upstream down")
	second, cacheHit, err := svc.Month(context.Background(), cursor)
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, first.Grid.Title, second.Grid.Title)
	assert.Len(t, second.Grid.Cells, len(first.Grid.Cells))
}

func TestCalendarCurrentCursor(t *testing.T) {
	svc := newTestCalendarService(&fakeSheetClient{}, nil)
	assert.Equal(t, calendar.NewCursor(2024, 3), svc.CurrentCursor())
}
