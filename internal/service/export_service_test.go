package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms-suite/oms-gateway/internal/models"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
	"github.com/oms-suite/oms-gateway/pkg/jobs"
	"github.com/oms-suite/oms-gateway/pkg/storage"
)

type fakeExportStore struct {
	jobsByID  map[string]*models.ExportJob
	createErr error
}

func (f *fakeExportStore) Create(ctx context.Context, job *models.ExportJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.jobsByID == nil {
		f.jobsByID = make(map[string]*models.ExportJob)
	}
	copied := *job
	f.jobsByID[job.ID] = &copied
	return nil
}

func (f *fakeExportStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := f.jobsByID[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	copied := *job
	return &copied, nil
}

func (f *fakeExportStore) Update(ctx context.Context, job *models.ExportJob) error {
	copied := *job
	f.jobsByID[job.ID] = &copied
	return nil
}

type fakeDispatcher struct {
	enqueued   []jobs.Job
	enqueueErr error
}

func (f *fakeDispatcher) Enqueue(job jobs.Job) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

type fakeLister struct {
	announcements []models.Announcement
	err           error
}

func (f *fakeLister) List(ctx context.Context, req AnnouncementListRequest) ([]models.Announcement, error) {
	return f.announcements, f.err
}

type fakeVehicleLister struct {
	vehicles []models.VehicleLog
	err      error
}

func (f *fakeVehicleLister) List(ctx context.Context, req VehicleListRequest) ([]models.VehicleLog, error) {
	return f.vehicles, f.err
}

func newTestExportService(t *testing.T, ann *fakeLister, veh *fakeVehicleLister, store *fakeExportStore, queue *fakeDispatcher) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-signing-secret", time.Hour)
	return NewExportService(ann, veh, store, queue, files, signer, ExportConfig{APIPrefix: "/api/v1"}, nil)
}

func TestExportCreateJobQueuesWork(t *testing.T) {
	store := &fakeExportStore{}
	queue := &fakeDispatcher{}
	svc := newTestExportService(t, &fakeLister{}, &fakeVehicleLister{}, store, queue)

	job, err := svc.CreateJob(context.Background(), ExportRequest{
		Type:   models.ExportTypeAnnouncements,
		Format: models.ExportFormatCSV,
		Period: "monthly",
	}, "somchai")
	require.NoError(t, err)

	assert.Equal(t, models.ExportStatusQueued, job.Status)
	assert.Equal(t, "somchai", job.RequestedBy)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, job.ID, queue.enqueued[0].ID)

	stored, err := store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, stored.Status)
}

func TestExportCreateJobValidation(t *testing.T) {
	svc := newTestExportService(t, &fakeLister{}, &fakeVehicleLister{}, &fakeExportStore{}, &fakeDispatcher{})

	cases := []ExportRequest{
		{Type: "reports", Format: models.ExportFormatCSV},
		{Type: models.ExportTypeAnnouncements, Format: models.ExportFormatICS},
		{Type: models.ExportTypeAnnouncements, Format: models.ExportFormatCSV, Period: "weekly"},
		{Type: models.ExportTypeCalendar, Format: models.ExportFormatCSV, Year: 2024, Month: 3},
		{Type: models.ExportTypeCalendar, Format: models.ExportFormatICS, Year: 2024, Month: 13},
		{Type: models.ExportTypeCalendar, Format: models.ExportFormatICS},
	}
	for _, req := range cases {
		_, err := svc.CreateJob(context.Background(), req, "somchai")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestExportCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := &fakeExportStore{}
	queue := &fakeDispatcher{enqueueErr: errors.New("queue full")}
	svc := newTestExportService(t, &fakeLister{}, &fakeVehicleLister{}, store, queue)

	_, err := svc.CreateJob(context.Background(), ExportRequest{
		Type:   models.ExportTypeVehicleLogs,
		Format: models.ExportFormatPDF,
	}, "somchai")
	require.Error(t, err)

	require.Len(t, store.jobsByID, 1)
	for _, job := range store.jobsByID {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
		assert.NotNil(t, job.FinishedAt)
	}
}

func TestExportGetStatusOwnership(t *testing.T) {
	store := &fakeExportStore{}
	svc := newTestExportService(t, &fakeLister{}, &fakeVehicleLister{}, store, &fakeDispatcher{})
	job := &models.ExportJob{ID: "J1", Type: models.ExportTypeAnnouncements, RequestedBy: "somchai"}
	require.NoError(t, store.Create(context.Background(), job))

	owner := &models.JWTClaims{Username: "somchai", Role: models.RoleUser}
	got, err := svc.GetStatus(context.Background(), "J1", owner)
	require.NoError(t, err)
	assert.Equal(t, "J1", got.ID)

	stranger := &models.JWTClaims{Username: "wichai", Role: models.RoleUser}
	_, err = svc.GetStatus(context.Background(), "J1", stranger)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	admin := &models.JWTClaims{Username: "admin", Role: models.RoleAdmin}
	_, err = svc.GetStatus(context.Background(), "J1", admin)
	assert.NoError(t, err)
}

func TestExportWorkerHandleSuccess(t *testing.T) {
	store := &fakeExportStore{}
	ann := &fakeLister{announcements: []models.Announcement{
		{ID: "A1", Date: "2024-03-06", DisplayTime: "09:30", Title: "ประชุม", PostedBy: "admin"},
	}}
	svc := newTestExportService(t, ann, &fakeVehicleLister{}, store, &fakeDispatcher{})
	worker := NewExportWorker(store, svc, 3, nil)

	job := &models.ExportJob{
		ID:     "J1",
		Type:   models.ExportTypeAnnouncements,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	require.NoError(t, store.Create(context.Background(), job))

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "J1", Attempt: 1}))

	done, err := store.GetByID(context.Background(), "J1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.Contains(t, done.ResultURL, "/api/v1/exports/download/")
	require.NotNil(t, done.FinishedAt)

	token := done.ResultURL[strings.LastIndex(done.ResultURL, "/")+1:]
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, models.ExportFormatCSV, download.Format)
	raw, err := os.ReadFile(download.File.Name())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\xEF\xBB\xBF"), "csv starts with a UTF-8 BOM")
	assert.Contains(t, string(raw), "ประชุม")
	assert.Equal(t, ".csv", filepath.Ext(download.Filename))
}

func TestExportWorkerHandleRetriesThenFails(t *testing.T) {
	store := &fakeExportStore{}
	ann := &fakeLister{err: errors.New("upstream down")}
	svc := newTestExportService(t, ann, &fakeVehicleLister{}, store, &fakeDispatcher{})
	worker := NewExportWorker(store, svc, 3, nil)

	job := &models.ExportJob{
		ID:     "J1",
		Type:   models.ExportTypeAnnouncements,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	require.NoError(t, store.Create(context.Background(), job))

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "J1", Attempt: 1}))
	queued, _ := store.GetByID(context.Background(), "J1")
	assert.Equal(t, models.ExportStatusQueued, queued.Status)
	assert.NotEmpty(t, queued.ErrorMessage)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "J1", Attempt: 3}))
	failed, _ := store.GetByID(context.Background(), "J1")
	assert.Equal(t, models.ExportStatusFailed, failed.Status)
	assert.Equal(t, 100, failed.Progress)
	require.NotNil(t, failed.FinishedAt)
}

func TestExportCalendarRendersMonthOnly(t *testing.T) {
	ann := &fakeLister{announcements: []models.Announcement{
		{ID: "A1", Date: "2024-03-06", Title: "ประชุมประจำเดือน"},
		{ID: "A2", Date: "2024-04-01", Title: "นอกเดือน"},
	}}
	veh := &fakeVehicleLister{vehicles: []models.VehicleLog{
		{ID: "V1", Date: "2024-03-15", CarLicense: "กข 1234", Destination: "ศาลากลาง", Driver: "สมศักดิ์"},
	}}
	svc := newTestExportService(t, ann, veh, &fakeExportStore{}, &fakeDispatcher{})

	payload, err := svc.renderCalendar(context.Background(), &models.ExportJob{
		Type:   models.ExportTypeCalendar,
		Params: models.ExportJobParams{Format: models.ExportFormatICS, Year: 2024, Month: 3},
	})
	require.NoError(t, err)

	body := string(payload)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "ann-A1")
	assert.Contains(t, body, "veh-V1")
	assert.NotContains(t, body, "ann-A2")
}

func TestExportResolveDownloadRejectsForgedToken(t *testing.T) {
	svc := newTestExportService(t, &fakeLister{}, &fakeVehicleLister{}, &fakeExportStore{}, &fakeDispatcher{})

	_, err := svc.ResolveDownload(context.Background(), "forged-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
