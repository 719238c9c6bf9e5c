package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms-suite/oms-gateway/internal/models"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

const announcementRows = `{"success":true,"data":[
	{"ID":"A1","Date":"2024-03-05T20:30:00.000Z","Time":"1899-12-30T09:30:00.000Z","Title":"ประชุมประจำเดือน","Detail":"ห้องประชุมใหญ่","PostedBy":"admin"},
	{"ID":"A2","Date":"2024-03-10","Time":"","Title":"ตรวจสุขภาพ","FileURL":"https://example.com/f.pdf"},
	{"ID":"A3","Date":"2023-12-31","Time":"13:00:00","Title":"เก่า"}
]}`

func newTestAnnouncementService(client *fakeSheetClient) *AnnouncementService {
	svc := NewAnnouncementService(client, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAnnouncementListNormalisesFields(t *testing.T) {
	client := &fakeSheetClient{getResponses: map[string][]byte{
		"getAnnouncements": []byte(announcementRows),
	}}
	svc := newTestAnnouncementService(client)

	rows, err := svc.List(context.Background(), AnnouncementListRequest{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// UTC evening instant rolls forward to the Bangkok civil date.
	assert.Equal(t, "2024-03-06", rows[0].Date)
	assert.Equal(t, "09:30", rows[0].Time)
	assert.Equal(t, "09:30", rows[0].DisplayTime)

	assert.Equal(t, "2024-03-10", rows[1].Date)
	assert.Equal(t, "", rows[1].Time)
	assert.Equal(t, "-", rows[1].DisplayTime)

	assert.Equal(t, "13:00", rows[2].Time)
}

func TestAnnouncementListPeriodFilter(t *testing.T) {
	client := &fakeSheetClient{getResponses: map[string][]byte{
		"getAnnouncements": []byte(announcementRows),
	}}
	svc := newTestAnnouncementService(client)

	rows, err := svc.List(context.Background(), AnnouncementListRequest{Period: "monthly"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A1", rows[0].ID)
	assert.Equal(t, "A2", rows[1].ID)

	rows, err = svc.List(context.Background(), AnnouncementListRequest{Period: "yearly"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = svc.List(context.Background(), AnnouncementListRequest{Period: "weekly"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAnnouncementCreateAttachesCredentials(t *testing.T) {
	client := &fakeSheetClient{}
	svc := newTestAnnouncementService(client)
	creds := models.UpstreamCredentials{Username: "admin", Password: "pw"}

	err := svc.Create(context.Background(), creds, SaveAnnouncementRequest{
		Title:   "ประกาศใหม่",
		Detail:  "รายละเอียด",
		FileURL: "https://example.com/doc.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "addAnnouncement", client.lastPostBody["action"])
	assert.Equal(t, "ประกาศใหม่", client.lastPostBody["title"])
	assert.Equal(t, "admin", client.lastPostBody["username"])
	assert.Equal(t, "pw", client.lastPostBody["password"])
}

func TestAnnouncementUpdateRequiresID(t *testing.T) {
	svc := newTestAnnouncementService(&fakeSheetClient{})

	err := svc.Update(context.Background(), models.UpstreamCredentials{}, "", SaveAnnouncementRequest{Title: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAnnouncementDeleteSurfacesUpstreamRejection(t *testing.T) {
	client := &fakeSheetClient{postResponse: []byte(`{"success":false,"error":"ไม่มีสิทธิ์"}`)}
	svc := newTestAnnouncementService(client)

	err := svc.Delete(context.Background(), models.UpstreamCredentials{Username: "u", Password: "p"}, "A1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstreamRejected.Code, appErr.Code)
	assert.Equal(t, "ไม่มีสิทธิ์", appErr.Message)
}
