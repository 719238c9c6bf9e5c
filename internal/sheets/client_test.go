package sheets

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms-suite/oms-gateway/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.SheetsConfig{URL: server.URL, Timeout: 5 * time.Second}, nil)
}

func TestClientGetEncodesActionAndParams(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"success":true,"data":[{"ID":"a-1","Title":"ประกาศ"}]}`))
	})

	result, err := client.Get(context.Background(), "getAnnouncements", map[string]string{"period": "monthly"})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.Contains(t, gotQuery, "action=getAnnouncements")
	assert.Contains(t, gotQuery, "period=monthly")

	var rows []Record
	require.NoError(t, result.DecodeData(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "a-1", rows[0].String("ID"))
}

func TestClientPostSendsPlainTextContentType(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"success":true,"message":"saved"}`))
	})

	result, err := client.Post(context.Background(), map[string]interface{}{
		"action": "addAnnouncement",
		"title":  "ประชุม",
	})
	require.NoError(t, err)
	require.NoError(t, result.Err())
	assert.Equal(t, "saved", result.Message)

	assert.Equal(t, "text/plain;charset=utf-8", gotContentType)
	assert.Contains(t, string(gotBody), `"action":"addAnnouncement"`)
}

func TestClientDecodesTopLevelFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"username":"sakda","name":"Sakda","role":"Admin"}`))
	})

	result, err := client.Get(context.Background(), "login", map[string]string{"username": "sakda", "password": "x"})
	require.NoError(t, err)

	var body struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	require.NoError(t, result.Decode(&body))
	assert.Equal(t, "sakda", body.Username)
	assert.Equal(t, "Admin", body.Role)
}

func TestClientUnsuccessfulResultCarriesUpstreamMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"Invalid credentials"}`))
	})

	result, err := client.Get(context.Background(), "login", nil)
	require.NoError(t, err)
	err = result.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestClientErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Get(context.Background(), "getVehicleLogs", nil)
	require.Error(t, err)
}

func TestClientUnreachable(t *testing.T) {
	client := NewClient(config.SheetsConfig{URL: "http://127.0.0.1:1", Timeout: time.Second}, nil)
	_, err := client.Get(context.Background(), "getDashboard", nil)
	require.Error(t, err)
}

func TestRecordCaseInsensitiveLookup(t *testing.T) {
	record := Record{
		"Requestor":    "somchai",
		"CarLicense":   "กข 1234",
		"MileageStart": float64(12034),
		"Approved":     true,
		"Note":         nil,
	}

	assert.Equal(t, "somchai", record.String("requestor"))
	assert.Equal(t, "somchai", record.String("Requestor"))
	assert.Equal(t, "12034", record.String("mileagestart"))
	assert.Equal(t, "true", record.String("approved"))
	assert.Equal(t, "", record.String("note"))
	assert.Equal(t, "", record.String("missing"))
}

func TestRecordStringPrefersFirstNonEmptyKey(t *testing.T) {
	record := Record{"Driver": "", "driver2": "prasit"}
	assert.Equal(t, "prasit", record.String("Driver", "Driver2"))
}

func TestRecordRest(t *testing.T) {
	record := Record{
		"ID":     "v-1",
		"Date":   "2024-03-05",
		"Remark": "ด่วน",
	}
	rest := record.Rest("id", "date")
	require.Len(t, rest, 1)
	assert.Equal(t, "ด่วน", rest["Remark"])

	assert.Nil(t, Record{}.Rest())
	assert.Nil(t, record.Rest("id", "date", "remark"))
}
