package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms-suite/oms-gateway/internal/models"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

func TestUploadForwardsBase64Content(t *testing.T) {
	client := &fakeSheetClient{postResponse: []byte(`{"success":true,"fileURL":"https://drive.example.com/f/abc"}`)}
	svc := NewUploadService(client, nil, nil, 0)
	creds := models.UpstreamCredentials{Username: "admin", Password: "pw"}

	res, err := svc.Upload(context.Background(), creds, "รายงาน.pdf", "application/pdf", bytes.NewReader([]byte("%PDF-1.4 test")))
	require.NoError(t, err)
	assert.Equal(t, "https://drive.example.com/f/abc", res.FileURL)

	assert.Equal(t, "uploadFile", client.lastPostBody["action"])
	assert.Equal(t, "รายงาน.pdf", client.lastPostBody["fileName"])
	assert.Equal(t, "application/pdf", client.lastPostBody["mimeType"])
	assert.Equal(t, "admin", client.lastPostBody["username"])

	encoded, _ := client.lastPostBody["base64Data"].(string)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(decoded))
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc := NewUploadService(&fakeSheetClient{}, nil, nil, 16)

	_, err := svc.Upload(context.Background(), models.UpstreamCredentials{}, "big.bin", "application/octet-stream", strings.NewReader(strings.Repeat("x", 17)))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFileTooLarge.Code, appErrors.FromError(err).Code)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc := NewUploadService(&fakeSheetClient{}, nil, nil, 0)

	_, err := svc.Upload(context.Background(), models.UpstreamCredentials{}, "empty.txt", "text/plain", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadRequiresFileName(t *testing.T) {
	svc := NewUploadService(&fakeSheetClient{}, nil, nil, 0)

	_, err := svc.Upload(context.Background(), models.UpstreamCredentials{}, "", "text/plain", strings.NewReader("hi"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadSurfacesUpstreamRejection(t *testing.T) {
	client := &fakeSheetClient{postResponse: []byte(`{"success":false,"error":"โควต้าเต็ม"}`)}
	svc := NewUploadService(client, nil, nil, 0)

	_, err := svc.Upload(context.Background(), models.UpstreamCredentials{Username: "a", Password: "b"}, "f.txt", "text/plain", strings.NewReader("hello"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstreamRejected.Code, appErr.Code)
	assert.Equal(t, "โควต้าเต็ม", appErr.Message)
}
