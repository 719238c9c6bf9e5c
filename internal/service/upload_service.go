package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oms-suite/oms-gateway/internal/models"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

// UploadService forwards file attachments to the sheet backend, which parks
// them in Drive and hands back a shareable URL.
type UploadService struct {
	sheets    announcementSheetClient
	validator *validator.Validate
	logger    *zap.Logger
	maxBytes  int64
}

// NewUploadService constructs the service.
func NewUploadService(client announcementSheetClient, validate *validator.Validate, logger *zap.Logger, maxBytes int64) *UploadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &UploadService{sheets: client, validator: validate, logger: logger, maxBytes: maxBytes}
}

// UploadResult carries the stored file's URL.
type UploadResult struct {
	FileURL string `json:"file_url"`
}

type upstreamUploadResult struct {
	Success bool   `json:"success"`
	FileURL string `json:"fileURL"`
	Error   string `json:"error"`
}

// Upload streams the file content to the backend as base64. Content is read
// through a size-capped reader so an oversized body fails before the whole
// thing is buffered.
func (s *UploadService) Upload(ctx context.Context, creds models.UpstreamCredentials, fileName, mimeType string, content io.Reader) (*UploadResult, error) {
	if fileName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file name required")
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read file content")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds the %d MB upload limit", s.maxBytes>>20))
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file content is empty")
	}

	result, err := s.sheets.Post(ctx, map[string]interface{}{
		"action":     "uploadFile",
		"fileName":   fileName,
		"mimeType":   mimeType,
		"base64Data": base64.StdEncoding.EncodeToString(data),
		"username":   creds.Username,
		"password":   creds.Password,
	})
	if err != nil {
		return nil, err
	}

	var upload upstreamUploadResult
	if err := result.Decode(&upload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unreadable upload response")
	}
	if !upload.Success {
		return nil, appErrors.Clone(appErrors.ErrUpstreamRejected, upload.Error)
	}

	s.logger.Info("file uploaded",
		zap.String("file_name", fileName),
		zap.Int("size_bytes", len(data)))

	return &UploadResult{FileURL: upload.FileURL}, nil
}
