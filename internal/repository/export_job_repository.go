package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oms-suite/oms-gateway/internal/models"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

const exportJobKeyPrefix = "export:job:"

// ExportJobRepository keeps export job records in Redis. Jobs share the
// export result TTL so a record outlives its download window by a little and
// then disappears with it.
type ExportJobRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository(client *redis.Client, ttl time.Duration) *ExportJobRepository {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &ExportJobRepository{client: client, ttl: ttl}
}

// Create stores a new job record.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	return r.write(ctx, job)
}

// GetByID loads a job record.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if r.client == nil {
		return nil, appErrors.ErrNotFound
	}
	payload, err := r.client.Get(ctx, exportJobKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get export job %s: %w", id, err)
	}
	var job models.ExportJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("unmarshal export job %s: %w", id, err)
	}
	return &job, nil
}

// Update overwrites the job record, refreshing its TTL.
func (r *ExportJobRepository) Update(ctx context.Context, job *models.ExportJob) error {
	return r.write(ctx, job)
}

func (r *ExportJobRepository) write(ctx context.Context, job *models.ExportJob) error {
	if r.client == nil {
		return fmt.Errorf("export job store unavailable")
	}
	if job == nil || job.ID == "" {
		return fmt.Errorf("export job id required")
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal export job %s: %w", job.ID, err)
	}
	if err := r.client.Set(ctx, exportJobKeyPrefix+job.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set export job %s: %w", job.ID, err)
	}
	return nil
}
