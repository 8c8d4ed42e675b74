package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/interpay/interpay-api/internal/data"
	"github.com/interpay/interpay-api/internal/domain/model"
	apperrors "github.com/interpay/interpay-api/internal/errors"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Store  *data.ResourceStore // Required
	Logger *slog.Logger        // Optional
}

// JobService answers settlement job status queries. It never mutates jobs.
type JobService struct {
	store  *data.ResourceStore
	logger *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Store == nil {
		return nil, errors.New("ResourceStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{store: opts.Store, logger: logger.With("component", "job_service")}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Get returns the latest snapshot of a job's status and result.
func (s *JobService) Get(ctx context.Context, id string) (*model.JobView, error) {
	job, err := s.store.Jobs.Get(id)
	if errors.Is(err, data.ErrNotFound) {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	s.logger.DebugContext(ctx, "job read", "job_id", id, "status", job.Status)
	view := job.View()
	return &view, nil
}
