// Package redis provides Redis-based adapters for interpay.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/domain/model"
)

// DefaultJobChannel is the pub/sub channel terminal job events are published on.
const DefaultJobChannel = "interpay:jobs"

// JobEvent is the payload published for a terminal job. Grant material is never included.
type JobEvent struct {
	JobID     string          `json:"jobId"`
	Status    model.JobStatus `json:"status"`
	Result    model.JobResult `json:"result"`
	Sender    string          `json:"sender"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewJobEvent projects a job into its published form.
func NewJobEvent(job *model.Job) JobEvent {
	return JobEvent{
		JobID:     job.ID,
		Status:    job.Status,
		Result:    job.Result,
		Sender:    job.Sender.ID,
		Attempts:  job.Attempts,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

// JobPublisherOptions configures a JobPublisher.
type JobPublisherOptions struct {
	Client  redis.UniversalClient // Required
	Channel string                // Optional: DefaultJobChannel when empty
	// SnapshotTTL, when positive, also stores the event under job:<id> for late readers.
	SnapshotTTL time.Duration
	KeyPrefix   string // Optional: "job:" when empty
}

// JobPublisher fans terminal job transitions out over Redis pub/sub.
type JobPublisher struct {
	client  redis.UniversalClient
	channel string
	ttl     time.Duration
	prefix  string
}

var _ core.JobEventPublisher = (*JobPublisher)(nil)

// NewJobPublisher creates a Redis-backed job publisher.
func NewJobPublisher(opts JobPublisherOptions) (*JobPublisher, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	channel := opts.Channel
	if channel == "" {
		channel = DefaultJobChannel
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "job:"
	}
	return &JobPublisher{client: opts.Client, channel: channel, ttl: opts.SnapshotTTL, prefix: prefix}, nil
}

// Channel returns the channel events are published on.
func (p *JobPublisher) Channel() string {
	return p.channel
}

// PublishJob publishes the job's terminal snapshot.
func (p *JobPublisher) PublishJob(ctx context.Context, job *model.Job) error {
	if job == nil || job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	data, err := json.Marshal(NewJobEvent(job))
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}

	if p.ttl > 0 {
		if err := p.client.Set(ctx, p.prefix+job.ID, data, p.ttl).Err(); err != nil {
			return fmt.Errorf("redis set job snapshot: %w", err)
		}
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish job event: %w", err)
	}
	return nil
}

// Snapshot returns the raw stored event for id. ErrNotFound when absent or expired.
func (p *JobPublisher) Snapshot(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	data, err := p.client.Get(ctx, p.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// ErrNotFound is returned when a job snapshot is not stored.
var ErrNotFound = errors.New("job snapshot not found")
