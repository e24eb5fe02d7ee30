// Package scheduler provides background job scheduling on asynq.
// The webhook pipeline enqueues recording work here so slow provider
// calls never block the webhook response.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"firmos_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Provider media is usually not downloadable the moment the call ends.
// The first fetch attempt waits this long; asynq retries cover the rest.
const recordingFetchDelay = 2 * time.Minute

// Client enqueues background jobs.
type Client struct {
	client *asynq.Client
	queue  string
}

// RecordingScheduler is the interface the webhook pipeline depends on.
type RecordingScheduler interface {
	ScheduleRecordingFetch(ctx context.Context, payload RecordingFetchPayload) error
}

// NewClient creates a scheduler client backed by Redis.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleRecordingFetch enqueues a recording fetch job. The job runs
// after recordingFetchDelay, not immediately.
func (c *Client) ScheduleRecordingFetch(ctx context.Context, payload RecordingFetchPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewRecordingFetchTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, recordingFetchOptions(c.queue)...)
	return err
}

func recordingFetchOptions(queue string) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(5),
		asynq.ProcessIn(recordingFetchDelay),
	}
}

// ScheduleRecordingArchive enqueues a recording archive job.
func (c *Client) ScheduleRecordingArchive(ctx context.Context, payload RecordingArchivePayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewRecordingArchiveTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(3))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
