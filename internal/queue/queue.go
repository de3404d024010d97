// Package queue runs publish and metrics jobs on asynq.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/models"
)

const (
	TaskTypePublishPost    = "publish:post"
	TaskTypeCollectMetrics = "metrics:collect"

	QueuePublish = "publish"
	QueueMetrics = "metrics"
)

type PublishPostPayload struct {
	PostID   string             `json:"post_id"`
	UserID   int64              `json:"user_id"`
	Platform models.Platform    `json:"platform"`
	Content  models.PostContent `json:"content"`
	// Credentials is the encrypted blob; it is opened inside the worker only.
	Credentials string `json:"credentials"`
}

type CollectMetricsPayload struct {
	UserID         int64           `json:"user_id"`
	PlatformPostID string          `json:"platform_post_id"`
	Platform       models.Platform `json:"platform"`
}

// Options control delivery of one job. Attempts counts the first run, so
// Attempts 3 means two retries. Backoff is the first retry delay and doubles
// on every further retry.
type Options struct {
	Delay    time.Duration
	Attempts int
	Backoff  time.Duration
}

// Job is a job that has not started yet.
type Job struct {
	ID            string
	Type          string
	Queue         string
	State         string
	Payload       []byte
	NextProcessAt time.Time
}

// Queue is the durable, delay-capable job queue.
type Queue interface {
	Enqueue(ctx context.Context, queue, taskType string, payload any, opts Options) (string, error)
	// ListJobs returns waiting, delayed and retry-pending jobs of a queue.
	ListJobs(ctx context.Context, queue string) ([]Job, error)
	RemoveJob(ctx context.Context, queue, id string) error
}

// envelope wraps every payload so the retry delay function can read the
// backoff chosen at enqueue time.
type envelope struct {
	Backoff time.Duration   `json:"backoff,omitempty"`
	Data    json.RawMessage `json:"data"`
}

func wrap(payload any, backoff time.Duration) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Backoff: backoff, Data: data})
}

// Unwrap decodes the payload of a job created by Enqueue.
func Unwrap(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, out)
}

func decode(task *asynq.Task, out any) error {
	return Unwrap(task.Payload(), out)
}

// RetryDelay doubles the enqueue-time backoff per retry. Jobs without one
// fall back to the asynq default.
func RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	var env envelope
	if json.Unmarshal(task.Payload(), &env) != nil || env.Backoff <= 0 {
		return asynq.DefaultRetryDelayFunc(n, err, task)
	}
	if n > 16 {
		n = 16
	}
	return env.Backoff * time.Duration(1<<uint(n))
}
