package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const listPageSize = 500

type asynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewQueue returns a Queue backed by the asynq client and inspector.
func NewQueue(client *asynq.Client, inspector *asynq.Inspector) Queue {
	return &asynqQueue{client: client, inspector: inspector}
}

func (q *asynqQueue) Enqueue(ctx context.Context, queue, taskType string, payload any, opts Options) (string, error) {
	raw, err := wrap(payload, opts.Backoff)
	if err != nil {
		return "", err
	}

	taskOpts := []asynq.Option{asynq.Queue(queue)}
	if opts.Delay > 0 {
		taskOpts = append(taskOpts, asynq.ProcessIn(opts.Delay))
	}
	if opts.Attempts > 0 {
		taskOpts = append(taskOpts, asynq.MaxRetry(opts.Attempts-1))
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(taskType, raw), taskOpts...)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", taskType, err)
	}

	slog.Info("task enqueued", "type", taskType, "queue", queue, "job_id", info.ID, "delay", opts.Delay)
	return info.ID, nil
}

func (q *asynqQueue) ListJobs(ctx context.Context, queue string) ([]Job, error) {
	listers := []func(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error){
		q.inspector.ListPendingTasks,
		q.inspector.ListScheduledTasks,
		q.inspector.ListRetryTasks,
	}

	var jobs []Job
	for _, list := range listers {
		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			infos, err := list(queue, asynq.PageSize(listPageSize), asynq.Page(page))
			if errors.Is(err, asynq.ErrQueueNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			for _, info := range infos {
				jobs = append(jobs, Job{
					ID:            info.ID,
					Type:          info.Type,
					Queue:         info.Queue,
					State:         info.State.String(),
					Payload:       info.Payload,
					NextProcessAt: info.NextProcessAt,
				})
			}
			if len(infos) < listPageSize {
				break
			}
		}
	}
	return jobs, nil
}

func (q *asynqQueue) RemoveJob(ctx context.Context, queue, id string) error {
	if err := q.inspector.DeleteTask(queue, id); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
		return err
	}
	return nil
}
