package queue

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
)

// NewServer returns an asynq server that works on a single queue with the
// given concurrency.
func NewServer(redis asynq.RedisConnOpt, queue string, concurrency int) *asynq.Server {
	return asynq.NewServer(redis, asynq.Config{
		Concurrency:    concurrency,
		Queues:         map[string]int{queue: 1},
		RetryDelayFunc: RetryDelay,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			max, _ := asynq.GetMaxRetry(ctx)
			slog.Warn("task failed", "type", task.Type(), "queue", queue, "retried", retried, "max_retry", max, "error", err)
		}),
		Logger:   slogAdapter{},
		LogLevel: asynq.WarnLevel,
	})
}

// NewPublishMux routes publish jobs to w.
func NewPublishMux(w *PostWorker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(loggingMiddleware)
	mux.HandleFunc(TaskTypePublishPost, w.HandlePublishTask)
	return mux
}

// NewMetricsMux routes metrics jobs to w.
func NewMetricsMux(w *MetricsWorker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(loggingMiddleware)
	mux.HandleFunc(TaskTypeCollectMetrics, w.HandleCollectMetricsTask)
	return mux
}

func loggingMiddleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		id, _ := asynq.GetTaskID(ctx)
		err := next.ProcessTask(ctx, t)
		slog.Info("task processed", "type", t.Type(), "job_id", id, "duration", time.Since(start), "ok", err == nil)
		return err
	})
}

// slogAdapter sends asynq's own logs through slog.
type slogAdapter struct{}

func (slogAdapter) Debug(args ...interface{}) { slog.Debug("asynq", "msg", args) }
func (slogAdapter) Info(args ...interface{})  { slog.Info("asynq", "msg", args) }
func (slogAdapter) Warn(args ...interface{})  { slog.Warn("asynq", "msg", args) }
func (slogAdapter) Error(args ...interface{}) { slog.Error("asynq", "msg", args) }
func (slogAdapter) Fatal(args ...interface{}) {
	slog.Error("asynq fatal", "msg", args)
	os.Exit(1)
}
