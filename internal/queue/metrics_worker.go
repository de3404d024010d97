package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
)

type MetricsWorker struct {
	credentials repository.CredentialRepository
	snapshots   repository.PlatformMetricsRepository
	factory     AdapterFactory
	vault       CredentialOpener
	recorder    metrics.Recorder
}

func NewMetricsWorker(
	credentials repository.CredentialRepository,
	snapshots repository.PlatformMetricsRepository,
	factory AdapterFactory,
	vault CredentialOpener,
	recorder metrics.Recorder) *MetricsWorker {
	return &MetricsWorker{
		credentials: credentials,
		snapshots:   snapshots,
		factory:     factory,
		vault:       vault,
		recorder:    recorder,
	}
}

// HandleCollectMetricsTask stores one engagement snapshot. Errors go back to
// the queue for retry.
func (w *MetricsWorker) HandleCollectMetricsTask(ctx context.Context, task *asynq.Task) error {
	var p CollectMetricsPayload
	if err := decode(task, &p); err != nil {
		return fmt.Errorf("decode metrics payload: %v: %w", err, asynq.SkipRetry)
	}

	err := w.collect(ctx, p)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		slog.Warn("metrics collection failed", "platform", p.Platform, "platform_post_id", p.PlatformPostID, "error", err)
	}
	w.recorder.RecordMetricsCollection(string(p.Platform), outcome)
	return err
}

func (w *MetricsWorker) collect(ctx context.Context, p CollectMetricsPayload) error {
	cred, err := w.credentials.GetActive(ctx, p.UserID, p.Platform)
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("no active %s credentials for user %d: %w", p.Platform, p.UserID, asynq.SkipRetry)
	}

	adapter, err := w.factory.New(p.Platform)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	creds, err := w.vault.DecryptCredentials(cred.Credentials)
	if err != nil {
		return fmt.Errorf("open credentials: %v: %w", err, asynq.SkipRetry)
	}
	adapter.Initialize(creds)

	m, err := adapter.GetMetrics(ctx, p.PlatformPostID)
	if err != nil {
		return err
	}

	_, err = w.snapshots.Create(ctx, &models.PlatformMetrics{
		PlatformPostID: p.PlatformPostID,
		Platform:       p.Platform,
		Likes:          m.Likes,
		Shares:         m.Shares,
		Comments:       m.Comments,
		Views:          m.Views,
		Engagement:     m.Engagement,
		CollectedAt:    m.CollectedAt,
	})
	return err
}
