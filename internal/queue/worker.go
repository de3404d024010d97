package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/content"
	"github.com/maheshrc27/postflow/internal/media"
	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/notification"
	"github.com/maheshrc27/postflow/internal/platform"
	"github.com/maheshrc27/postflow/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/maheshrc27/postflow/internal/queue"

type AdapterFactory interface {
	New(p models.Platform) (platform.Adapter, error)
}

type CredentialOpener interface {
	DecryptCredentials(blob string) (models.Credentials, error)
}

type MediaPreparer interface {
	Prepare(ctx context.Context, c models.PostContent, reqs models.Requirements) (models.PostContent, error)
}

// MetricsScheduler is implemented by the hub manager.
type MetricsScheduler interface {
	ScheduleMetricsCollection(ctx context.Context, userID int64, platformPostID string, p models.Platform) error
}

// attemptInfo reports how often the running job was retried and how many
// retries it is allowed.
type attemptInfo func(ctx context.Context) (retried, max int)

func asynqAttempts(ctx context.Context) (int, int) {
	retried, _ := asynq.GetRetryCount(ctx)
	max, _ := asynq.GetMaxRetry(ctx)
	return retried, max
}

type PostWorker struct {
	posts         repository.PostRepository
	platformPosts repository.PlatformPostRepository
	jobMetrics    repository.JobMetricsRepository
	factory       AdapterFactory
	vault         CredentialOpener
	media         MediaPreparer
	scheduler     MetricsScheduler
	notifier      notification.Notifier
	recorder      metrics.Recorder
	tracer        trace.Tracer
	attempts      attemptInfo
}

func NewPostWorker(
	posts repository.PostRepository,
	platformPosts repository.PlatformPostRepository,
	jobMetrics repository.JobMetricsRepository,
	factory AdapterFactory,
	vault CredentialOpener,
	preparer MediaPreparer,
	scheduler MetricsScheduler,
	notifier notification.Notifier,
	recorder metrics.Recorder) *PostWorker {
	return &PostWorker{
		posts:         posts,
		platformPosts: platformPosts,
		jobMetrics:    jobMetrics,
		factory:       factory,
		vault:         vault,
		media:         preparer,
		scheduler:     scheduler,
		notifier:      notifier,
		recorder:      recorder,
		tracer:        otel.Tracer(tracerName),
		attempts:      asynqAttempts,
	}
}

// HandlePublishTask publishes one post to one platform. Validation failures
// end the job at once; other failures go back to the queue until the last
// attempt, which records the outcome.
func (w *PostWorker) HandlePublishTask(ctx context.Context, task *asynq.Task) error {
	var p PublishPostPayload
	if err := decode(task, &p); err != nil {
		return fmt.Errorf("decode publish payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := w.tracer.Start(ctx, "publish "+string(p.Platform), trace.WithAttributes(
		attribute.String("post.id", p.PostID),
		attribute.String("platform", string(p.Platform)),
	))
	defer span.End()

	jobID, _ := asynq.GetTaskID(ctx)
	log := slog.With("post_id", p.PostID, "platform", p.Platform, "job_id", jobID)
	start := time.Now()

	if _, err := w.posts.UpdateStatus(ctx, p.PostID, models.PostStatusPublishing); err != nil {
		log.Error("failed to mark post publishing", "error", err)
	}

	result, err := w.publish(ctx, p)
	if err == nil && !result.Success {
		err = errors.New(result.Error)
	}

	retried, max := w.attempts(ctx)
	final := err == nil || errors.Is(err, asynq.SkipRetry) || retried >= max
	if !final {
		log.Warn("publish attempt failed, will retry", "error", err, "attempt", retried+1)
		span.RecordError(err)
		return err
	}

	w.finish(ctx, log, jobID, p, result, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (w *PostWorker) publish(ctx context.Context, p PublishPostPayload) (platform.PublishResult, error) {
	adapter, err := w.factory.New(p.Platform)
	if err != nil {
		return platform.PublishResult{}, fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	creds, err := w.vault.DecryptCredentials(p.Credentials)
	if err != nil {
		return platform.PublishResult{}, fmt.Errorf("open credentials: %v: %w", err, asynq.SkipRetry)
	}
	adapter.Initialize(creds)
	if !adapter.Initialized() {
		return platform.PublishResult{}, fmt.Errorf("%s credentials incomplete: %w", p.Platform, asynq.SkipRetry)
	}

	reqs := adapter.Requirements()
	c := content.Adapt(p.Content, reqs)

	// Prepare only fixes images; other media out of bounds is final.
	for _, m := range c.Media {
		if m.Type == models.MediaTypeImage || (m.MimeType == "" && len(m.Data) == 0) {
			continue
		}
		if err := media.ValidateMedia(m, reqs); err != nil {
			return platform.PublishResult{}, fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
	}

	if w.media != nil {
		c, err = w.media.Prepare(ctx, c, reqs)
		if errors.Is(err, media.ErrMediaRejected) {
			return platform.PublishResult{}, fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err != nil {
			return platform.PublishResult{}, err
		}
	}

	if v := adapter.ValidateContent(c); !v.Valid {
		return platform.PublishResult{}, fmt.Errorf("content invalid for %s: %v: %w", p.Platform, v.Errors, asynq.SkipRetry)
	}

	return adapter.Publish(ctx, c)
}

// finish records the terminal outcome of a publish job. Storage and
// notification failures here are logged and never fail the job.
func (w *PostWorker) finish(ctx context.Context, log *slog.Logger, jobID string, p PublishPostPayload, result platform.PublishResult, jobErr error, took time.Duration) {
	pp := &models.PlatformPost{
		PostID:         p.PostID,
		Platform:       p.Platform,
		PlatformPostID: result.PlatformPostID,
		Success:        jobErr == nil,
	}
	jm := &models.JobMetrics{
		JobID:    jobID,
		JobType:  TaskTypePublishPost,
		PostID:   p.PostID,
		Platform: p.Platform,
		Status:   models.JobStatusSuccess,
		Duration: took,
	}
	status := models.PostStatusPublished
	outcome := "success"

	if jobErr != nil {
		pp.Error = jobErr.Error()
		jm.Status = models.JobStatusFailure
		jm.Error = jobErr.Error()
		status = models.PostStatusFailed
		outcome = "failure"
	} else {
		publishedAt := result.PublishedAt
		pp.PublishedAt = &publishedAt
	}

	if _, err := w.platformPosts.Create(ctx, pp); err != nil {
		log.Error("failed to record platform post", "error", err)
	}
	if _, err := w.posts.UpdateStatus(ctx, p.PostID, status); err != nil {
		log.Error("failed to update post status", "status", status, "error", err)
	}
	if _, err := w.jobMetrics.Create(ctx, jm); err != nil {
		w.recorder.Discard("job_metrics", err)
	}
	w.recorder.RecordPublish(string(p.Platform), outcome, took)

	event := notification.Event{
		PostID:         p.PostID,
		UserID:         p.UserID,
		Platform:       p.Platform,
		PlatformPostID: result.PlatformPostID,
		URL:            result.URL,
	}
	if jobErr != nil {
		log.Error("publish failed", "error", jobErr)
		event.Error = jobErr.Error()
		w.notifier.NotifyFailure(ctx, event)
		return
	}

	log.Info("post published", "platform_post_id", result.PlatformPostID)
	if err := w.scheduler.ScheduleMetricsCollection(ctx, p.UserID, result.PlatformPostID, p.Platform); err != nil {
		log.Error("failed to schedule metrics collection", "error", err)
	}
	w.notifier.NotifySuccess(ctx, event)
}
