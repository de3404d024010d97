package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/platform"
)

type workerFixture struct {
	worker        *PostWorker
	adapter       *fakeAdapter
	posts         *fakePosts
	platformPosts *fakePlatformPosts
	jobMetrics    *fakeJobMetrics
	scheduler     *fakeScheduler
	notifier      *fakeNotifier
}

func newWorkerFixture() *workerFixture {
	f := &workerFixture{
		adapter:       &fakeAdapter{},
		posts:         &fakePosts{},
		platformPosts: &fakePlatformPosts{},
		jobMetrics:    &fakeJobMetrics{},
		scheduler:     &fakeScheduler{},
		notifier:      &fakeNotifier{},
	}
	f.worker = NewPostWorker(f.posts, f.platformPosts, f.jobMetrics, &fakeFactory{adapter: f.adapter},
		fakeVault{}, nil, f.scheduler, f.notifier, metrics.Nop{})
	return f
}

func publishTask(t *testing.T) *asynq.Task {
	t.Helper()
	raw, err := wrap(PublishPostPayload{
		PostID:      "post-1",
		UserID:      7,
		Platform:    models.PlatformTwitter,
		Content:     models.PostContent{Text: "hello"},
		Credentials: "sealed",
	}, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return asynq.NewTask(TaskTypePublishPost, raw)
}

func attempt(retried, max int) attemptInfo {
	return func(context.Context) (int, int) { return retried, max }
}

func TestPostWorker_Success(t *testing.T) {
	f := newWorkerFixture()
	f.adapter.publish = func(ctx context.Context, c models.PostContent) (platform.PublishResult, error) {
		return platform.PublishResult{Success: true, PlatformPostID: "tw-1", PublishedAt: time.Now()}, nil
	}

	if err := f.worker.HandlePublishTask(context.Background(), publishTask(t)); err != nil {
		t.Fatalf("HandlePublishTask: %v", err)
	}

	if len(f.platformPosts.rows) != 1 || !f.platformPosts.rows[0].Success || f.platformPosts.rows[0].PublishedAt == nil {
		t.Errorf("platform posts = %+v", f.platformPosts.rows)
	}
	if f.posts.statuses[0] != models.PostStatusPublishing || f.posts.last() != models.PostStatusPublished {
		t.Errorf("statuses = %v", f.posts.statuses)
	}
	if len(f.jobMetrics.rows) != 1 || f.jobMetrics.rows[0].Status != models.JobStatusSuccess {
		t.Errorf("job metrics = %+v", f.jobMetrics.rows)
	}
	if len(f.scheduler.calls) != 1 || f.scheduler.calls[0] != "tw-1" {
		t.Errorf("metrics scheduled for %v", f.scheduler.calls)
	}
	if len(f.notifier.successes) != 1 || len(f.notifier.failures) != 0 {
		t.Errorf("notifications = %d ok, %d failed", len(f.notifier.successes), len(f.notifier.failures))
	}
}

func TestPostWorker_ValidationFailureIsFinal(t *testing.T) {
	f := newWorkerFixture()
	f.worker.attempts = attempt(0, 2)
	published := false
	f.adapter.validate = func(c models.PostContent) platform.ValidationResult {
		return platform.ValidationResult{Valid: false, Errors: []string{"media 0: mime type not allowed"}}
	}
	f.adapter.publish = func(ctx context.Context, c models.PostContent) (platform.PublishResult, error) {
		published = true
		return platform.PublishResult{Success: true}, nil
	}

	err := f.worker.HandlePublishTask(context.Background(), publishTask(t))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
	if published {
		t.Error("Publish called for invalid content")
	}
	if len(f.platformPosts.rows) != 1 || f.platformPosts.rows[0].Success {
		t.Errorf("platform posts = %+v", f.platformPosts.rows)
	}
	if f.posts.last() != models.PostStatusFailed {
		t.Errorf("status = %s, want failed", f.posts.last())
	}
	if len(f.notifier.failures) != 1 {
		t.Errorf("failure notifications = %d, want 1", len(f.notifier.failures))
	}
}

func TestPostWorker_OversizedVideoRejectedBeforePrepare(t *testing.T) {
	f := newWorkerFixture()
	prep := &fakePreparer{}
	f.worker.media = prep
	f.worker.attempts = attempt(0, 2)
	f.adapter.reqs = &models.Requirements{
		MaxTextLength:    280,
		MaxMediaCount:    4,
		AllowedMimeTypes: []string{"video/mp4"},
		MaxVideoSize:     1024,
	}
	published := false
	f.adapter.publish = func(ctx context.Context, c models.PostContent) (platform.PublishResult, error) {
		published = true
		return platform.PublishResult{Success: true}, nil
	}

	raw, err := wrap(PublishPostPayload{
		PostID:   "post-1",
		Platform: models.PlatformTwitter,
		Content: models.PostContent{
			Text: "clip",
			Media: []models.MediaFile{{
				ID: "v1", Type: models.MediaTypeVideo, MimeType: "video/mp4",
				URL: "https://cdn.example.com/v1.mp4", Size: 4096,
			}},
		},
		Credentials: "sealed",
	}, 0)
	if err != nil {
		t.Fatal(err)
	}

	err = f.worker.HandlePublishTask(context.Background(), asynq.NewTask(TaskTypePublishPost, raw))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
	if prep.calls != 0 {
		t.Errorf("Prepare calls = %d, want 0", prep.calls)
	}
	if published {
		t.Error("Publish called for oversized video")
	}
	if f.posts.last() != models.PostStatusFailed {
		t.Errorf("status = %s, want failed", f.posts.last())
	}
}

func TestPostWorker_VideoWithinLimitsIsPrepared(t *testing.T) {
	f := newWorkerFixture()
	prep := &fakePreparer{}
	f.worker.media = prep
	f.adapter.reqs = &models.Requirements{
		MaxTextLength:    280,
		MaxMediaCount:    4,
		AllowedMimeTypes: []string{"video/mp4"},
		MaxVideoSize:     1 << 20,
	}
	f.adapter.publish = func(ctx context.Context, c models.PostContent) (platform.PublishResult, error) {
		return platform.PublishResult{Success: true, PlatformPostID: "v"}, nil
	}

	raw, _ := wrap(PublishPostPayload{
		PostID:   "post-1",
		Platform: models.PlatformTwitter,
		Content: models.PostContent{
			Text:  "clip",
			Media: []models.MediaFile{{ID: "v1", Type: models.MediaTypeVideo, MimeType: "video/mp4", Size: 4096}},
		},
		Credentials: "sealed",
	}, 0)

	if err := f.worker.HandlePublishTask(context.Background(), asynq.NewTask(TaskTypePublishPost, raw)); err != nil {
		t.Fatalf("HandlePublishTask: %v", err)
	}
	if prep.calls != 1 {
		t.Errorf("Prepare calls = %d, want 1", prep.calls)
	}
}

func TestPostWorker_ExhaustedRetries(t *testing.T) {
	f := newWorkerFixture()
	f.adapter.publish = func(ctx context.Context, c models.PostContent) (platform.PublishResult, error) {
		return platform.PublishResult{Success: false, Error: "rate limited"}, nil
	}

	for retried := 0; retried < 3; retried++ {
		f.worker.attempts = attempt(retried, 2)
		err := f.worker.HandlePublishTask(context.Background(), publishTask(t))
		if err == nil {
			t.Fatalf("attempt %d: err = nil", retried+1)
		}
		if retried < 2 && len(f.jobMetrics.rows) != 0 {
			t.Fatalf("attempt %d recorded a terminal outcome", retried+1)
		}
	}

	if len(f.jobMetrics.rows) != 1 {
		t.Fatalf("job metrics rows = %d, want 1", len(f.jobMetrics.rows))
	}
	jm := f.jobMetrics.rows[0]
	if jm.Status != models.JobStatusFailure || jm.Error != "rate limited" {
		t.Errorf("job metrics = %+v", jm)
	}
	if f.posts.last() != models.PostStatusFailed {
		t.Errorf("status = %s, want failed", f.posts.last())
	}
	if len(f.notifier.failures) != 1 || len(f.scheduler.calls) != 0 {
		t.Errorf("failures notified = %d, metrics scheduled = %d", len(f.notifier.failures), len(f.scheduler.calls))
	}
}

func TestPostWorker_IncompleteCredentials(t *testing.T) {
	f := newWorkerFixture()
	f.worker.attempts = attempt(0, 2)
	raw, _ := wrap(PublishPostPayload{PostID: "p", Platform: models.PlatformTwitter}, 0)

	err := f.worker.HandlePublishTask(context.Background(), asynq.NewTask(TaskTypePublishPost, raw))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("err = %v, want SkipRetry", err)
	}
}

func TestRetryDelay(t *testing.T) {
	raw, _ := wrap(struct{}{}, 2*time.Second)
	task := asynq.NewTask(TaskTypePublishPost, raw)

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for n, w := range want {
		if got := RetryDelay(n, errors.New("x"), task); got != w {
			t.Errorf("RetryDelay(%d) = %v, want %v", n, got, w)
		}
	}
}

func TestMetricsWorker(t *testing.T) {
	adapter := &fakeAdapter{metrics: func(ctx context.Context, id string) (platform.Metrics, error) {
		return platform.Metrics{Likes: 3, Shares: 1, Comments: 2, Engagement: 6, CollectedAt: time.Now()}, nil
	}}
	snapshots := &fakeSnapshots{}
	creds := &fakeCredentials{cred: &models.PlatformCredential{Credentials: "sealed"}}
	w := NewMetricsWorker(creds, snapshots, &fakeFactory{adapter: adapter}, fakeVault{}, metrics.Nop{})

	raw, _ := wrap(CollectMetricsPayload{UserID: 7, PlatformPostID: "tw-1", Platform: models.PlatformTwitter}, 0)
	if err := w.HandleCollectMetricsTask(context.Background(), asynq.NewTask(TaskTypeCollectMetrics, raw)); err != nil {
		t.Fatalf("HandleCollectMetricsTask: %v", err)
	}
	if len(snapshots.rows) != 1 || snapshots.rows[0].Engagement != 6 || snapshots.rows[0].PlatformPostID != "tw-1" {
		t.Errorf("snapshots = %+v", snapshots.rows)
	}

	creds.cred = nil
	err := w.HandleCollectMetricsTask(context.Background(), asynq.NewTask(TaskTypeCollectMetrics, raw))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("missing credentials err = %v, want SkipRetry", err)
	}
}
