package queue

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/notification"
	"github.com/maheshrc27/postflow/internal/platform"
)

type fakeAdapter struct {
	platform    models.Platform
	initialized bool
	reqs        *models.Requirements
	validate    func(c models.PostContent) platform.ValidationResult
	publish     func(ctx context.Context, c models.PostContent) (platform.PublishResult, error)
	metrics     func(ctx context.Context, id string) (platform.Metrics, error)
}

func (a *fakeAdapter) Platform() models.Platform { return a.platform }

func (a *fakeAdapter) Initialize(creds models.Credentials) { a.initialized = creds["token"] != "" }

func (a *fakeAdapter) Initialized() bool { return a.initialized }

func (a *fakeAdapter) Requirements() models.Requirements {
	if a.reqs != nil {
		return *a.reqs
	}
	return models.Requirements{MaxTextLength: 280, MaxMediaCount: 4}
}

func (a *fakeAdapter) ValidateContent(c models.PostContent) platform.ValidationResult {
	if a.validate != nil {
		return a.validate(c)
	}
	return platform.ValidationResult{Valid: true}
}

func (a *fakeAdapter) Publish(ctx context.Context, c models.PostContent) (platform.PublishResult, error) {
	return a.publish(ctx, c)
}

func (a *fakeAdapter) GetMetrics(ctx context.Context, id string) (platform.Metrics, error) {
	return a.metrics(ctx, id)
}

func (a *fakeAdapter) ValidateCredentials(ctx context.Context) (bool, error) { return true, nil }

type fakeFactory struct {
	adapter *fakeAdapter
}

func (f *fakeFactory) New(p models.Platform) (platform.Adapter, error) {
	f.adapter.platform = p
	return f.adapter, nil
}

type fakeVault struct{}

func (fakeVault) DecryptCredentials(blob string) (models.Credentials, error) {
	return models.Credentials{"token": blob}, nil
}

type fakePosts struct {
	mu       sync.Mutex
	statuses []models.PostStatus
}

func (f *fakePosts) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error { return nil }

func (f *fakePosts) GetByID(ctx context.Context, id string) (*models.Post, error) { return nil, nil }

func (f *fakePosts) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePosts) UpdateStatus(ctx context.Context, id string, status models.PostStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return true, nil
}

func (f *fakePosts) last() models.PostStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

type fakePlatformPosts struct {
	rows []*models.PlatformPost
}

func (f *fakePlatformPosts) Create(ctx context.Context, pp *models.PlatformPost) (int64, error) {
	f.rows = append(f.rows, pp)
	return int64(len(f.rows)), nil
}

func (f *fakePlatformPosts) LatestByPost(ctx context.Context, postID string) ([]*models.PlatformPost, error) {
	return f.rows, nil
}

type fakeJobMetrics struct {
	rows []*models.JobMetrics
}

func (f *fakeJobMetrics) Create(ctx context.Context, jm *models.JobMetrics) (int64, error) {
	f.rows = append(f.rows, jm)
	return int64(len(f.rows)), nil
}

type fakeSnapshots struct {
	rows []*models.PlatformMetrics
}

func (f *fakeSnapshots) Create(ctx context.Context, m *models.PlatformMetrics) (int64, error) {
	f.rows = append(f.rows, m)
	return int64(len(f.rows)), nil
}

type fakeCredentials struct {
	cred *models.PlatformCredential
}

func (f *fakeCredentials) ListActiveByUser(ctx context.Context, userID int64) ([]*models.PlatformCredential, error) {
	return nil, nil
}

func (f *fakeCredentials) GetActive(ctx context.Context, userID int64, p models.Platform) (*models.PlatformCredential, error) {
	return f.cred, nil
}

func (f *fakeCredentials) ListDueForValidation(ctx context.Context, before time.Time) ([]*models.PlatformCredential, error) {
	return nil, nil
}

func (f *fakeCredentials) MarkValidated(ctx context.Context, id int64, at time.Time) error { return nil }

func (f *fakeCredentials) Deactivate(ctx context.Context, id int64) error { return nil }

func (f *fakeCredentials) Save(ctx context.Context, c *models.PlatformCredential) (int64, error) {
	return 0, nil
}

type fakeScheduler struct {
	calls []string
}

func (f *fakeScheduler) ScheduleMetricsCollection(ctx context.Context, userID int64, platformPostID string, p models.Platform) error {
	f.calls = append(f.calls, platformPostID)
	return nil
}

type fakeNotifier struct {
	successes []notification.Event
	failures  []notification.Event
}

func (f *fakeNotifier) NotifySuccess(ctx context.Context, e notification.Event) {
	f.successes = append(f.successes, e)
}

func (f *fakeNotifier) NotifyFailure(ctx context.Context, e notification.Event) {
	f.failures = append(f.failures, e)
}

type fakePreparer struct {
	calls int
}

func (p *fakePreparer) Prepare(ctx context.Context, c models.PostContent, reqs models.Requirements) (models.PostContent, error) {
	p.calls++
	return c, nil
}
