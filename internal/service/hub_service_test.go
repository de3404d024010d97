package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/platform"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/pkg/vault"
)

type hubFixture struct {
	hub   *hubManager
	posts *memPosts
	pps   *memPlatformPosts
	creds *memCredentials
	queue *memQueue
	vault *vault.Vault
	now   time.Time
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	v, err := vault.New([]byte(strings.Repeat("k", 32)))
	if err != nil {
		t.Fatal(err)
	}
	f := &hubFixture{
		posts: newMemPosts(),
		pps:   &memPlatformPosts{},
		creds: &memCredentials{},
		queue: &memQueue{},
		vault: v,
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.hub = NewHubManager(f.posts, f.pps, f.creds, f.queue, platform.NewFactory(), v).(*hubManager)
	f.hub.now = func() time.Time { return f.now }
	return f
}

func (f *hubFixture) addCredential(t *testing.T, userID int64, p models.Platform, creds models.Credentials) {
	t.Helper()
	sealed, err := f.vault.EncryptCredentials(creds)
	if err != nil {
		t.Fatal(err)
	}
	f.creds.creds = append(f.creds.creds, &models.PlatformCredential{
		ID: int64(len(f.creds.creds) + 1), UserID: userID, Platform: p, Credentials: sealed, IsActive: true,
	})
}

func TestSchedulePost_OneJobPerConnectedPlatform(t *testing.T) {
	f := newHubFixture(t)
	f.addCredential(t, 7, models.PlatformTwitter, models.Credentials{"access_token": "tw"})
	f.addCredential(t, 7, models.PlatformTelegram, models.Credentials{"bot_token": "tg", "chat_id": "1"})

	at := f.now.Add(2 * time.Hour)
	post, err := f.hub.SchedulePost(context.Background(), &models.Post{
		Platforms:   []models.Platform{models.PlatformTwitter, models.PlatformTelegram},
		Content:     models.PostContent{Text: "launch"},
		ScheduledAt: &at,
	}, 7)
	if err != nil {
		t.Fatalf("SchedulePost: %v", err)
	}

	jobs := f.queue.byType(queue.TaskTypePublishPost)
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	for _, j := range jobs {
		if d := j.opts.Delay - 2*time.Hour; d < -time.Second || d > time.Second {
			t.Errorf("delay = %v, want ~2h", j.opts.Delay)
		}
		if j.opts.Attempts != 3 || j.opts.Backoff != 2*time.Second {
			t.Errorf("opts = %+v", j.opts)
		}
		var p queue.PublishPostPayload
		if err := queue.Unwrap(j.payload, &p); err != nil {
			t.Fatal(err)
		}
		if p.PostID != post.ID || p.UserID != 7 {
			t.Errorf("payload = %+v", p)
		}
		if strings.Contains(p.Credentials, "access_token") || strings.Contains(p.Credentials, "bot_token") {
			t.Errorf("payload carries plaintext credentials: %q", p.Credentials)
		}
	}

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	if stored.Status != models.PostStatusScheduled || stored.UserID != 7 {
		t.Errorf("stored post = %+v", stored)
	}
}

func TestSchedulePost_ImmediateJobFinishesBeforeReturn(t *testing.T) {
	f := newHubFixture(t)
	f.addCredential(t, 7, models.PlatformTwitter, models.Credentials{"access_token": "tw"})

	var seen []models.PostStatus
	f.queue.onEnqueue = func(taskType string, payload any) {
		p := payload.(queue.PublishPostPayload)
		for _, s := range []models.PostStatus{models.PostStatusPublishing, models.PostStatusPublished} {
			ok, _ := f.posts.UpdateStatus(context.Background(), p.PostID, s)
			if !ok {
				stored, _ := f.posts.GetByID(context.Background(), p.PostID)
				t.Errorf("worker transition to %s refused from %s", s, stored.Status)
			}
			seen = append(seen, s)
		}
	}

	post, err := f.hub.SchedulePost(context.Background(), &models.Post{
		Platforms: []models.Platform{models.PlatformTwitter},
		Content:   models.PostContent{Text: "now"},
	}, 7)
	if err != nil {
		t.Fatalf("SchedulePost: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("worker transitions = %v, want 2", seen)
	}

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	if stored.Status != models.PostStatusPublished {
		t.Errorf("status = %s, want published", stored.Status)
	}
}

func TestSchedulePost_EnqueueFailureMarksPostFailed(t *testing.T) {
	f := newHubFixture(t)
	f.addCredential(t, 7, models.PlatformTwitter, models.Credentials{"access_token": "tw"})
	f.queue.err = errors.New("redis down")

	post := &models.Post{
		ID:        "p-1",
		Platforms: []models.Platform{models.PlatformTwitter},
		Content:   models.PostContent{Text: "now"},
	}
	if _, err := f.hub.SchedulePost(context.Background(), post, 7); err == nil {
		t.Fatal("SchedulePost err = nil, want enqueue error")
	}
	stored, _ := f.posts.GetByID(context.Background(), "p-1")
	if stored.Status != models.PostStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
}

func TestSchedulePost_SkipsPlatformWithoutCredentials(t *testing.T) {
	f := newHubFixture(t)
	f.addCredential(t, 7, models.PlatformTwitter, models.Credentials{"access_token": "tw"})
	// a blank page_id leaves the adapter uninitialized
	f.addCredential(t, 7, models.PlatformFacebook, models.Credentials{"page_id": "", "page_access_token": "x"})

	_, err := f.hub.SchedulePost(context.Background(), &models.Post{
		Platforms: []models.Platform{models.PlatformTwitter, models.PlatformTelegram, models.PlatformFacebook},
		Content:   models.PostContent{Text: "hi"},
	}, 7)
	if err != nil {
		t.Fatalf("SchedulePost: %v", err)
	}

	jobs := f.queue.byType(queue.TaskTypePublishPost)
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	var p queue.PublishPostPayload
	_ = queue.Unwrap(jobs[0].payload, &p)
	if p.Platform != models.PlatformTwitter || jobs[0].opts.Delay != 0 {
		t.Errorf("job = %+v delay %v", p, jobs[0].opts.Delay)
	}
}

func TestSchedulePost_NoConnectedPlatforms(t *testing.T) {
	f := newHubFixture(t)
	post, err := f.hub.SchedulePost(context.Background(), &models.Post{
		Platforms: []models.Platform{models.PlatformTikTok},
		Content:   models.PostContent{Text: "hi"},
	}, 7)
	if !errors.Is(err, ErrNoConnectedPlatforms) {
		t.Fatalf("err = %v, want ErrNoConnectedPlatforms", err)
	}
	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	if stored.Status != models.PostStatusDraft {
		t.Errorf("status = %s, want draft", stored.Status)
	}
}

func TestSchedulePost_RejectsBadInput(t *testing.T) {
	f := newHubFixture(t)
	for _, post := range []*models.Post{
		nil,
		{Content: models.PostContent{Text: "x"}},
		{Platforms: []models.Platform{"myspace"}},
	} {
		if _, err := f.hub.SchedulePost(context.Background(), post, 1); !errors.Is(err, ErrInvalidPost) {
			t.Errorf("SchedulePost(%+v) err = %v, want ErrInvalidPost", post, err)
		}
	}
}

func TestCancelPost_RemovesOnlyItsJobs(t *testing.T) {
	f := newHubFixture(t)
	f.addCredential(t, 7, models.PlatformTwitter, models.Credentials{"access_token": "tw"})
	f.addCredential(t, 7, models.PlatformTelegram, models.Credentials{"bot_token": "tg", "chat_id": "1"})

	at := f.now.Add(time.Hour)
	newPost := func() *models.Post {
		return &models.Post{
			Platforms:   []models.Platform{models.PlatformTwitter, models.PlatformTelegram},
			Content:     models.PostContent{Text: "x"},
			ScheduledAt: &at,
		}
	}
	target, err := f.hub.SchedulePost(context.Background(), newPost(), 7)
	if err != nil {
		t.Fatal(err)
	}
	other, err := f.hub.SchedulePost(context.Background(), newPost(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.hub.ScheduleMetricsCollection(context.Background(), 7, "tw-1", models.PlatformTwitter); err != nil {
		t.Fatal(err)
	}

	if err := f.hub.CancelPost(context.Background(), target.ID); err != nil {
		t.Fatalf("CancelPost: %v", err)
	}

	jobs := f.queue.byType(queue.TaskTypePublishPost)
	if len(jobs) != 2 {
		t.Fatalf("publish jobs left = %d, want 2", len(jobs))
	}
	for _, j := range jobs {
		var p queue.PublishPostPayload
		_ = queue.Unwrap(j.payload, &p)
		if p.PostID != other.ID {
			t.Errorf("job for %s survived cancel", p.PostID)
		}
	}
	if n := len(f.queue.byType(queue.TaskTypeCollectMetrics)); n != 3 {
		t.Errorf("metrics jobs = %d, want 3", n)
	}

	view, err := f.hub.GetPostStatus(context.Background(), target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Status != models.PostStatusCancelled {
		t.Errorf("status = %s, want cancelled", view.Status)
	}
}

func TestCancelPost_NotFound(t *testing.T) {
	f := newHubFixture(t)
	if err := f.hub.CancelPost(context.Background(), "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("err = %v, want ErrPostNotFound", err)
	}
}

func TestScheduleMetricsCollection_Delays(t *testing.T) {
	f := newHubFixture(t)
	if err := f.hub.ScheduleMetricsCollection(context.Background(), 7, "tw-1", models.PlatformTwitter); err != nil {
		t.Fatal(err)
	}

	jobs := f.queue.byType(queue.TaskTypeCollectMetrics)
	want := []time.Duration{time.Hour, 6 * time.Hour, 24 * time.Hour}
	if len(jobs) != len(want) {
		t.Fatalf("jobs = %d, want %d", len(jobs), len(want))
	}
	for i, j := range jobs {
		if j.opts.Delay != want[i] || j.queue != queue.QueueMetrics {
			t.Errorf("job %d: queue %s delay %v, want %v", i, j.queue, j.opts.Delay, want[i])
		}
	}
}

func TestGetPostStatus_IncludesPlatformResults(t *testing.T) {
	f := newHubFixture(t)
	f.posts.posts["p1"] = &models.Post{ID: "p1", Status: models.PostStatusFailed}
	f.pps.rows = []*models.PlatformPost{
		{PostID: "p1", Platform: models.PlatformTwitter, Success: true, PlatformPostID: "tw-1"},
		{PostID: "p1", Platform: models.PlatformTelegram, Success: false, Error: "chat not found"},
	}

	view, err := f.hub.GetPostStatus(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if view.Status != models.PostStatusFailed || len(view.Platforms) != 2 {
		t.Errorf("view = %+v", view)
	}
	if _, err := f.hub.GetPostStatus(context.Background(), "nope"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("err = %v, want ErrPostNotFound", err)
	}
}
