package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/repository"
)

const (
	publishAttempts = 3
	publishBackoff  = 2 * time.Second
)

// metricsDelays are the points after publishing at which engagement is
// sampled.
var metricsDelays = []time.Duration{time.Hour, 6 * time.Hour, 24 * time.Hour}

var (
	ErrPostNotFound         = errors.New("post not found")
	ErrNoConnectedPlatforms = errors.New("none of the post's platforms has active credentials")
	ErrInvalidPost          = errors.New("invalid post")
	ErrStatusConflict       = errors.New("post status does not allow this change")
)

type PlatformStatus struct {
	Platform       models.Platform `json:"platform"`
	Success        bool            `json:"success"`
	PlatformPostID string          `json:"platform_post_id,omitempty"`
	Error          string          `json:"error,omitempty"`
	PublishedAt    *time.Time      `json:"published_at,omitempty"`
	RecordedAt     time.Time       `json:"recorded_at"`
}

type PostStatusView struct {
	PostID      string            `json:"post_id"`
	UserID      int64             `json:"-"`
	Status      models.PostStatus `json:"status"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	Platforms   []PlatformStatus  `json:"platforms"`
}

type HubManager interface {
	SchedulePost(ctx context.Context, post *models.Post, userID int64) (*models.Post, error)
	CancelPost(ctx context.Context, postID string) error
	ScheduleMetricsCollection(ctx context.Context, userID int64, platformPostID string, p models.Platform) error
	GetPostStatus(ctx context.Context, postID string) (*PostStatusView, error)
}

type hubManager struct {
	posts         repository.PostRepository
	platformPosts repository.PlatformPostRepository
	credentials   repository.CredentialRepository
	queue         queue.Queue
	factory       queue.AdapterFactory
	vault         queue.CredentialOpener
	now           func() time.Time
}

func NewHubManager(
	posts repository.PostRepository,
	platformPosts repository.PlatformPostRepository,
	credentials repository.CredentialRepository,
	q queue.Queue,
	factory queue.AdapterFactory,
	vault queue.CredentialOpener) HubManager {
	return &hubManager{
		posts:         posts,
		platformPosts: platformPosts,
		credentials:   credentials,
		queue:         q,
		factory:       factory,
		vault:         vault,
		now:           time.Now,
	}
}

// SchedulePost stores the post and enqueues one publish job per target
// platform that has usable credentials. Platforms without them are skipped.
// When no platform is usable the post is stored as a draft and
// ErrNoConnectedPlatforms is returned.
func (h *hubManager) SchedulePost(ctx context.Context, post *models.Post, userID int64) (*models.Post, error) {
	if post == nil || len(post.Platforms) == 0 {
		return nil, fmt.Errorf("%w: no target platforms", ErrInvalidPost)
	}
	for _, p := range post.Platforms {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidPost, p)
		}
	}

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.UserID = userID

	creds, err := h.credentials.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byPlatform := make(map[models.Platform]*models.PlatformCredential, len(creds))
	for _, c := range creds {
		byPlatform[c.Platform] = c
	}

	var targets []*models.PlatformCredential
	for _, p := range post.Platforms {
		log := slog.With("post_id", post.ID, "platform", p)

		cred, ok := byPlatform[p]
		if !ok {
			log.Warn("no active credentials, skipping platform")
			continue
		}
		if !h.usable(p, cred) {
			log.Warn("credentials incomplete, skipping platform")
			continue
		}
		targets = append(targets, cred)
	}

	// stored as SCHEDULED before the first job exists
	post.Status = models.PostStatusScheduled
	if len(targets) == 0 {
		post.Status = models.PostStatusDraft
	}
	if err := h.posts.Create(ctx, nil, post); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return post, ErrNoConnectedPlatforms
	}

	var delay time.Duration
	if post.ScheduledAt != nil {
		if d := post.ScheduledAt.Sub(h.now()); d > 0 {
			delay = d
		}
	}

	enqueued := 0
	for _, cred := range targets {
		payload := queue.PublishPostPayload{
			PostID:      post.ID,
			UserID:      userID,
			Platform:    cred.Platform,
			Content:     post.Content,
			Credentials: cred.Credentials,
		}
		_, err := h.queue.Enqueue(ctx, queue.QueuePublish, queue.TaskTypePublishPost, payload, queue.Options{
			Delay:    delay,
			Attempts: publishAttempts,
			Backoff:  publishBackoff,
		})
		if err != nil {
			if enqueued == 0 {
				if _, uerr := h.posts.UpdateStatus(ctx, post.ID, models.PostStatusFailed); uerr != nil {
					slog.Error("failed to mark unscheduled post", "post_id", post.ID, "error", uerr)
				}
			}
			return nil, fmt.Errorf("schedule %s: %w", cred.Platform, err)
		}
		enqueued++
	}

	slog.Info("post scheduled", "post_id", post.ID, "jobs", enqueued, "delay", delay)
	return post, nil
}

// usable decrypts the credential and checks that an adapter accepts it. The
// plaintext is dropped on return.
func (h *hubManager) usable(p models.Platform, cred *models.PlatformCredential) bool {
	plain, err := h.vault.DecryptCredentials(cred.Credentials)
	if err != nil {
		slog.Warn("cannot open credentials", "platform", p, "credential_id", cred.ID, "error", err)
		return false
	}
	adapter, err := h.factory.New(p)
	if err != nil {
		return false
	}
	adapter.Initialize(plain)
	return adapter.Initialized()
}

// CancelPost removes the post's jobs that have not started and marks it
// cancelled. Jobs already running are not interrupted.
func (h *hubManager) CancelPost(ctx context.Context, postID string) error {
	post, err := h.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	jobs, err := h.queue.ListJobs(ctx, queue.QueuePublish)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	removed := 0
	for _, job := range jobs {
		if job.Type != queue.TaskTypePublishPost {
			continue
		}
		var payload queue.PublishPostPayload
		if err := queue.Unwrap(job.Payload, &payload); err != nil || payload.PostID != postID {
			continue
		}
		if err := h.queue.RemoveJob(ctx, job.Queue, job.ID); err != nil {
			return fmt.Errorf("remove job %s: %w", job.ID, err)
		}
		removed++
	}

	ok, err := h.posts.UpdateStatus(ctx, postID, models.PostStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: post is %s", ErrStatusConflict, post.Status)
	}

	slog.Info("post cancelled", "post_id", postID, "removed_jobs", removed)
	return nil
}

func (h *hubManager) ScheduleMetricsCollection(ctx context.Context, userID int64, platformPostID string, p models.Platform) error {
	payload := queue.CollectMetricsPayload{UserID: userID, PlatformPostID: platformPostID, Platform: p}
	for _, d := range metricsDelays {
		_, err := h.queue.Enqueue(ctx, queue.QueueMetrics, queue.TaskTypeCollectMetrics, payload, queue.Options{
			Delay:    d,
			Attempts: publishAttempts,
			Backoff:  publishBackoff,
		})
		if err != nil {
			return fmt.Errorf("schedule metrics at %s: %w", d, err)
		}
	}
	return nil
}

func (h *hubManager) GetPostStatus(ctx context.Context, postID string) (*PostStatusView, error) {
	post, err := h.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	results, err := h.platformPosts.LatestByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	view := &PostStatusView{
		PostID:      post.ID,
		UserID:      post.UserID,
		Status:      post.Status,
		ScheduledAt: post.ScheduledAt,
		PublishedAt: post.PublishedAt,
		Platforms:   make([]PlatformStatus, 0, len(results)),
	}
	for _, r := range results {
		view.Platforms = append(view.Platforms, PlatformStatus{
			Platform:       r.Platform,
			Success:        r.Success,
			PlatformPostID: r.PlatformPostID,
			Error:          r.Error,
			PublishedAt:    r.PublishedAt,
			RecordedAt:     r.CreatedAt,
		})
	}
	return view, nil
}
