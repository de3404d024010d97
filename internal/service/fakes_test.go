package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/queue"
)

type memPosts struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func newMemPosts() *memPosts {
	return &memPosts{posts: make(map[string]*models.Post)}
}

func (m *memPosts) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memPosts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return nil, nil
}

func (m *memPosts) UpdateStatus(ctx context.Context, id string, status models.PostStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || !p.Status.CanTransitionTo(status) {
		return false, nil
	}
	p.Status = status
	return true, nil
}

type memPlatformPosts struct {
	rows []*models.PlatformPost
}

func (m *memPlatformPosts) Create(ctx context.Context, pp *models.PlatformPost) (int64, error) {
	m.rows = append(m.rows, pp)
	return int64(len(m.rows)), nil
}

func (m *memPlatformPosts) LatestByPost(ctx context.Context, postID string) ([]*models.PlatformPost, error) {
	var out []*models.PlatformPost
	for _, r := range m.rows {
		if r.PostID == postID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memCredentials struct {
	creds []*models.PlatformCredential
}

func (m *memCredentials) ListActiveByUser(ctx context.Context, userID int64) ([]*models.PlatformCredential, error) {
	var out []*models.PlatformCredential
	for _, c := range m.creds {
		if c.UserID == userID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCredentials) GetActive(ctx context.Context, userID int64, p models.Platform) (*models.PlatformCredential, error) {
	for _, c := range m.creds {
		if c.UserID == userID && c.Platform == p && c.IsActive {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memCredentials) Save(ctx context.Context, c *models.PlatformCredential) (int64, error) {
	for _, old := range m.creds {
		if old.UserID == c.UserID && old.Platform == c.Platform {
			old.IsActive = false
		}
	}
	cp := *c
	cp.ID = int64(len(m.creds) + 1)
	cp.IsActive = true
	m.creds = append(m.creds, &cp)
	return cp.ID, nil
}

func (m *memCredentials) ListDueForValidation(ctx context.Context, before time.Time) ([]*models.PlatformCredential, error) {
	return nil, nil
}

func (m *memCredentials) MarkValidated(ctx context.Context, id int64, at time.Time) error { return nil }

func (m *memCredentials) Deactivate(ctx context.Context, id int64) error {
	for _, c := range m.creds {
		if c.ID == id {
			c.IsActive = false
		}
	}
	return nil
}

// wrapForTest builds the same envelope the asynq queue writes, so
// queue.Unwrap can read it back.
func wrapForTest(payload any) ([]byte, error) {
	return json.Marshal(struct {
		Data any `json:"data"`
	}{payload})
}

type enqueued struct {
	id       string
	queue    string
	taskType string
	payload  []byte
	opts     queue.Options
}

// memQueue keeps jobs in enqueue order.
type memQueue struct {
	mu   sync.Mutex
	seq  int
	jobs []enqueued
	err  error

	// onEnqueue runs after a job is recorded, like a worker picking it up.
	onEnqueue func(taskType string, payload any)
}

func (q *memQueue) Enqueue(ctx context.Context, queueName, taskType string, payload any, opts queue.Options) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	raw, err := wrapForTest(payload)
	if err != nil {
		return "", err
	}
	q.mu.Lock()
	q.seq++
	id := fmt.Sprintf("job-%d", q.seq)
	q.jobs = append(q.jobs, enqueued{id: id, queue: queueName, taskType: taskType, payload: raw, opts: opts})
	q.mu.Unlock()

	if q.onEnqueue != nil {
		q.onEnqueue(taskType, payload)
	}
	return id, nil
}

func (q *memQueue) ListJobs(ctx context.Context, queueName string) ([]queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []queue.Job
	for _, j := range q.jobs {
		if j.queue == queueName {
			out = append(out, queue.Job{ID: j.id, Type: j.taskType, Queue: j.queue, Payload: j.payload})
		}
	}
	return out, nil
}

func (q *memQueue) RemoveJob(ctx context.Context, queueName, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, j := range q.jobs {
		if j.id == id {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *memQueue) byType(taskType string) []enqueued {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []enqueued
	for _, j := range q.jobs {
		if j.taskType == taskType {
			out = append(out, j)
		}
	}
	return out
}
