package models

import "time"

type PlatformPost struct {
	ID             int64      `db:"id" json:"id"`
	PostID         string     `db:"post_id" json:"post_id"`
	Platform       Platform   `db:"platform" json:"platform"`
	PlatformPostID string     `db:"platform_post_id" json:"platform_post_id,omitempty"`
	Success        bool       `db:"success" json:"success"`
	Error          string     `db:"error" json:"error,omitempty"`
	PublishedAt    *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type PlatformMetrics struct {
	ID             int64     `db:"id" json:"id"`
	PlatformPostID string    `db:"platform_post_id" json:"platform_post_id"`
	Platform       Platform  `db:"platform" json:"platform"`
	Likes          int64     `db:"likes" json:"likes"`
	Shares         int64     `db:"shares" json:"shares"`
	Comments       int64     `db:"comments" json:"comments"`
	Views          int64     `db:"views" json:"views"`
	Engagement     int64     `db:"engagement" json:"engagement"`
	CollectedAt    time.Time `db:"collected_at" json:"collected_at"`
}

const (
	JobStatusSuccess = "success"
	JobStatusFailure = "failure"
)

type JobMetrics struct {
	ID        int64         `db:"id" json:"id"`
	JobID     string        `db:"job_id" json:"job_id"`
	JobType   string        `db:"job_type" json:"job_type"`
	PostID    string        `db:"post_id" json:"post_id"`
	Platform  Platform      `db:"platform" json:"platform"`
	Status    string        `db:"status" json:"status"`
	Duration  time.Duration `db:"duration_ms" json:"duration"`
	Error     string        `db:"error" json:"error,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
