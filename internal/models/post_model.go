package models

import (
	"time"
)

type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
	PostStatusCancelled  PostStatus = "cancelled"
)

// statusSources lists, for each target status, the statuses a post may move
// from. Published may still roll up to failed when a sibling platform fails.
var statusSources = map[PostStatus][]PostStatus{
	PostStatusScheduled:  {PostStatusDraft, PostStatusScheduled},
	PostStatusPublishing: {PostStatusScheduled, PostStatusPublishing},
	PostStatusPublished:  {PostStatusScheduled, PostStatusPublishing, PostStatusPublished},
	PostStatusFailed:     {PostStatusDraft, PostStatusScheduled, PostStatusPublishing, PostStatusPublished, PostStatusFailed},
	PostStatusCancelled:  {PostStatusDraft, PostStatusScheduled, PostStatusPublishing, PostStatusCancelled},
}

// TransitionSources returns the statuses from which a post may move to s.
func TransitionSources(s PostStatus) []PostStatus {
	return statusSources[s]
}

func (s PostStatus) CanTransitionTo(to PostStatus) bool {
	for _, from := range statusSources[to] {
		if from == s {
			return true
		}
	}
	return false
}

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublishing,
		PostStatusPublished, PostStatusFailed, PostStatusCancelled:
		return true
	}
	return false
}

type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeGIF      MediaType = "gif"
	MediaTypeDocument MediaType = "document"
)

type MediaFile struct {
	ID              string    `json:"id"`
	Type            MediaType `json:"type"`
	Data            []byte    `json:"data,omitempty"`
	URL             string    `json:"url,omitempty"`
	MimeType        string    `json:"mime_type"`
	Size            int64     `json:"size"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	Duration        float64   `json:"duration,omitempty"` // seconds
	PlatformMediaID string    `json:"platform_media_id,omitempty"`
}

type PostContent struct {
	Text     string      `json:"text"`
	Media    []MediaFile `json:"media,omitempty"`
	Hashtags []string    `json:"hashtags,omitempty"`
	Mentions []string    `json:"mentions,omitempty"`
	Link     string      `json:"link,omitempty"`
}

// Clone returns a copy whose slices can be modified without touching c.
func (c PostContent) Clone() PostContent {
	out := c
	if c.Media != nil {
		out.Media = append([]MediaFile(nil), c.Media...)
	}
	if c.Hashtags != nil {
		out.Hashtags = append([]string(nil), c.Hashtags...)
	}
	if c.Mentions != nil {
		out.Mentions = append([]string(nil), c.Mentions...)
	}
	return out
}

type Recurrence struct {
	Frequency string     `json:"frequency"` // daily, weekly, monthly
	Interval  int        `json:"interval"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
}

type Post struct {
	ID          string         `db:"id" json:"id"`
	UserID      int64          `db:"user_id" json:"user_id"`
	Platforms   []Platform     `db:"platforms" json:"platforms"`
	Content     PostContent    `db:"content" json:"content"`
	ScheduledAt *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	PublishedAt *time.Time     `db:"published_at" json:"published_at,omitempty"`
	Status      PostStatus     `db:"status" json:"status"`
	Recurrence  *Recurrence    `db:"recurrence" json:"recurrence,omitempty"`
	Metadata    map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
