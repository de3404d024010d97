package transfer

import (
	"time"

	"github.com/maheshrc27/postflow/internal/models"
)

type PostCreation struct {
	Platforms   []models.Platform  `json:"platforms"`
	Content     models.PostContent `json:"content"`
	ScheduledAt *time.Time         `json:"scheduled_at,omitempty"`
	Recurrence  *models.Recurrence `json:"recurrence,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
}

func (p PostCreation) Post() *models.Post {
	return &models.Post{
		Platforms:   p.Platforms,
		Content:     p.Content,
		ScheduledAt: p.ScheduledAt,
		Recurrence:  p.Recurrence,
		Metadata:    p.Metadata,
	}
}

type PostCreated struct {
	PostID      string            `json:"post_id"`
	Status      models.PostStatus `json:"status"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
}
