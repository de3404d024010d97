package models

import (
	"encoding/json"
	"time"
)

type ActionType string

const (
	ActionTypeAutoReplyInbox     ActionType = "auto_reply_inbox"
	ActionTypeAutoReplyMentions  ActionType = "auto_reply_mentions"
	ActionTypeAutoLike           ActionType = "auto_like"
	ActionTypeAutoFollow         ActionType = "auto_follow"
	ActionTypeScheduledPromotion ActionType = "scheduled_promotion"
)

type AutomatedAction struct {
	ID             string          `db:"id" json:"id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	Name           string          `db:"name" json:"name"`
	Type           ActionType      `db:"type" json:"type"`
	Platforms      []Platform      `db:"platforms" json:"platforms"`
	Config         json.RawMessage `db:"config" json:"config"`
	Enabled        bool            `db:"enabled" json:"enabled"`
	LastExecutedAt *time.Time      `db:"last_executed_at" json:"last_executed_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// PromotionConfig is the config of a scheduled_promotion action.
type PromotionConfig struct {
	Frequency string      `json:"frequency"` // daily, weekly, monthly
	Content   PostContent `json:"content"`
}

type AutomatedActionLog struct {
	ID         int64     `db:"id" json:"id"`
	ActionID   string    `db:"action_id" json:"action_id"`
	Platform   Platform  `db:"platform" json:"platform"`
	Success    bool      `db:"success" json:"success"`
	Error      string    `db:"error" json:"error,omitempty"`
	ExecutedAt time.Time `db:"executed_at" json:"executed_at"`
}
