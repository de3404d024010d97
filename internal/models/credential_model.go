package models

import (
	"time"
)

// Credentials is the decrypted key/value bag an adapter needs, e.g.
// access_token, bot_token or chat_id.
type Credentials map[string]string

type PlatformCredential struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	Platform        Platform   `db:"platform" json:"platform"`
	Credentials     string     `db:"credentials" json:"-"` // encrypted blob
	IsActive        bool       `db:"is_active" json:"is_active"`
	LastValidatedAt *time.Time `db:"last_validated_at" json:"last_validated_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
