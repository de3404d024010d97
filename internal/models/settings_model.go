package models

import "time"

// NotificationSettings controls how a user hears about publish outcomes.
type NotificationSettings struct {
	UserID          int64     `db:"user_id" json:"user_id"`
	WebhookURL      string    `db:"webhook_url" json:"webhook_url"`
	NotifyOnSuccess bool      `db:"notify_on_success" json:"notify_on_success"`
	NotifyOnFailure bool      `db:"notify_on_failure" json:"notify_on_failure"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
