package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postflow/internal/models"
)

type NotificationSettingsRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.NotificationSettings, error)
}

type notificationSettingsRepository struct {
	db *sql.DB
}

func NewNotificationSettingsRepository(db *sql.DB) NotificationSettingsRepository {
	return &notificationSettingsRepository{db: db}
}

func (r *notificationSettingsRepository) GetByUserID(ctx context.Context, userID int64) (*models.NotificationSettings, error) {
	query := `
		SELECT user_id, COALESCE(webhook_url, ''), notify_on_success, notify_on_failure, updated_at
		FROM notification_settings
		WHERE user_id = $1
	`

	var s models.NotificationSettings
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UserID, &s.WebhookURL, &s.NotifyOnSuccess, &s.NotifyOnFailure, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &s, nil
}
