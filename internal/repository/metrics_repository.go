package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postflow/internal/models"
)

type PlatformMetricsRepository interface {
	Create(ctx context.Context, m *models.PlatformMetrics) (int64, error)
}

type platformMetricsRepository struct {
	db *sql.DB
}

func NewPlatformMetricsRepository(db *sql.DB) PlatformMetricsRepository {
	return &platformMetricsRepository{db: db}
}

func (r *platformMetricsRepository) Create(ctx context.Context, m *models.PlatformMetrics) (int64, error) {
	query := `
		INSERT INTO platform_metrics (platform_post_id, platform, likes, shares, comments, views, engagement, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		m.PlatformPostID, m.Platform, m.Likes, m.Shares, m.Comments, m.Views, m.Engagement, m.CollectedAt,
	).Scan(&m.ID)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return m.ID, nil
}

type JobMetricsRepository interface {
	Create(ctx context.Context, jm *models.JobMetrics) (int64, error)
}

type jobMetricsRepository struct {
	db *sql.DB
}

func NewJobMetricsRepository(db *sql.DB) JobMetricsRepository {
	return &jobMetricsRepository{db: db}
}

func (r *jobMetricsRepository) Create(ctx context.Context, jm *models.JobMetrics) (int64, error) {
	query := `
		INSERT INTO job_metrics (job_id, job_type, post_id, platform, status, duration_ms, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		jm.JobID,
		jm.JobType,
		jm.PostID,
		jm.Platform,
		jm.Status,
		jm.Duration.Milliseconds(),
		sql.NullString{String: jm.Error, Valid: jm.Error != ""},
	).Scan(&jm.ID, &jm.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return jm.ID, nil
}
