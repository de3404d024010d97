package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postflow/internal/models"
)

type PlatformPostRepository interface {
	Create(ctx context.Context, pp *models.PlatformPost) (int64, error)
	// LatestByPost returns the most recent attempt outcome per platform.
	LatestByPost(ctx context.Context, postID string) ([]*models.PlatformPost, error)
}

type platformPostRepository struct {
	db *sql.DB
}

func NewPlatformPostRepository(db *sql.DB) PlatformPostRepository {
	return &platformPostRepository{db: db}
}

func (r *platformPostRepository) Create(ctx context.Context, pp *models.PlatformPost) (int64, error) {
	query := `
		INSERT INTO platform_posts (post_id, platform, platform_post_id, success, error, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		pp.PostID,
		pp.Platform,
		sql.NullString{String: pp.PlatformPostID, Valid: pp.PlatformPostID != ""},
		pp.Success,
		sql.NullString{String: pp.Error, Valid: pp.Error != ""},
		pp.PublishedAt,
	).Scan(&pp.ID, &pp.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return pp.ID, nil
}

func (r *platformPostRepository) LatestByPost(ctx context.Context, postID string) ([]*models.PlatformPost, error) {
	query := `
		SELECT DISTINCT ON (platform) id, post_id, platform, COALESCE(platform_post_id, ''), success,
			COALESCE(error, ''), published_at, created_at
		FROM platform_posts
		WHERE post_id = $1
		ORDER BY platform, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var out []*models.PlatformPost
	for rows.Next() {
		var pp models.PlatformPost
		err := rows.Scan(&pp.ID, &pp.PostID, &pp.Platform, &pp.PlatformPostID, &pp.Success, &pp.Error, &pp.PublishedAt, &pp.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		out = append(out, &pp)
	}
	return out, rows.Err()
}
