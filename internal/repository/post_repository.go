package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postflow/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	// UpdateStatus moves the post to status when its current status allows
	// it. It reports whether a row changed.
	UpdateStatus(ctx context.Context, id string, status models.PostStatus) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, platforms, content, scheduled_at, published_at, status, recurrence, metadata, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, platforms, content, scheduled_at, status, recurrence, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	content, err := json.Marshal(post.Content)
	if err != nil {
		return err
	}
	recurrence, err := nullableJSON(post.Recurrence)
	if err != nil {
		return err
	}
	metadata, err := nullableJSON(post.Metadata)
	if err != nil {
		return err
	}

	args := []any{post.ID, post.UserID, pq.Array(platformStrings(post.Platforms)), string(content),
		post.ScheduledAt, post.Status, recurrence, metadata}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&post.CreatedAt, &post.UpdatedAt)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&post.CreatedAt, &post.UpdatedAt)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) UpdateStatus(ctx context.Context, id string, status models.PostStatus) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			published_at = CASE WHEN $1 = 'published' THEN COALESCE(published_at, $2) ELSE published_at END,
			updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`

	sources := make([]string, 0, len(models.TransitionSources(status)))
	for _, s := range models.TransitionSources(status) {
		sources = append(sources, string(s))
	}

	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id, pq.Array(sources))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	var post models.Post
	var platforms []string
	var content []byte
	var recurrence, metadata []byte

	err := s.Scan(&post.ID, &post.UserID, pq.Array(&platforms), &content, &post.ScheduledAt, &post.PublishedAt,
		&post.Status, &recurrence, &metadata, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.Platforms = toPlatforms(platforms)
	if err := json.Unmarshal(content, &post.Content); err != nil {
		return nil, err
	}
	if len(recurrence) > 0 {
		if err := json.Unmarshal(recurrence, &post.Recurrence); err != nil {
			return nil, err
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &post.Metadata); err != nil {
			return nil, err
		}
	}
	return &post, nil
}
