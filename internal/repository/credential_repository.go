package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
)

type CredentialRepository interface {
	ListActiveByUser(ctx context.Context, userID int64) ([]*models.PlatformCredential, error)
	GetActive(ctx context.Context, userID int64, platform models.Platform) (*models.PlatformCredential, error)
	// ListDueForValidation returns active credentials not validated since
	// the given time.
	ListDueForValidation(ctx context.Context, before time.Time) ([]*models.PlatformCredential, error)
	MarkValidated(ctx context.Context, id int64, at time.Time) error
	Deactivate(ctx context.Context, id int64) error
	// Save stores c as the user's active credential for its platform and
	// deactivates the one it replaces.
	Save(ctx context.Context, c *models.PlatformCredential) (int64, error)
}

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

const credentialColumns = `id, user_id, platform, credentials, is_active, last_validated_at, created_at, updated_at`

func scanCredential(s scanner) (*models.PlatformCredential, error) {
	var c models.PlatformCredential
	err := s.Scan(&c.ID, &c.UserID, &c.Platform, &c.Credentials, &c.IsActive, &c.LastValidatedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *credentialRepository) list(ctx context.Context, query string, args ...any) ([]*models.PlatformCredential, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var creds []*models.PlatformCredential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

func (r *credentialRepository) ListActiveByUser(ctx context.Context, userID int64) ([]*models.PlatformCredential, error) {
	query := `SELECT ` + credentialColumns + ` FROM platform_credentials WHERE user_id = $1 AND is_active = TRUE`
	return r.list(ctx, query, userID)
}

func (r *credentialRepository) GetActive(ctx context.Context, userID int64, platform models.Platform) (*models.PlatformCredential, error) {
	query := `SELECT ` + credentialColumns + ` FROM platform_credentials
		WHERE user_id = $1 AND platform = $2 AND is_active = TRUE
		ORDER BY updated_at DESC LIMIT 1`

	c, err := scanCredential(r.db.QueryRowContext(ctx, query, userID, platform))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return c, nil
}

func (r *credentialRepository) ListDueForValidation(ctx context.Context, before time.Time) ([]*models.PlatformCredential, error) {
	query := `SELECT ` + credentialColumns + ` FROM platform_credentials
		WHERE is_active = TRUE AND (last_validated_at IS NULL OR last_validated_at < $1)`
	return r.list(ctx, query, before)
}

func (r *credentialRepository) MarkValidated(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE platform_credentials SET last_validated_at = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, at, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *credentialRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE platform_credentials SET is_active = FALSE, updated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *credentialRepository) Save(ctx context.Context, c *models.PlatformCredential) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `UPDATE platform_credentials SET is_active = FALSE, updated_at = $1
		WHERE user_id = $2 AND platform = $3 AND is_active = TRUE`, now, c.UserID, c.Platform)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	query := `INSERT INTO platform_credentials (user_id, platform, credentials, is_active, last_validated_at, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $5, $5) RETURNING id`

	var id int64
	if err := tx.QueryRowContext(ctx, query, c.UserID, c.Platform, c.Credentials, c.LastValidatedAt, now).Scan(&id); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}
