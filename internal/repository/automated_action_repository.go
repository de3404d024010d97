package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postflow/internal/models"
)

type AutomatedActionRepository interface {
	ListEnabled(ctx context.Context) ([]*models.AutomatedAction, error)
	GetByID(ctx context.Context, id string) (*models.AutomatedAction, error)
	MarkExecuted(ctx context.Context, id string, at time.Time) error
}

type automatedActionRepository struct {
	db *sql.DB
}

func NewAutomatedActionRepository(db *sql.DB) AutomatedActionRepository {
	return &automatedActionRepository{db: db}
}

const actionColumns = `id, user_id, name, type, platforms, config, enabled, last_executed_at, created_at, updated_at`

func scanAction(s scanner) (*models.AutomatedAction, error) {
	var a models.AutomatedAction
	var platforms []string
	var config []byte
	err := s.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, pq.Array(&platforms), &config, &a.Enabled, &a.LastExecutedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Platforms = toPlatforms(platforms)
	a.Config = config
	return &a, nil
}

func (r *automatedActionRepository) ListEnabled(ctx context.Context) ([]*models.AutomatedAction, error) {
	query := `SELECT ` + actionColumns + ` FROM automated_actions WHERE enabled = TRUE`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var actions []*models.AutomatedAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (r *automatedActionRepository) GetByID(ctx context.Context, id string) (*models.AutomatedAction, error) {
	query := `SELECT ` + actionColumns + ` FROM automated_actions WHERE id = $1`

	a, err := scanAction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return a, nil
}

func (r *automatedActionRepository) MarkExecuted(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE automated_actions SET last_executed_at = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, at, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type ActionLogRepository interface {
	Create(ctx context.Context, log *models.AutomatedActionLog) (int64, error)
}

type actionLogRepository struct {
	db *sql.DB
}

func NewActionLogRepository(db *sql.DB) ActionLogRepository {
	return &actionLogRepository{db: db}
}

func (r *actionLogRepository) Create(ctx context.Context, l *models.AutomatedActionLog) (int64, error) {
	query := `
		INSERT INTO automated_action_logs (action_id, platform, success, error, executed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		l.ActionID, l.Platform, l.Success, sql.NullString{String: l.Error, Valid: l.Error != ""}, l.ExecutedAt,
	).Scan(&l.ID)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return l.ID, nil
}
