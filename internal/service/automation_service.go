package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/robfig/cron"
)

const (
	replyCadence      = 5 * time.Minute
	engagementCadence = 30 * time.Minute
)

var promotionCadence = map[string]time.Duration{
	"daily":   24 * time.Hour,
	"weekly":  7 * 24 * time.Hour,
	"monthly": 30 * 24 * time.Hour,
}

var (
	ErrActionNotFound    = errors.New("automated action not found")
	ErrAlreadyStarted    = errors.New("automation already started")
	ErrUnknownActionType = errors.New("unknown action type")
)

// TickLocker serialises ticks across replicas.
type TickLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error)
}

type AutomationService interface {
	Start() error
	Stop()
	ProcessActions(ctx context.Context) error
	ExecuteActionManually(ctx context.Context, actionID string) error
	ShouldExecuteAction(a *models.AutomatedAction, now time.Time) bool
}

type automationService struct {
	actions  repository.AutomatedActionRepository
	logs     repository.ActionLogRepository
	hub      HubManager
	recorder metrics.Recorder
	interval time.Duration
	locker   TickLocker
	lockKey  string
	now      func() time.Time

	running atomic.Bool
	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// NewAutomationService builds the engine. locker may be nil on single
// replica deployments.
func NewAutomationService(
	actions repository.AutomatedActionRepository,
	logs repository.ActionLogRepository,
	hub HubManager,
	recorder metrics.Recorder,
	interval time.Duration,
	locker TickLocker,
	lockKey string) AutomationService {
	return &automationService{
		actions:  actions,
		logs:     logs,
		hub:      hub,
		recorder: recorder,
		interval: interval,
		locker:   locker,
		lockKey:  lockKey,
		now:      time.Now,
	}
}

func (s *automationService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New()
	if err := c.AddFunc("@every "+s.interval.String(), func() { s.tick(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule automation tick: %w", err)
	}
	c.Start()

	s.cron = c
	s.cancel = cancel
	slog.Info("automation started", "interval", s.interval)
	return nil
}

func (s *automationService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cancel()
	s.cron = nil
	slog.Info("automation stopped")
}

// tick runs ProcessActions unless the previous tick is still running.
func (s *automationService) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("previous automation tick still running, skipping")
		return
	}
	defer s.running.Store(false)

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, s.lockKey, s.interval)
		if err != nil {
			s.recorder.Discard("automation_lock", err)
			return
		}
		if !ok {
			return
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				s.recorder.Discard("automation_lock", err)
			}
		}()
	}

	if err := s.ProcessActions(ctx); err != nil {
		slog.Error("automation tick failed", "error", err)
	}
}

func (s *automationService) ProcessActions(ctx context.Context) error {
	actions, err := s.actions.ListEnabled(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for _, a := range actions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.ShouldExecuteAction(a, now) {
			continue
		}
		if err := s.execute(ctx, a); err != nil {
			slog.Warn("automated action failed", "action_id", a.ID, "type", a.Type, "error", err)
		}
	}
	return nil
}

// ExecuteActionManually runs the action now, whatever its cadence or enabled
// flag say.
func (s *automationService) ExecuteActionManually(ctx context.Context, actionID string) error {
	a, err := s.actions.GetByID(ctx, actionID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrActionNotFound
	}
	return s.execute(ctx, a)
}

func (s *automationService) ShouldExecuteAction(a *models.AutomatedAction, now time.Time) bool {
	if a.LastExecutedAt == nil {
		return true
	}
	since := now.Sub(*a.LastExecutedAt)

	switch a.Type {
	case models.ActionTypeAutoReplyInbox, models.ActionTypeAutoReplyMentions:
		return since >= replyCadence
	case models.ActionTypeAutoLike, models.ActionTypeAutoFollow:
		return since >= engagementCadence
	case models.ActionTypeScheduledPromotion:
		var cfg models.PromotionConfig
		if err := json.Unmarshal(a.Config, &cfg); err != nil {
			return false
		}
		cadence, ok := promotionCadence[cfg.Frequency]
		return ok && since >= cadence
	}
	return false
}

// execute dispatches the action, then stamps it and writes one log row per
// platform whatever the outcome.
func (s *automationService) execute(ctx context.Context, a *models.AutomatedAction) error {
	dispatchErr := s.dispatch(ctx, a)
	executedAt := s.now()

	if err := s.actions.MarkExecuted(ctx, a.ID, executedAt); err != nil {
		s.recorder.Discard("automation_stamp", err)
	}

	entry := models.AutomatedActionLog{ActionID: a.ID, Success: dispatchErr == nil, ExecutedAt: executedAt}
	if dispatchErr != nil {
		entry.Error = dispatchErr.Error()
	}
	for _, p := range a.Platforms {
		row := entry
		row.Platform = p
		if _, err := s.logs.Create(ctx, &row); err != nil {
			s.recorder.Discard("automation_log", err)
		}
	}

	outcome := "success"
	if dispatchErr != nil {
		outcome = "failure"
	}
	s.recorder.RecordAutomation(string(a.Type), outcome)
	return dispatchErr
}

func (s *automationService) dispatch(ctx context.Context, a *models.AutomatedAction) error {
	switch a.Type {
	case models.ActionTypeAutoReplyInbox, models.ActionTypeAutoReplyMentions,
		models.ActionTypeAutoLike, models.ActionTypeAutoFollow:
		// Not implemented yet: the adapters have no reply, like or follow
		// calls. Reported as success so cadence and audit rows still work.
		slog.Info("automated action has no effect", "action_id", a.ID, "type", a.Type)
		return nil
	case models.ActionTypeScheduledPromotion:
		return s.promote(ctx, a)
	}
	return fmt.Errorf("%w: %q", ErrUnknownActionType, a.Type)
}

func (s *automationService) promote(ctx context.Context, a *models.AutomatedAction) error {
	var cfg models.PromotionConfig
	if err := json.Unmarshal(a.Config, &cfg); err != nil {
		return fmt.Errorf("promotion config: %w", err)
	}

	post := &models.Post{
		Platforms: a.Platforms,
		Content:   cfg.Content,
		Metadata:  map[string]any{"automated_action_id": a.ID},
	}
	_, err := s.hub.SchedulePost(ctx, post, a.UserID)
	return err
}
