// Package notification tells users how their posts went. Delivery is best
// effort: failures are counted and logged, never returned.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
)

const (
	EventPublishSucceeded = "publish.succeeded"
	EventPublishFailed    = "publish.failed"
)

type Event struct {
	Type           string          `json:"type"`
	PostID         string          `json:"post_id"`
	UserID         int64           `json:"user_id"`
	Platform       models.Platform `json:"platform"`
	PlatformPostID string          `json:"platform_post_id,omitempty"`
	URL            string          `json:"url,omitempty"`
	Error          string          `json:"error,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

type Notifier interface {
	NotifySuccess(ctx context.Context, e Event)
	NotifyFailure(ctx context.Context, e Event)
}

// EventWriter publishes events to a stream for other services.
type EventWriter interface {
	WriteEvent(ctx context.Context, e Event) error
}

type service struct {
	settings repository.NotificationSettingsRepository
	webhooks *http.Client
	events   EventWriter
	recorder metrics.Recorder
}

// NewService returns a Notifier that calls the user's webhook and, when
// events is non-nil, also writes every event to the stream.
func NewService(settings repository.NotificationSettingsRepository, webhooks *http.Client, events EventWriter, recorder metrics.Recorder) Notifier {
	return &service{settings: settings, webhooks: webhooks, events: events, recorder: recorder}
}

// NewWebhookClient returns a client that refuses to call private networks.
func NewWebhookClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		Build()
	return safeurl.Client(config).Client
}

func (s *service) NotifySuccess(ctx context.Context, e Event) {
	e.Type = EventPublishSucceeded
	s.notify(ctx, e, func(ns *models.NotificationSettings) bool { return ns.NotifyOnSuccess })
}

func (s *service) NotifyFailure(ctx context.Context, e Event) {
	e.Type = EventPublishFailed
	s.notify(ctx, e, func(ns *models.NotificationSettings) bool { return ns.NotifyOnFailure })
}

func (s *service) notify(ctx context.Context, e Event, wanted func(*models.NotificationSettings) bool) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	if s.events != nil {
		if err := s.events.WriteEvent(ctx, e); err != nil {
			s.recorder.Discard("notification_stream", err)
		}
	}

	ns, err := s.settings.GetByUserID(ctx, e.UserID)
	if err != nil {
		s.recorder.Discard("notification_settings", err)
		return
	}
	if ns == nil || ns.WebhookURL == "" || !wanted(ns) {
		return
	}
	if err := s.postWebhook(ctx, ns.WebhookURL, e); err != nil {
		s.recorder.Discard("notification_webhook", err)
	}
}

func (s *service) postWebhook(ctx context.Context, url string, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.webhooks.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s answered %d", e.Type, resp.StatusCode)
	}
	return nil
}
