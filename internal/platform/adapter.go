// Package platform holds one adapter per social network behind a common
// interface.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/maheshrc27/postflow/internal/media"
	"github.com/maheshrc27/postflow/internal/models"
)

var (
	ErrNotInitialized      = errors.New("adapter not initialized")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

type Adapter interface {
	Platform() models.Platform
	// Initialize stores credentials. The adapter is usable only if every
	// required credential field is present and non-blank.
	Initialize(creds models.Credentials)
	Initialized() bool
	Requirements() models.Requirements
	ValidateContent(c models.PostContent) ValidationResult
	// Publish reports remote rejections through PublishResult. A returned
	// error means the adapter was misused.
	Publish(ctx context.Context, c models.PostContent) (PublishResult, error)
	GetMetrics(ctx context.Context, platformPostID string) (Metrics, error)
	ValidateCredentials(ctx context.Context) (bool, error)
}

type ValidationResult struct {
	Valid  bool
	Errors []string
}

type PublishResult struct {
	Success        bool
	PlatformPostID string
	URL            string
	Error          string
	PublishedAt    time.Time
}

type Metrics struct {
	Likes       int64
	Shares      int64
	Comments    int64
	Views       int64
	Engagement  int64
	CollectedAt time.Time
}

// withEngagement fills Engagement from the counters when the platform
// reports none.
func (m Metrics) withEngagement() Metrics {
	if m.Engagement == 0 {
		m.Engagement = m.Likes + m.Shares + m.Comments
	}
	if m.CollectedAt.IsZero() {
		m.CollectedAt = time.Now()
	}
	return m
}

// MediaFetcher loads media that only carries a URL.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Open(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// base carries the state and checks every adapter shares.
type base struct {
	platform    models.Platform
	reqs        models.Requirements
	required    []string
	creds       models.Credentials
	initialized bool
	client      *Client
	fetcher     MediaFetcher
	baseURL     string
}

func (b *base) Platform() models.Platform {
	return b.platform
}

func (b *base) Requirements() models.Requirements {
	return b.reqs
}

func (b *base) Initialize(creds models.Credentials) {
	b.creds = creds
	b.initialized = true
	for _, key := range b.required {
		if strings.TrimSpace(creds[key]) == "" {
			b.initialized = false
			return
		}
	}
}

func (b *base) Initialized() bool {
	return b.initialized
}

func (b *base) cred(key string) string {
	return b.creds[key]
}

func (b *base) ensureInitialized() error {
	if !b.initialized {
		return fmt.Errorf("%s: %w", b.platform, ErrNotInitialized)
	}
	return nil
}

// ValidateContent reports every violation rather than the first one.
func (b *base) ValidateContent(c models.PostContent) ValidationResult {
	var errs []string

	if n := len([]rune(c.Text)); b.reqs.MaxTextLength > 0 && n > b.reqs.MaxTextLength {
		errs = append(errs, fmt.Sprintf("text is %d characters, limit is %d", n, b.reqs.MaxTextLength))
	}
	if b.reqs.MaxMediaCount > 0 && len(c.Media) > b.reqs.MaxMediaCount {
		errs = append(errs, fmt.Sprintf("%d media attached, limit is %d", len(c.Media), b.reqs.MaxMediaCount))
	}

	for i, m := range c.Media {
		if err := media.ValidateMedia(m, b.reqs); err != nil {
			for _, e := range unwrapAll(err) {
				errs = append(errs, fmt.Sprintf("media %d: %s", i, e.Error()))
			}
		}
		if d := b.reqs.MaxImageDimensions; d != nil && m.Type == models.MediaTypeImage &&
			(m.Width > d.Width || m.Height > d.Height) {
			errs = append(errs, fmt.Sprintf("media %d: %dx%d exceeds %dx%d", i, m.Width, m.Height, d.Width, d.Height))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// mediaBytes returns the media payload, downloading it when only a URL is
// set.
func (b *base) mediaBytes(ctx context.Context, m models.MediaFile) ([]byte, error) {
	if len(m.Data) > 0 {
		return m.Data, nil
	}
	if m.URL == "" {
		return nil, errors.New("media has neither data nor url")
	}
	if b.fetcher == nil {
		return nil, errors.New("no media fetcher configured")
	}
	return b.fetcher.Fetch(ctx, m.URL)
}

func (b *base) failed(err error) PublishResult {
	return PublishResult{Success: false, Error: err.Error()}
}

func (b *base) published(id, url string) PublishResult {
	return PublishResult{Success: true, PlatformPostID: id, URL: url, PublishedAt: time.Now()}
}
