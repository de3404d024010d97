package platform

import (
	"fmt"
	"net/http"
	"time"

	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type constructor func(b *base) Adapter

// constructors must hold an entry for every value in models.Platforms;
// TestFactory_CoversEveryPlatform enforces it.
var constructors = map[models.Platform]constructor{
	models.PlatformTwitter:   newTwitter,
	models.PlatformTelegram:  newTelegram,
	models.PlatformInstagram: newInstagram,
	models.PlatformFacebook:  newFacebook,
	models.PlatformLinkedIn:  newLinkedIn,
	models.PlatformYouTube:   newYouTube,
	models.PlatformTikTok:    newTikTok,
}

var defaultBaseURLs = map[models.Platform]string{
	models.PlatformTwitter:   "https://api.twitter.com",
	models.PlatformTelegram:  "https://api.telegram.org",
	models.PlatformInstagram: "https://graph.instagram.com/v21.0",
	models.PlatformFacebook:  "https://graph.facebook.com/v21.0",
	models.PlatformLinkedIn:  "https://api.linkedin.com",
	models.PlatformYouTube:   "",
	models.PlatformTikTok:    "https://open.tiktokapis.com",
}

type Option func(*Factory)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Factory) { f.httpClient = c }
}

// WithTimeout bounds every outbound platform request.
func WithTimeout(d time.Duration) Option {
	return func(f *Factory) { f.httpClient.Timeout = d }
}

func WithRateLimit(perSecond float64) Option {
	return func(f *Factory) { f.perSecond = perSecond }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(f *Factory) { f.recorder = r }
}

func WithFetcher(m MediaFetcher) Option {
	return func(f *Factory) { f.fetcher = m }
}

// WithBaseURL points one platform at another API root, e.g. a test server.
func WithBaseURL(p models.Platform, url string) Option {
	return func(f *Factory) { f.baseURLs[p] = url }
}

// Factory builds a fresh adapter per call. Circuit breakers and rate limiters
// live on the factory so they survive across jobs.
type Factory struct {
	httpClient *http.Client
	perSecond  float64
	recorder   metrics.Recorder
	fetcher    MediaFetcher
	baseURLs   map[models.Platform]string
	clients    map[models.Platform]*Client
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		recorder: metrics.Nop{},
		baseURLs: make(map[models.Platform]string, len(defaultBaseURLs)),
		clients:  make(map[models.Platform]*Client, len(constructors)),
	}
	for p, url := range defaultBaseURLs {
		f.baseURLs[p] = url
	}
	for _, opt := range opts {
		opt(f)
	}
	for p := range constructors {
		f.clients[p] = newClient(p, f.httpClient, f.perSecond, f.recorder)
	}
	return f
}

func (f *Factory) New(p models.Platform) (Adapter, error) {
	build, ok := constructors[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, p)
	}
	return build(&base{
		platform: p,
		reqs:     RequirementsFor(p),
		client:   f.clients[p],
		fetcher:  f.fetcher,
		baseURL:  f.baseURLs[p],
	}), nil
}
