package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// APIError is a non-2xx answer from a platform API.
type APIError struct {
	Platform   models.Platform
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api: status %d: %s", e.Platform, e.StatusCode, e.Body)
}

// Temporary reports whether retrying later might succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is the outbound HTTP path of one platform. It is shared by every
// adapter instance of that platform and holds no credentials.
type Client struct {
	platform models.Platform
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
}

func newClient(p models.Platform, httpClient *http.Client, perSecond float64, recorder metrics.Recorder) *Client {
	st := gobreaker.Settings{
		Name:        string(p),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejections such as 400 or 403 say nothing about platform health.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			recorder.RecordBreakerState(name, to == gobreaker.StateOpen)
		},
	}

	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		platform: p,
		http:     httpClient,
		breaker:  gobreaker.NewCircuitBreaker(st),
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Do sends req and returns the response when the status is 2xx. Any other
// status is turned into an *APIError with the body drained.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			// query strings may carry access tokens
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				if i := strings.IndexByte(urlErr.URL, '?'); i >= 0 {
					urlErr.URL = urlErr.URL[:i]
				}
			}
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, &APIError{Platform: c.platform, StatusCode: resp.StatusCode, Body: string(body)}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*http.Response), nil
}

// DoJSON sends body as JSON (when non-nil) and decodes the answer into out
// (when non-nil).
func (c *Client) DoJSON(ctx context.Context, method, url string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.platform, err)
	}
	return nil
}

// Call runs an SDK call behind the same limiter and breaker as Do.
func (c *Client) Call(ctx context.Context, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

type multipartFile struct {
	field    string
	name     string
	mimeType string
	data     []byte
}

// DoMultipart posts a multipart form and decodes the JSON answer into out.
func (c *Client) DoMultipart(ctx context.Context, url string, header http.Header, fields map[string]string, files []multipartFile, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		if f.mimeType != "" {
			h.Set("Content-Type", f.mimeType)
		}
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func marshalString(v any) (string, error) {
	raw, err := json.Marshal(v)
	return string(raw), err
}

// bearer builds an Authorization header for an OAuth2 access token.
func bearer(token string) http.Header {
	req := &http.Request{Header: make(http.Header)}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	return req.Header
}

// credentialCheck maps a verification call result to ValidateCredentials output:
// 401 and 403 mean the credentials are bad, anything else unexpected is an
// error.
func credentialCheck(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		return false, nil
	}
	return false, err
}
