package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// Fetcher downloads user supplied media URLs. The default client refuses
// private, loopback and link-local targets.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &Fetcher{client: safeurl.Client(config).Client, maxBytes: maxBytes}
}

// NewFetcherWithClient is for callers that already hold a vetted client.
func NewFetcherWithClient(client *http.Client, maxBytes int64) *Fetcher {
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Open starts a download and returns the body with its declared length
// (-1 when unknown). The caller closes the body.
func (f *Fetcher) Open(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("fetch %s: %d bytes exceeds limit of %d", url, resp.ContentLength, f.maxBytes)
	}
	return resp.Body, resp.ContentLength, nil
}

// Fetch reads the whole object into memory.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, _, err := f.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	r := io.Reader(body)
	if f.maxBytes > 0 {
		r = io.LimitReader(body, f.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: body exceeds limit of %d bytes", url, f.maxBytes)
	}
	return data, nil
}
