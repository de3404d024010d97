package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	putFunc func(ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error)
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return f.putFunc(ctx, in)
}

func TestR2Store_Put(t *testing.T) {
	var gotKey, gotType, gotBucket string
	var gotBody []byte
	putter := &fakePutter{putFunc: func(ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		gotKey, gotType, gotBucket = *in.Key, *in.ContentType, *in.Bucket
		gotBody, _ = io.ReadAll(in.Body)
		return &s3.PutObjectOutput{}, nil
	}}
	store := newR2Store(putter, "media-bucket", "https://cdn.example.com/")

	data := pngImage(t, 2, 2, false)
	url, err := store.Put(context.Background(), data, "")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if gotBucket != "media-bucket" {
		t.Errorf("bucket = %q", gotBucket)
	}
	if !strings.HasPrefix(gotKey, "media/") || !strings.HasSuffix(gotKey, ".png") {
		t.Errorf("key = %q, want media/<id>.png", gotKey)
	}
	if gotType != "image/png" {
		t.Errorf("content type = %q, want image/png", gotType)
	}
	if url != "https://cdn.example.com/"+gotKey {
		t.Errorf("url = %q", url)
	}
	if len(gotBody) != len(data) {
		t.Errorf("uploaded %d bytes, want %d", len(gotBody), len(data))
	}
}

func TestR2Store_PutError(t *testing.T) {
	putter := &fakePutter{putFunc: func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return nil, errors.New("access denied")
	}}
	store := newR2Store(putter, "b", "https://cdn")
	if _, err := store.Put(context.Background(), []byte("x"), "text/plain"); err == nil {
		t.Error("Put() = nil error, want upload failure")
	}
}

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	f := NewFetcherWithClient(srv.Client(), 100)
	data, err := f.Fetch(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "0123456789" {
		t.Errorf("data = %q", data)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("Fetch(404) = nil error")
	}

	small := NewFetcherWithClient(srv.Client(), 5)
	if _, err := small.Fetch(context.Background(), srv.URL+"/ok"); err == nil {
		t.Error("Fetch over limit = nil error")
	}
}

func TestNewFetcher_BlocksLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secret"))
	}))
	defer srv.Close()

	f := NewFetcher(0, 0)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Error("Fetch(loopback) = nil error, want SSRF block")
	}
}
