package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/platform"
	"github.com/maheshrc27/postflow/pkg/vault"
)

func TestCredentialService_Connect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
	}))
	defer srv.Close()

	v, err := vault.New([]byte(strings.Repeat("k", 32)))
	if err != nil {
		t.Fatal(err)
	}
	repo := &memCredentials{}
	factory := platform.NewFactory(platform.WithHTTPClient(srv.Client()), platform.WithBaseURL(models.PlatformTwitter, srv.URL))
	svc := NewCredentialService(repo, factory, v)
	ctx := context.Background()

	if _, err := svc.Connect(ctx, 3, "myspace", models.Credentials{}); !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("unknown platform err = %v", err)
	}
	if _, err := svc.Connect(ctx, 3, models.PlatformTwitter, models.Credentials{}); !errors.Is(err, ErrIncompleteCredentials) {
		t.Errorf("empty credentials err = %v", err)
	}
	if _, err := svc.Connect(ctx, 3, models.PlatformTwitter, models.Credentials{"access_token": "bad"}); !errors.Is(err, ErrCredentialsRejected) {
		t.Errorf("rejected credentials err = %v", err)
	}

	first, err := svc.Connect(ctx, 3, models.PlatformTwitter, models.Credentials{"access_token": "good"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if strings.Contains(first.Credentials, "good") {
		t.Error("credentials stored in plaintext")
	}
	plain, err := v.DecryptCredentials(first.Credentials)
	if err != nil || plain["access_token"] != "good" {
		t.Errorf("stored credentials = %v, %v", plain, err)
	}

	if _, err := svc.Connect(ctx, 3, models.PlatformTwitter, models.Credentials{"access_token": "good"}); err != nil {
		t.Fatal(err)
	}
	active, _ := svc.List(ctx, 3)
	if len(active) != 1 {
		t.Errorf("active credentials = %d, want 1 after reconnect", len(active))
	}

	if err := svc.Disconnect(ctx, 3, models.PlatformTwitter); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := svc.Disconnect(ctx, 3, models.PlatformTwitter); !errors.Is(err, ErrCredentialNotConnected) {
		t.Errorf("second Disconnect err = %v, want ErrCredentialNotConnected", err)
	}
}
