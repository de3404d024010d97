package job

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/platform"
	"github.com/maheshrc27/postflow/pkg/vault"
)

type memCredentials struct {
	mu          sync.Mutex
	due         []*models.PlatformCredential
	before      time.Time
	validated   map[int64]time.Time
	deactivated map[int64]bool
}

func (m *memCredentials) ListActiveByUser(ctx context.Context, userID int64) ([]*models.PlatformCredential, error) {
	return nil, nil
}

func (m *memCredentials) GetActive(ctx context.Context, userID int64, p models.Platform) (*models.PlatformCredential, error) {
	return nil, nil
}

func (m *memCredentials) Save(ctx context.Context, c *models.PlatformCredential) (int64, error) {
	return 0, nil
}

func (m *memCredentials) ListDueForValidation(ctx context.Context, before time.Time) ([]*models.PlatformCredential, error) {
	m.before = before
	return m.due, nil
}

func (m *memCredentials) MarkValidated(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validated[id] = at
	return nil
}

func (m *memCredentials) Deactivate(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deactivated[id] = true
	return nil
}

func TestCheckCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") {
		case "good":
			_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
		case "revoked":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	v, err := vault.New([]byte(strings.Repeat("k", 32)))
	if err != nil {
		t.Fatal(err)
	}
	seal := func(token string) string {
		s, err := v.EncryptCredentials(models.Credentials{"access_token": token})
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	repo := &memCredentials{
		due: []*models.PlatformCredential{
			{ID: 1, Platform: models.PlatformTwitter, Credentials: seal("good")},
			{ID: 2, Platform: models.PlatformTwitter, Credentials: seal("revoked")},
			{ID: 3, Platform: models.PlatformTwitter, Credentials: seal("flaky")},
			{ID: 4, Platform: models.PlatformTwitter, Credentials: seal("")},
			{ID: 5, Platform: models.PlatformTwitter, Credentials: "not-a-sealed-blob"},
		},
		validated:   make(map[int64]time.Time),
		deactivated: make(map[int64]bool),
	}
	factory := platform.NewFactory(
		platform.WithHTTPClient(srv.Client()),
		platform.WithBaseURL(models.PlatformTwitter, srv.URL),
	)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j := NewCredentialCheckJob(repo, factory, v, metrics.Nop{}, 30*time.Minute)
	j.now = func() time.Time { return now }

	j.CheckCredentials(context.Background())

	if want := now.Add(-30 * time.Minute); !repo.before.Equal(want) {
		t.Errorf("before = %v, want %v", repo.before, want)
	}
	if len(repo.validated) != 1 || !repo.validated[1].Equal(now) {
		t.Errorf("validated = %v, want only 1", repo.validated)
	}
	// 3 failed transiently and 5 could not be opened; neither is deactivated
	if len(repo.deactivated) != 2 || !repo.deactivated[2] || !repo.deactivated[4] {
		t.Errorf("deactivated = %v, want 2 and 4", repo.deactivated)
	}
}
