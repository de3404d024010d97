package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/repository"
)

const (
	checkConcurrency = 10
	checkTimeout     = 5 * time.Minute
)

// CredentialCheckJob re-validates stored credentials against their
// platforms. Credentials the platform rejects are deactivated so new posts
// skip them.
type CredentialCheckJob struct {
	credentials repository.CredentialRepository
	factory     queue.AdapterFactory
	vault       queue.CredentialOpener
	recorder    metrics.Recorder
	maxAge      time.Duration
	now         func() time.Time
}

func NewCredentialCheckJob(
	credentials repository.CredentialRepository,
	factory queue.AdapterFactory,
	vault queue.CredentialOpener,
	recorder metrics.Recorder,
	maxAge time.Duration) *CredentialCheckJob {
	return &CredentialCheckJob{
		credentials: credentials,
		factory:     factory,
		vault:       vault,
		recorder:    recorder,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// Run is the cron entry point.
func (j *CredentialCheckJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	j.CheckCredentials(ctx)
}

func (j *CredentialCheckJob) CheckCredentials(ctx context.Context) {
	now := j.now()
	creds, err := j.credentials.ListDueForValidation(ctx, now.Add(-j.maxAge))
	if err != nil {
		slog.Error("list credentials for validation", "error", err)
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, checkConcurrency)

	for _, cred := range creds {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(cred *models.PlatformCredential) {
			defer wg.Done()
			defer func() { <-semaphore }()
			j.check(ctx, cred, now)
		}(cred)
	}
	wg.Wait()
}

func (j *CredentialCheckJob) check(ctx context.Context, cred *models.PlatformCredential, now time.Time) {
	log := slog.With("credential_id", cred.ID, "platform", cred.Platform, "user_id", cred.UserID)

	valid, err := j.validate(ctx, cred)
	if err != nil {
		// transient failures say nothing about the credential
		log.Warn("credential check inconclusive", "error", err)
		return
	}

	if valid {
		if err := j.credentials.MarkValidated(ctx, cred.ID, now); err != nil {
			j.recorder.Discard("credential_check", err)
		}
		return
	}

	log.Warn("credentials rejected by platform, deactivating")
	if err := j.credentials.Deactivate(ctx, cred.ID); err != nil {
		j.recorder.Discard("credential_check", err)
	}
}

func (j *CredentialCheckJob) validate(ctx context.Context, cred *models.PlatformCredential) (bool, error) {
	plain, err := j.vault.DecryptCredentials(cred.Credentials)
	if err != nil {
		return false, err
	}
	adapter, err := j.factory.New(cred.Platform)
	if err != nil {
		return false, err
	}
	adapter.Initialize(plain)
	if !adapter.Initialized() {
		return false, nil
	}
	return adapter.ValidateCredentials(ctx)
}
