package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/repository"
)

var (
	ErrUnknownPlatform        = errors.New("unknown platform")
	ErrIncompleteCredentials  = errors.New("credentials are missing required fields")
	ErrCredentialsRejected    = errors.New("platform rejected the credentials")
	ErrCredentialNotConnected = errors.New("platform is not connected")
)

type CredentialSealer interface {
	EncryptCredentials(creds models.Credentials) (string, error)
}

type CredentialService interface {
	Connect(ctx context.Context, userID int64, p models.Platform, creds models.Credentials) (*models.PlatformCredential, error)
	List(ctx context.Context, userID int64) ([]*models.PlatformCredential, error)
	Disconnect(ctx context.Context, userID int64, p models.Platform) error
}

type credentialService struct {
	credentials repository.CredentialRepository
	factory     queue.AdapterFactory
	sealer      CredentialSealer
	now         func() time.Time
}

func NewCredentialService(credentials repository.CredentialRepository, factory queue.AdapterFactory, sealer CredentialSealer) CredentialService {
	return &credentialService{
		credentials: credentials,
		factory:     factory,
		sealer:      sealer,
		now:         time.Now,
	}
}

// Connect checks the credentials against the platform before sealing and
// storing them. A previous credential for the same platform is replaced.
func (s *credentialService) Connect(ctx context.Context, userID int64, p models.Platform, creds models.Credentials) (*models.PlatformCredential, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
	adapter, err := s.factory.New(p)
	if err != nil {
		return nil, err
	}
	adapter.Initialize(creds)
	if !adapter.Initialized() {
		return nil, ErrIncompleteCredentials
	}

	ok, err := adapter.ValidateCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("validate %s credentials: %w", p, err)
	}
	if !ok {
		return nil, ErrCredentialsRejected
	}

	sealed, err := s.sealer.EncryptCredentials(creds)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cred := &models.PlatformCredential{
		UserID:          userID,
		Platform:        p,
		Credentials:     sealed,
		IsActive:        true,
		LastValidatedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	id, err := s.credentials.Save(ctx, cred)
	if err != nil {
		return nil, err
	}
	cred.ID = id

	slog.Info("platform connected", "user_id", userID, "platform", p)
	return cred, nil
}

func (s *credentialService) List(ctx context.Context, userID int64) ([]*models.PlatformCredential, error) {
	return s.credentials.ListActiveByUser(ctx, userID)
}

func (s *credentialService) Disconnect(ctx context.Context, userID int64, p models.Platform) error {
	cred, err := s.credentials.GetActive(ctx, userID, p)
	if err != nil {
		return err
	}
	if cred == nil {
		return ErrCredentialNotConnected
	}
	return s.credentials.Deactivate(ctx, cred.ID)
}
