package integration

import (
	"context"
	"fmt"

	"crmsync/internal/app/server/crypto"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Servicer manages integrations and their encrypted API credentials.
type Servicer interface {
	Get(ctx context.Context, id string) (*Integration, error)
	SetToken(ctx context.Context, id, token string) error
	Token(ctx context.Context, id string) (string, error)
}

type Service struct {
	repo  Repository
	vault *crypto.Vault
	log   *slog.Logger
}

func NewService(repo Repository, vault *crypto.Vault, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		vault: vault,
		log:   log.With(slog.String("component", "integration_service")),
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Integration, error) {
	return s.repo.Get(ctx, id)
}

// SetToken encrypts the externally issued API token and stores the
// envelope under the integration's opaque credential key. The plaintext is
// never persisted or logged.
func (s *Service) SetToken(ctx context.Context, id, token string) error {
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	in, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if in.CredentialKey == "" {
		in.CredentialKey = uuid.NewString()
		if err := s.repo.SetCredentialKey(ctx, id, in.CredentialKey); err != nil {
			return fmt.Errorf("failed to assign credential key: %w", err)
		}
	}

	envelope, err := s.vault.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	if err := s.repo.SaveCredential(ctx, in.CredentialKey, envelope); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	s.log.Info("credential rotated", slog.String("integration_id", id))
	return nil
}

// Token resolves and decrypts the integration's API token. Called once at
// run start; a failure here prevents the run from starting.
func (s *Service) Token(ctx context.Context, id string) (string, error) {
	in, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if in.CredentialKey == "" {
		return "", ErrNoCredential
	}

	envelope, err := s.repo.Credential(ctx, in.CredentialKey)
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}

	token, err := s.vault.Decrypt(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential for integration %s: %w", id, err)
	}
	return token, nil
}
