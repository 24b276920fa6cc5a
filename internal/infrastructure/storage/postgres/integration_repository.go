package postgres

import (
	"context"
	"errors"
	"fmt"

	"crmsync/internal/domain/integration"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

type IntegrationRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewIntegrationRepository(pool *pgxpool.Pool, log *slog.Logger) *IntegrationRepository {
	return &IntegrationRepository{
		pool: pool,
		log:  log.With("component", "integration_repository"),
	}
}

func (r *IntegrationRepository) Get(ctx context.Context, id string) (*integration.Integration, error) {
	const query = `
		SELECT id, name, provider, base_url, COALESCE(credential_key, ''),
		       created_at, updated_at
		FROM integrations
		WHERE id = $1`

	var in integration.Integration
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&in.ID, &in.Name, &in.Provider, &in.BaseURL, &in.CredentialKey,
		&in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, integration.ErrNotFound
		}
		r.log.Error("failed to get integration", "integration_id", id, "error", err)
		return nil, fmt.Errorf("get integration: %w", err)
	}
	return &in, nil
}

func (r *IntegrationRepository) SetCredentialKey(ctx context.Context, id, key string) error {
	const query = `
		UPDATE integrations
		SET credential_key = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, key, id)
	if err != nil {
		r.log.Error("failed to set credential key",
			"integration_id", id, "error", err)
		return fmt.Errorf("set credential key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return integration.ErrNotFound
	}
	return nil
}

func (r *IntegrationRepository) SaveCredential(ctx context.Context, key, envelope string) error {
	const query = `
		INSERT INTO integration_credentials (key, envelope, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			envelope = EXCLUDED.envelope,
			updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query, key, envelope)
	if err != nil {
		r.log.Error("failed to save credential", "key", key, "error", err)
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (r *IntegrationRepository) Credential(ctx context.Context, key string) (string, error) {
	const query = `SELECT envelope FROM integration_credentials WHERE key = $1`

	var envelope string
	err := r.pool.QueryRow(ctx, query, key).Scan(&envelope)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", integration.ErrNoCredential
		}
		r.log.Error("failed to load credential", "key", key, "error", err)
		return "", fmt.Errorf("load credential: %w", err)
	}
	return envelope, nil
}
