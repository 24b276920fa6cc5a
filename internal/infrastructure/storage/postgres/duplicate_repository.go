package postgres

import (
	"context"
	"fmt"

	"crmsync/internal/domain/duplicate"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

type DuplicateRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewDuplicateRepository(pool *pgxpool.Pool, log *slog.Logger) *DuplicateRepository {
	return &DuplicateRepository{
		pool: pool,
		log:  log.With("component", "duplicate_repository"),
	}
}

// SaveLink keeps at most one link per (entity_type, external_id): a replayed
// page hits the unique constraint and the insert becomes a no-op.
func (r *DuplicateRepository) SaveLink(ctx context.Context, link *duplicate.Link) error {
	const query = `
		INSERT INTO import_duplicates
			(id, run_id, entity_type, external_id, existing_local_id,
			 match_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (entity_type, external_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		link.ID, link.RunID, link.EntityType, link.ExternalID,
		link.ExistingLocalID, link.MatchReason, link.CreatedAt)
	if err != nil {
		r.log.Error("failed to save duplicate link",
			"entity_type", link.EntityType, "external_id", link.ExternalID,
			"error", err)
		return fmt.Errorf("save duplicate link: %w", err)
	}
	return nil
}
