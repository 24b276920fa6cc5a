package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"crmsync/internal/domain/conflict"
	"crmsync/internal/domain/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

type EntityRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewEntityRepository(pool *pgxpool.Pool, log *slog.Logger) *EntityRepository {
	return &EntityRepository{
		pool: pool,
		log:  log.With("component", "entity_repository"),
	}
}

const entityColumns = `
	id, entity_type, external_id, fields, import_meta, created_at, updated_at`

func (r *EntityRepository) FindByExternalID(ctx context.Context, entityType, externalID string) (*entity.Entity, error) {
	query := `SELECT ` + entityColumns + `
		FROM synced_entities
		WHERE entity_type = $1 AND external_id = $2`

	e, err := r.scanEntity(r.pool.QueryRow(ctx, query, entityType, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		r.log.Error("failed to find entity by external id",
			"entity_type", entityType, "external_id", externalID, "error", err)
		return nil, fmt.Errorf("find entity by external id: %w", err)
	}
	return e, nil
}

func (r *EntityRepository) FindUnlinkedByEmail(ctx context.Context, entityType, email string) (*entity.Entity, error) {
	query := `SELECT ` + entityColumns + `
		FROM synced_entities
		WHERE entity_type = $1
		  AND external_id = ''
		  AND LOWER(TRIM(fields->>'email')) = $2
		ORDER BY created_at
		LIMIT 1`

	e, err := r.scanEntity(r.pool.QueryRow(ctx, query, entityType, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		r.log.Error("failed to find entity by email",
			"entity_type", entityType, "error", err)
		return nil, fmt.Errorf("find entity by email: %w", err)
	}
	return e, nil
}

// Create upserts on (entity_type, external_id), so replaying a page after
// a crash lands on the row it already wrote instead of duplicating it.
func (r *EntityRepository) Create(ctx context.Context, e *entity.Entity) error {
	const query = `
		INSERT INTO synced_entities
			(id, entity_type, external_id, fields, import_meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (entity_type, external_id) WHERE external_id <> ''
		DO UPDATE SET
			fields = EXCLUDED.fields,
			import_meta = EXCLUDED.import_meta,
			updated_at = EXCLUDED.updated_at`

	fields, meta, err := marshalEntity(e)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		e.ID, e.EntityType, e.ExternalID, fields, meta, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		r.log.Error("failed to create entity",
			"entity_type", e.EntityType, "external_id", e.ExternalID, "error", err)
		return fmt.Errorf("create entity: %w", err)
	}
	return nil
}

func (r *EntityRepository) Update(ctx context.Context, e *entity.Entity) error {
	const query = `
		UPDATE synced_entities
		SET external_id = $1, fields = $2, import_meta = $3, updated_at = $4
		WHERE id = $5`

	fields, meta, err := marshalEntity(e)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, query,
		e.ExternalID, fields, meta, e.UpdatedAt, e.ID)
	if err != nil {
		r.log.Error("failed to update entity", "entity_id", e.ID, "error", err)
		return fmt.Errorf("update entity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *EntityRepository) SaveMetadata(ctx context.Context, entityType, id string, meta *conflict.ImportMetadata) error {
	const query = `
		UPDATE synced_entities
		SET import_meta = $1, updated_at = NOW()
		WHERE entity_type = $2 AND id = $3`

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal import meta: %w", err)
	}

	result, err := r.pool.Exec(ctx, query, data, entityType, id)
	if err != nil {
		r.log.Error("failed to save import meta",
			"entity_type", entityType, "entity_id", id, "error", err)
		return fmt.Errorf("save import meta: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *EntityRepository) scanEntity(row interface {
	Scan(dest ...interface{}) error
}) (*entity.Entity, error) {
	var e entity.Entity
	var fields, meta []byte

	err := row.Scan(&e.ID, &e.EntityType, &e.ExternalID, &fields, &meta,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &e.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
	}
	if len(meta) > 0 {
		var m conflict.ImportMetadata
		if err := json.Unmarshal(meta, &m); err != nil {
			return nil, fmt.Errorf("unmarshal import meta: %w", err)
		}
		e.Meta = &m
	}
	return &e, nil
}

func marshalEntity(e *entity.Entity) (fields, meta []byte, err error) {
	fields, err = json.Marshal(e.Fields)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal fields: %w", err)
	}
	if e.Meta != nil {
		meta, err = json.Marshal(e.Meta)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal import meta: %w", err)
		}
	}
	return fields, meta, nil
}
