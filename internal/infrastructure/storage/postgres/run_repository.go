package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crmsync/internal/domain/run"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

type RunRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRunRepository(pool *pgxpool.Pool, log *slog.Logger) *RunRepository {
	return &RunRepository{
		pool: pool,
		log:  log.With("component", "run_repository"),
	}
}

const runColumns = `
	id, integration_id, run_type, entity_types, status, total_entities,
	processed_entities, created_records, updated_records, skipped_records,
	duplicates_linked, error_count, checkpoint, started_at, completed_at,
	created_at, updated_at`

func (r *RunRepository) Create(ctx context.Context, m *run.MigrationRun) error {
	const query = `
		INSERT INTO migration_runs
			(id, integration_id, run_type, entity_types, status,
			 started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	entityTypes, err := json.Marshal(m.EntityTypes)
	if err != nil {
		return fmt.Errorf("marshal entity types: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		m.ID, m.IntegrationID, m.RunType, entityTypes, m.Status, m.StartedAt)
	if err != nil {
		r.log.Error("failed to create run",
			"run_id", m.ID, "integration_id", m.IntegrationID, "error", err)
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *RunRepository) Get(ctx context.Context, id string) (*run.MigrationRun, error) {
	query := `SELECT ` + runColumns + ` FROM migration_runs WHERE id = $1`

	m, err := r.scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, run.ErrNotFound
		}
		r.log.Error("failed to get run", "run_id", id, "error", err)
		return nil, fmt.Errorf("get run: %w", err)
	}
	return m, nil
}

func (r *RunRepository) List(ctx context.Context, f run.ListFilter) ([]run.MigrationRun, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if f.IntegrationID != "" {
		where += fmt.Sprintf(" AND integration_id = $%d", argIndex)
		args = append(args, f.IntegrationID)
		argIndex++
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, f.Status)
		argIndex++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM migration_runs"+where, args...).Scan(&total); err != nil {
		r.log.Error("failed to count runs", "error", err)
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	query := `SELECT ` + runColumns + ` FROM migration_runs` + where +
		" ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, f.Limit)
		argIndex++
		if f.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, f.Offset)
		}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list runs", "error", err)
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []run.MigrationRun
	for rows.Next() {
		m, err := r.scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *m)
	}
	return runs, total, rows.Err()
}

func (r *RunRepository) Status(ctx context.Context, id string) (run.Status, error) {
	const query = `SELECT status FROM migration_runs WHERE id = $1`

	var status run.Status
	err := r.pool.QueryRow(ctx, query, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", run.ErrNotFound
		}
		r.log.Error("failed to read run status", "run_id", id, "error", err)
		return "", fmt.Errorf("read run status: %w", err)
	}
	return status, nil
}

func (r *RunRepository) UpdateStatus(ctx context.Context, id string, status run.Status, completedAt *time.Time) error {
	const query = `
		UPDATE migration_runs
		SET status = $1, completed_at = $2, updated_at = NOW()
		WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, status, completedAt, id)
	if err != nil {
		r.log.Error("failed to update run status",
			"run_id", id, "status", status, "error", err)
		return fmt.Errorf("update run status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return run.ErrNotFound
	}
	return nil
}

func (r *RunRepository) SetTotalEntities(ctx context.Context, id string, total int) error {
	const query = `
		UPDATE migration_runs
		SET total_entities = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.pool.Exec(ctx, query, total, id)
	if err != nil {
		r.log.Error("failed to set total entities", "run_id", id, "error", err)
		return fmt.Errorf("set total entities: %w", err)
	}
	return nil
}

// ApplyProgress bumps the counters and replaces the checkpoint in a single
// UPDATE, so a crash between pages never separates the two.
func (r *RunRepository) ApplyProgress(ctx context.Context, id string, delta run.ProgressDelta, checkpoint *run.Checkpoint) error {
	const query = `
		UPDATE migration_runs
		SET processed_entities = processed_entities + $1,
			created_records   = created_records + $2,
			updated_records   = updated_records + $3,
			skipped_records   = skipped_records + $4,
			duplicates_linked = duplicates_linked + $5,
			checkpoint = $6,
			updated_at = NOW()
		WHERE id = $7`

	cp, err := marshalCheckpoint(checkpoint)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, query,
		delta.Processed, delta.Created, delta.Updated, delta.Skipped,
		delta.DuplicatesLinked, cp, id)
	if err != nil {
		r.log.Error("failed to apply progress", "run_id", id, "error", err)
		return fmt.Errorf("apply progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		return run.ErrNotFound
	}
	return nil
}

func (r *RunRepository) AddError(ctx context.Context, e *run.MigrationError) error {
	const insertQuery = `
		INSERT INTO migration_errors
			(id, run_id, entity_type, external_id, error_type,
			 error_message, error_details, retry_count, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	const bumpQuery = `
		UPDATE migration_runs
		SET error_count = error_count + 1, updated_at = NOW()
		WHERE id = $1`

	var details []byte
	if e.ErrorDetails != nil {
		var err error
		details, err = json.Marshal(e.ErrorDetails)
		if err != nil {
			return fmt.Errorf("marshal error details: %w", err)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertQuery,
		e.ID, e.RunID, e.EntityType, e.ExternalID, e.ErrorType,
		e.ErrorMessage, details, e.RetryCount, e.Resolved, e.CreatedAt)
	if err != nil {
		r.log.Error("failed to insert migration error",
			"run_id", e.RunID, "error_type", e.ErrorType, "error", err)
		return fmt.Errorf("insert migration error: %w", err)
	}

	if _, err = tx.Exec(ctx, bumpQuery, e.RunID); err != nil {
		r.log.Error("failed to bump error count", "run_id", e.RunID, "error", err)
		return fmt.Errorf("bump error count: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *RunRepository) ListErrors(ctx context.Context, runID string, f run.ErrorFilter) ([]run.MigrationError, int, error) {
	where := " WHERE run_id = $1"
	args := []interface{}{runID}
	argIndex := 2

	if f.EntityType != "" {
		where += fmt.Sprintf(" AND entity_type = $%d", argIndex)
		args = append(args, f.EntityType)
		argIndex++
	}
	if f.ErrorType != "" {
		where += fmt.Sprintf(" AND error_type = $%d", argIndex)
		args = append(args, f.ErrorType)
		argIndex++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM migration_errors"+where, args...).Scan(&total); err != nil {
		r.log.Error("failed to count errors", "run_id", runID, "error", err)
		return nil, 0, fmt.Errorf("count errors: %w", err)
	}

	query := `
		SELECT id, run_id, entity_type, external_id, error_type,
		       error_message, error_details, retry_count, resolved, created_at
		FROM migration_errors` + where + " ORDER BY created_at"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, f.Limit)
		argIndex++
		if f.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, f.Offset)
		}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list errors", "run_id", runID, "error", err)
		return nil, 0, fmt.Errorf("list errors: %w", err)
	}
	defer rows.Close()

	var errs []run.MigrationError
	for rows.Next() {
		var e run.MigrationError
		var details []byte
		err := rows.Scan(&e.ID, &e.RunID, &e.EntityType, &e.ExternalID,
			&e.ErrorType, &e.ErrorMessage, &details, &e.RetryCount,
			&e.Resolved, &e.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan migration error: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.ErrorDetails); err != nil {
				return nil, 0, fmt.Errorf("unmarshal error details: %w", err)
			}
		}
		errs = append(errs, e)
	}
	return errs, total, rows.Err()
}

func (r *RunRepository) scanRun(row interface {
	Scan(dest ...interface{}) error
}) (*run.MigrationRun, error) {
	var m run.MigrationRun
	var entityTypes, checkpoint []byte

	err := row.Scan(
		&m.ID, &m.IntegrationID, &m.RunType, &entityTypes, &m.Status,
		&m.TotalEntities, &m.ProcessedEntities, &m.CreatedRecords,
		&m.UpdatedRecords, &m.SkippedRecords, &m.DuplicatesLinked,
		&m.ErrorCount, &checkpoint, &m.StartedAt, &m.CompletedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(entityTypes, &m.EntityTypes); err != nil {
		return nil, fmt.Errorf("unmarshal entity types: %w", err)
	}
	if len(checkpoint) > 0 {
		var cp run.Checkpoint
		if err := json.Unmarshal(checkpoint, &cp); err != nil {
			return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
		}
		m.Checkpoint = &cp
	}
	return &m, nil
}

func marshalCheckpoint(cp *run.Checkpoint) ([]byte, error) {
	if cp == nil {
		return nil, nil
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	return data, nil
}
