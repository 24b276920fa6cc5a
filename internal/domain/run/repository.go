package run

import (
	"context"
	"time"
)

// ProgressDelta is the per-page counter increment applied together with the
// checkpoint in a single atomic write, so a crash never leaves a checkpoint
// without its matching counters.
type ProgressDelta struct {
	Processed        int
	Created          int
	Updated          int
	Skipped          int
	DuplicatesLinked int
}

type ListFilter struct {
	IntegrationID string
	Status        Status
	Offset        int
	Limit         int
}

type ErrorFilter struct {
	EntityType string
	ErrorType  ErrorType
	Offset     int
	Limit      int
}

type Repository interface {
	Create(ctx context.Context, r *MigrationRun) error
	Get(ctx context.Context, id string) (*MigrationRun, error)
	List(ctx context.Context, f ListFilter) ([]MigrationRun, int, error)

	// Status re-reads only the current status; the processor polls it
	// between pages.
	Status(ctx context.Context, id string) (Status, error)

	UpdateStatus(ctx context.Context, id string, status Status, completedAt *time.Time) error
	SetTotalEntities(ctx context.Context, id string, total int) error

	// ApplyProgress increments counters and replaces the checkpoint in one
	// statement.
	ApplyProgress(ctx context.Context, id string, delta ProgressDelta, checkpoint *Checkpoint) error

	// AddError appends a MigrationError row and bumps the run's errorCount.
	AddError(ctx context.Context, e *MigrationError) error
	ListErrors(ctx context.Context, runID string, f ErrorFilter) ([]MigrationError, int, error)
}
