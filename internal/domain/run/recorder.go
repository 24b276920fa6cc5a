package run

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Recorder is the append-only failure log. Record never returns an error:
// a failure to write the error log must not take down the page processor.
type Recorder struct {
	repo Repository
	log  *slog.Logger
}

func NewRecorder(repo Repository, log *slog.Logger) *Recorder {
	return &Recorder{
		repo: repo,
		log:  log.With(slog.String("component", "error_recorder")),
	}
}

// Record appends one MigrationError row and increments the run's error
// counter. Log-and-continue on failure.
func (r *Recorder) Record(ctx context.Context, runID, entityType, externalID string, errType ErrorType, message string, details map[string]any) {
	e := &MigrationError{
		ID:           uuid.NewString(),
		RunID:        runID,
		EntityType:   entityType,
		ExternalID:   externalID,
		ErrorType:    errType,
		ErrorMessage: message,
		ErrorDetails: details,
		CreatedAt:    time.Now(),
	}

	if err := r.repo.AddError(ctx, e); err != nil {
		r.log.Error("failed to write migration error",
			slog.String("run_id", runID),
			slog.String("entity_type", entityType),
			slog.String("external_id", externalID),
			slog.String("error_type", string(errType)),
			slog.String("error", err.Error()),
		)
		return
	}

	r.log.Warn("entity failed",
		slog.String("run_id", runID),
		slog.String("entity_type", entityType),
		slog.String("external_id", externalID),
		slog.String("error_type", string(errType)),
		slog.String("message", message),
	)
}
