package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Servicer is the migration run controller: it owns the run lifecycle
// record and exposes the operator actions. Pause and cancel only flip the
// durable status flag; the page processor honors them cooperatively before
// its next page.
type Servicer interface {
	Create(ctx context.Context, req CreateRequest) (*MigrationRun, error)
	Pause(ctx context.Context, id string) (*MigrationRun, error)
	Cancel(ctx context.Context, id string) (*MigrationRun, error)
	Resume(ctx context.Context, id string) (*MigrationRun, error)
	Complete(ctx context.Context, id string) error
	Describe(ctx context.Context, id string) (*View, error)
	List(ctx context.Context, f ListFilter) ([]View, *Pagination, error)
	Errors(ctx context.Context, runID string, f ErrorFilter) (*ErrorLog, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "run_controller")),
		now:  time.Now,
	}
}

// Create starts a new run in state RUNNING with all counters at zero and
// no checkpoint.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*MigrationRun, error) {
	if req.IntegrationID == "" {
		return nil, fmt.Errorf("integration id is required")
	}
	if len(req.EntityTypes) == 0 {
		return nil, fmt.Errorf("at least one entity type is required")
	}
	if req.RunType == "" {
		req.RunType = TypeFull
	}

	now := s.now()
	r := &MigrationRun{
		ID:            uuid.NewString(),
		IntegrationID: req.IntegrationID,
		RunType:       req.RunType,
		EntityTypes:   req.EntityTypes,
		Status:        StatusRunning,
		StartedAt:     &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create migration run: %w", err)
	}

	s.log.Info("migration run created",
		slog.String("run_id", r.ID),
		slog.String("integration_id", r.IntegrationID),
		slog.Any("entity_types", r.EntityTypes),
	)
	return r, nil
}

// Pause requests a cooperative stop. Legal only while RUNNING; the
// checkpoint and counters are untouched.
func (s *Service) Pause(ctx context.Context, id string) (*MigrationRun, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusRunning {
		return nil, &InvalidTransitionError{Action: "pause", Status: r.Status}
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusPaused, nil); err != nil {
		return nil, fmt.Errorf("failed to pause migration run: %w", err)
	}
	r.Status = StatusPaused
	s.log.Info("migration run paused", slog.String("run_id", id))
	return r, nil
}

// Cancel is legal from any non-terminal state. An in-flight page is allowed
// to finish; no new pages start afterwards.
func (s *Service) Cancel(ctx context.Context, id string) (*MigrationRun, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status.Terminal() {
		return nil, &InvalidTransitionError{Action: "cancel", Status: r.Status}
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled, &now); err != nil {
		return nil, fmt.Errorf("failed to cancel migration run: %w", err)
	}
	r.Status = StatusCancelled
	r.CompletedAt = &now
	s.log.Info("migration run cancelled", slog.String("run_id", id))
	return r, nil
}

// Resume flips a PAUSED run back to RUNNING. Processing continues from the
// persisted checkpoint, not from page 1.
func (s *Service) Resume(ctx context.Context, id string) (*MigrationRun, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPaused {
		return nil, &InvalidTransitionError{Action: "resume", Status: r.Status}
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusRunning, nil); err != nil {
		return nil, fmt.Errorf("failed to resume migration run: %w", err)
	}
	r.Status = StatusRunning
	s.log.Info("migration run resumed", slog.String("run_id", id), slog.Any("checkpoint", r.Checkpoint))
	return r, nil
}

// Complete is invoked only by the page processor once every entity type is
// exhausted.
func (s *Service) Complete(ctx context.Context, id string) error {
	now := s.now()
	if err := s.repo.UpdateStatus(ctx, id, StatusCompleted, &now); err != nil {
		return fmt.Errorf("failed to complete migration run: %w", err)
	}
	s.log.Info("migration run completed", slog.String("run_id", id))
	return nil
}

func (s *Service) Describe(ctx context.Context, id string) (*View, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewView(r, s.now()), nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]View, *Pagination, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}

	runs, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list migration runs: %w", err)
	}

	now := s.now()
	views := make([]View, len(runs))
	for i := range runs {
		views[i] = *NewView(&runs[i], now)
	}
	return views, paginate(f.Offset, f.Limit, total), nil
}

func (s *Service) Errors(ctx context.Context, runID string, f ErrorFilter) (*ErrorLog, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	if _, err := s.repo.Get(ctx, runID); err != nil {
		return nil, err
	}

	errs, total, err := s.repo.ListErrors(ctx, runID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list migration errors: %w", err)
	}

	return &ErrorLog{
		Errors:     errs,
		Pagination: *paginate(f.Offset, f.Limit, total),
	}, nil
}

func paginate(offset, limit, total int) *Pagination {
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return &Pagination{
		Page:       offset/limit + 1,
		Limit:      limit,
		TotalCount: total,
		TotalPages: totalPages,
	}
}
