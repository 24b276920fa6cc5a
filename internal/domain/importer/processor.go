package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crmsync/internal/crm"
	"crmsync/internal/domain/conflict"
	"crmsync/internal/domain/duplicate"
	"crmsync/internal/domain/entity"
	"crmsync/internal/domain/integration"
	"crmsync/internal/domain/run"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// requiredFields lists the incoming fields a record must carry to be
// importable at all, per entity type.
var requiredFields = map[string][]string{
	"contact": {"email"},
	"company": {"name"},
	"matter":  {"title"},
}

// ClientFactory builds a CRM client for an integration once its credential
// has been decrypted.
type ClientFactory func(baseURL, token string) crm.Client

// Processor drives one run through the external CRM page by page. Progress
// is checkpointed after every page so a crash or restart resumes at the
// last completed page, and the run status is re-read between pages so pause
// and cancel are honored cooperatively.
type Processor struct {
	runs         run.Repository
	controller   run.Servicer
	recorder     *run.Recorder
	entities     entity.Repository
	resolver     *duplicate.Resolver
	guard        *conflict.Guard
	integrations integration.Servicer
	clients      ClientFactory
	pageSize     int
	log          *slog.Logger
}

func NewProcessor(
	runs run.Repository,
	controller run.Servicer,
	recorder *run.Recorder,
	entities entity.Repository,
	resolver *duplicate.Resolver,
	guard *conflict.Guard,
	integrations integration.Servicer,
	clients ClientFactory,
	pageSize int,
	log *slog.Logger,
) *Processor {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Processor{
		runs:         runs,
		controller:   controller,
		recorder:     recorder,
		entities:     entities,
		resolver:     resolver,
		guard:        guard,
		integrations: integrations,
		clients:      clients,
		pageSize:     pageSize,
		log:          log.With(slog.String("component", "page_processor")),
	}
}

// Run executes (or resumes) the migration run until its entity types are
// exhausted, the status flips away from RUNNING, or the CRM becomes
// unreachable. A credential failure prevents the run from making any
// progress: credentials are resolved once, here, at run start.
func (p *Processor) Run(ctx context.Context, runID string) error {
	r, err := p.runs.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	log := p.log.With(slog.String("run_id", runID))

	token, err := p.integrations.Token(ctx, r.IntegrationID)
	if err != nil {
		p.recorder.Record(ctx, runID, "", "", run.ErrorTypeDecryption, err.Error(), nil)
		return fmt.Errorf("cannot start run: %w", err)
	}

	in, err := p.integrations.Get(ctx, r.IntegrationID)
	if err != nil {
		return fmt.Errorf("failed to load integration: %w", err)
	}
	client := p.clients(in.BaseURL, token)

	if r.TotalEntities == nil {
		p.countTotal(ctx, client, r, log)
	}

	startIdx, startPage := resumePoint(r)
	for i := startIdx; i < len(r.EntityTypes); i++ {
		entityType := r.EntityTypes[i]
		page := 1
		if i == startIdx {
			page = startPage
		}

		exhausted, err := p.processEntityType(ctx, r, client, entityType, page, log)
		if err != nil {
			return err
		}
		if !exhausted {
			// pause or cancel observed between pages; leave quietly
			return nil
		}

		if i+1 < len(r.EntityTypes) {
			next := &run.Checkpoint{Phase: r.EntityTypes[i+1], Page: 1}
			if err := p.runs.ApplyProgress(ctx, r.ID, run.ProgressDelta{}, next); err != nil {
				return fmt.Errorf("failed to advance checkpoint: %w", err)
			}
		}
	}

	status, err := p.runs.Status(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("failed to re-read run status: %w", err)
	}
	if status != run.StatusRunning {
		return nil
	}

	log.Info("all entity types exhausted")
	return p.controller.Complete(ctx, r.ID)
}

// processEntityType loops pages of one entity type. Returns exhausted=true
// when the CRM ran out of records, exhausted=false when the run status
// asked us to stop.
func (p *Processor) processEntityType(ctx context.Context, r *run.MigrationRun, client crm.Client, entityType string, page int, log *slog.Logger) (bool, error) {
	for {
		// the only cooperative yield point: between pages
		status, err := p.runs.Status(ctx, r.ID)
		if err != nil {
			return false, fmt.Errorf("failed to read run status: %w", err)
		}
		if status != run.StatusRunning {
			log.Info("stopping run loop", slog.String("status", string(status)))
			return false, nil
		}

		records, err := client.FetchPage(ctx, entityType, page, p.pageSize)
		if err != nil {
			p.recordPageFailure(ctx, r.ID, entityType, page, err)
			// leave the run RUNNING with no further progress; the operator
			// notices via the stalled progress and error log
			return false, nil
		}
		if len(records) == 0 {
			return true, nil
		}

		delta := run.ProgressDelta{Processed: len(records)}
		for _, rec := range records {
			switch p.processRecord(ctx, r.ID, entityType, rec) {
			case outcomeCreated:
				delta.Created++
			case outcomeUpdated:
				delta.Updated++
			case outcomeLinked:
				delta.Updated++
				delta.DuplicatesLinked++
			case outcomeSkipped:
				delta.Skipped++
			case outcomeFailed:
				// already recorded; the loop continues with the next record
			}
		}

		checkpoint := &run.Checkpoint{Phase: entityType, Page: page + 1}
		if err := p.runs.ApplyProgress(ctx, r.ID, delta, checkpoint); err != nil {
			return false, fmt.Errorf("failed to persist progress: %w", err)
		}

		log.Debug("page processed",
			slog.String("entity_type", entityType),
			slog.Int("page", page),
			slog.Int("records", len(records)),
		)
		page++
	}
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeLinked
	outcomeSkipped
	outcomeFailed
)

// processRecord applies one external record to the local store. Failures
// are isolated: they are recorded and the page moves on.
func (p *Processor) processRecord(ctx context.Context, runID, entityType string, rec crm.Record) outcome {
	if err := validate(entityType, rec); err != nil {
		p.recorder.Record(ctx, runID, entityType, rec.ExternalID, run.ErrorTypeValidation, err.Error(), nil)
		return outcomeFailed
	}

	existing, err := p.entities.FindByExternalID(ctx, entityType, rec.ExternalID)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		p.recorder.Record(ctx, runID, entityType, rec.ExternalID, run.ErrorTypeAPI, err.Error(),
			map[string]any{"stage": "local_lookup"})
		return outcomeFailed
	}

	linked := false
	if existing == nil {
		matched, err := p.resolver.Resolve(ctx, runID, entityType, rec)
		if err != nil {
			p.recorder.Record(ctx, runID, entityType, rec.ExternalID, run.ErrorTypeAPI, err.Error(),
				map[string]any{"stage": "duplicate_resolution"})
			return outcomeFailed
		}
		if matched != nil {
			existing = matched
			linked = true
		}
	}

	now := time.Now()
	if existing == nil {
		created := &entity.Entity{
			ID:         uuid.NewString(),
			EntityType: entityType,
			ExternalID: rec.ExternalID,
			Fields:     rec.Fields,
			Meta: &conflict.ImportMetadata{
				Source:       conflict.SourceCRM,
				ExternalID:   rec.ExternalID,
				LastSyncedAt: &now,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := p.entities.Create(ctx, created); err != nil {
			p.recorder.Record(ctx, runID, entityType, rec.ExternalID, run.ErrorTypeAPI, err.Error(),
				map[string]any{"stage": "create"})
			return outcomeFailed
		}
		return outcomeCreated
	}

	fields := rec.Fields
	if existing.Meta.Imported() {
		fields = p.guard.FilterApplicable(entityType, rec.Fields, existing.Meta)
		if len(fields) == 0 && len(rec.Fields) > 0 {
			return outcomeSkipped
		}
	} else {
		// first import over a pre-existing local record: stamp provenance
		existing.Meta = &conflict.ImportMetadata{Source: conflict.SourceCRM}
	}

	if existing.Fields == nil {
		existing.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		existing.Fields[k] = v
	}
	existing.ExternalID = rec.ExternalID
	existing.Meta.ExternalID = rec.ExternalID
	existing.Meta.LastSyncedAt = &now
	existing.UpdatedAt = now

	if err := p.entities.Update(ctx, existing); err != nil {
		p.recorder.Record(ctx, runID, entityType, rec.ExternalID, run.ErrorTypeAPI, err.Error(),
			map[string]any{"stage": "update"})
		return outcomeFailed
	}
	if linked {
		return outcomeLinked
	}
	return outcomeUpdated
}

func (p *Processor) recordPageFailure(ctx context.Context, runID, entityType string, page int, err error) {
	errType := run.ErrorTypeAPI
	details := map[string]any{"page": page}
	if crm.IsRateLimit(err) {
		errType = run.ErrorTypeRateLimit
	} else {
		var apiErr *crm.APIError
		if errors.As(err, &apiErr) {
			details["status_code"] = apiErr.StatusCode
		}
	}
	p.recorder.Record(ctx, runID, entityType, "", errType, err.Error(), details)
}

func (p *Processor) countTotal(ctx context.Context, client crm.Client, r *run.MigrationRun, log *slog.Logger) {
	total := 0
	for _, entityType := range r.EntityTypes {
		n, err := client.Count(ctx, entityType)
		if err != nil {
			log.Warn("failed to count remote entities, progress will be indeterminate",
				slog.String("entity_type", entityType),
				slog.String("error", err.Error()),
			)
			return
		}
		total += n
	}

	if err := p.runs.SetTotalEntities(ctx, r.ID, total); err != nil {
		log.Warn("failed to persist total entities", slog.String("error", err.Error()))
		return
	}
	r.TotalEntities = &total
}

// resumePoint maps the persisted checkpoint back onto the run's entity
// type list. An unknown phase restarts from the beginning.
func resumePoint(r *run.MigrationRun) (int, int) {
	if r.Checkpoint == nil {
		return 0, 1
	}
	for i, t := range r.EntityTypes {
		if t == r.Checkpoint.Phase {
			page := r.Checkpoint.Page
			if page < 1 {
				page = 1
			}
			return i, page
		}
	}
	return 0, 1
}

func validate(entityType string, rec crm.Record) error {
	if rec.ExternalID == "" {
		return fmt.Errorf("record has no external id")
	}
	for _, field := range requiredFields[entityType] {
		v, ok := rec.Fields[field]
		if !ok || v == nil || v == "" {
			return fmt.Errorf("missing required field %q", field)
		}
	}
	return nil
}
