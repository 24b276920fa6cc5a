package duplicate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crmsync/internal/crm"
	"crmsync/internal/domain/entity"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// MatchReasonEmail is the only natural-key match currently implemented.
const MatchReasonEmail = "email_match"

// Link records that an incoming external entity was attached to a local
// record that already existed under a different identity path.
type Link struct {
	ID              string    `json:"id"`
	RunID           string    `json:"run_id"`
	EntityType      string    `json:"entity_type"`
	ExternalID      string    `json:"external_id"`
	ExistingLocalID string    `json:"existing_local_id"`
	MatchReason     string    `json:"match_reason"`
	CreatedAt       time.Time `json:"created_at"`
}

// Repository persists duplicate links. SaveLink must keep at most one link
// per (entityType, externalID) pair.
type Repository interface {
	SaveLink(ctx context.Context, link *Link) error
}

// Resolver decides whether an incoming external entity already has an
// unlinked local counterpart, and records the link instead of letting the
// processor create a second record.
type Resolver struct {
	entities entity.Repository
	links    Repository
	log      *slog.Logger
}

func NewResolver(entities entity.Repository, links Repository, log *slog.Logger) *Resolver {
	return &Resolver{
		entities: entities,
		links:    links,
		log:      log.With(slog.String("component", "duplicate_resolver")),
	}
}

// Resolve searches for an existing local record matching the incoming one
// by natural key. On a match it records the duplicate link and returns the
// local record the update should proceed against; otherwise it returns nil
// and the record is treated as new. Already-linked external identifiers
// never reach this point: the processor looks them up by external id first.
func (r *Resolver) Resolve(ctx context.Context, runID, entityType string, rec crm.Record) (*entity.Entity, error) {
	email := normalizeEmail(rec.Fields["email"])
	if email == "" {
		return nil, nil
	}

	existing, err := r.entities.FindUnlinkedByEmail(ctx, entityType, email)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search for duplicates: %w", err)
	}

	link := &Link{
		ID:              uuid.NewString(),
		RunID:           runID,
		EntityType:      entityType,
		ExternalID:      rec.ExternalID,
		ExistingLocalID: existing.ID,
		MatchReason:     MatchReasonEmail,
		CreatedAt:       time.Now(),
	}
	if err := r.links.SaveLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to save duplicate link: %w", err)
	}

	r.log.Info("linked duplicate",
		slog.String("entity_type", entityType),
		slog.String("external_id", rec.ExternalID),
		slog.String("local_id", existing.ID),
	)
	return existing, nil
}

func normalizeEmail(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(s))
}
