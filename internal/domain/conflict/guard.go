package conflict

import (
	"context"
	"reflect"
	"time"

	"golang.org/x/exp/slog"
)

// trackableFields lists, per entity type, the fields whose local edits are
// protected from being overwritten by a re-sync. System-managed fields
// (ids, timestamps) are deliberately absent.
var trackableFields = map[string][]string{
	"contact": {"first_name", "last_name", "email", "phone", "company", "address", "notes"},
	"company": {"name", "email", "phone", "website", "address", "industry"},
	"matter":  {"title", "description", "status", "practice_area", "responsible"},
}

// TrackableFields returns the conflict-tracked field names for an entity
// type, or nil for types without an allow-list.
func TrackableFields(entityType string) []string {
	return trackableFields[entityType]
}

// MetadataStore persists the import metadata of a single entity.
type MetadataStore interface {
	SaveMetadata(ctx context.Context, entityType, id string, meta *ImportMetadata) error
}

// Guard decides, field by field, whether incoming CRM values may overwrite
// local ones, and records which fields humans have edited since import.
type Guard struct {
	store MetadataStore
	log   *slog.Logger
}

func NewGuard(store MetadataStore, log *slog.Logger) *Guard {
	return &Guard{
		store: store,
		log:   log.With(slog.String("component", "merge_guard")),
	}
}

// RecordLocalEdit compares the entity state before and after a human-facing
// update and marks every trackable field that changed. It is best-effort
// bookkeeping invoked after the primary write has already succeeded: any
// failure here is logged and swallowed, never propagated to the caller.
// Returns the fields that were newly marked.
func (g *Guard) RecordLocalEdit(ctx context.Context, entityType, id string, existing, updated map[string]any, meta *ImportMetadata) []string {
	if !meta.Imported() {
		return nil
	}

	var changed []string
	for _, field := range TrackableFields(entityType) {
		if !equalNormalized(existing[field], updated[field]) {
			changed = append(changed, field)
		}
	}

	added := meta.MarkModified(changed)
	if len(added) == 0 {
		return added
	}

	if err := g.store.SaveMetadata(ctx, entityType, id, meta); err != nil {
		g.log.Error("failed to record locally modified fields",
			slog.String("entity_type", entityType),
			slog.String("entity_id", id),
			slog.Any("fields", added),
			slog.String("error", err.Error()),
		)
	}
	return added
}

// FilterApplicable returns the subset of incoming fields the sync engine is
// allowed to write. Trackable fields that a human has edited locally are
// dropped; fields outside the allow-list always pass.
func (g *Guard) FilterApplicable(entityType string, incoming map[string]any, meta *ImportMetadata) map[string]any {
	applicable := make(map[string]any, len(incoming))
	for field, value := range incoming {
		if isTrackable(entityType, field) && meta.IsModified(field) {
			continue
		}
		applicable[field] = value
	}
	return applicable
}

func isTrackable(entityType, field string) bool {
	for _, f := range trackableFields[entityType] {
		if f == field {
			return true
		}
	}
	return false
}

// equalNormalized compares two field values after folding the null-ish
// variants (nil, empty string) together and reducing times and numbers to
// comparable scalars.
func equalNormalized(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return t
	case time.Time:
		return t.UnixMilli()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UnixMilli()
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case float64:
		return t
	case bool:
		return t
	default:
		return t
	}
}
