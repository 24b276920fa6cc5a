package entity

import (
	"context"
	"time"

	"crmsync/internal/domain/conflict"
)

// Entity is one locally stored business record of a synced type. The
// engine is schema-agnostic: the business fields travel as a typed map and
// are serialized to JSON only at the storage boundary.
type Entity struct {
	ID         string                   `json:"id"`
	EntityType string                   `json:"entity_type"`
	ExternalID string                   `json:"external_id,omitempty"`
	Fields     map[string]any           `json:"fields"`
	Meta       *conflict.ImportMetadata `json:"meta,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// Repository is the engine's view of the local datastore for synced
// entities. Implementations must treat (entityType, externalID) as unique
// so that re-processing a page never creates a second record.
type Repository interface {
	// FindByExternalID returns the entity linked to the external identifier,
	// or ErrNotFound.
	FindByExternalID(ctx context.Context, entityType, externalID string) (*Entity, error)

	// FindUnlinkedByEmail searches for a record with no external link whose
	// normalized email matches, or ErrNotFound.
	FindUnlinkedByEmail(ctx context.Context, entityType, email string) (*Entity, error)

	Create(ctx context.Context, e *Entity) error
	Update(ctx context.Context, e *Entity) error

	// SaveMetadata persists only the import metadata blob of an entity.
	SaveMetadata(ctx context.Context, entityType, id string, meta *conflict.ImportMetadata) error
}
