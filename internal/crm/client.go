package crm

import (
	"context"
)

// Record is one entity as returned by the external CRM, reduced to the
// narrow shape the engine consumes: an external identifier plus a flat
// field map. The provider's wire format stays inside the adapter.
type Record struct {
	ExternalID string         `json:"id"`
	Fields     map[string]any `json:"fields"`
}

// Client is the engine's read-only view of the external CRM. Pages are
// 1-based; an empty page signals exhaustion of the entity type.
type Client interface {
	// Count returns the total number of remote entities of the given type.
	Count(ctx context.Context, entityType string) (int, error)

	// FetchPage returns one page of remote entities in provider order.
	FetchPage(ctx context.Context, entityType string, page, pageSize int) ([]Record, error)
}
