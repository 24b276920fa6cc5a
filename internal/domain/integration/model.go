package integration

import (
	"context"
	"time"
)

// Integration is one configured external CRM account. The encrypted API
// token is stored in a separate credential row, referenced by an opaque
// key; the business record never carries the secret itself.
type Integration struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"`
	BaseURL       string    `json:"base_url"`
	CredentialKey string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Repository interface {
	Get(ctx context.Context, id string) (*Integration, error)
	SetCredentialKey(ctx context.Context, id, key string) error

	// SaveCredential upserts the envelope stored under a key.
	SaveCredential(ctx context.Context, key, envelope string) error
	Credential(ctx context.Context, key string) (string, error)
}
