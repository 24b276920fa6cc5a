package duplicate

import (
	"context"
	"errors"
	"testing"

	"crmsync/internal/crm"
	"crmsync/internal/domain/conflict"
	"crmsync/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockEntityRepository is a mock implementation of the entity.Repository interface for testing
type MockEntityRepository struct {
	mock.Mock
}

func (m *MockEntityRepository) FindByExternalID(ctx context.Context, entityType, externalID string) (*entity.Entity, error) {
	args := m.Called(ctx, entityType, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Entity), args.Error(1)
}

func (m *MockEntityRepository) FindUnlinkedByEmail(ctx context.Context, entityType, email string) (*entity.Entity, error) {
	args := m.Called(ctx, entityType, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Entity), args.Error(1)
}

func (m *MockEntityRepository) Create(ctx context.Context, e *entity.Entity) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEntityRepository) Update(ctx context.Context, e *entity.Entity) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEntityRepository) SaveMetadata(ctx context.Context, entityType, id string, meta *conflict.ImportMetadata) error {
	args := m.Called(ctx, entityType, id, meta)
	return args.Error(0)
}

// MockLinkRepository is a mock implementation of the Repository interface for testing
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) SaveLink(ctx context.Context, link *Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("links unlinked local record matched by email", func(t *testing.T) {
		entities := new(MockEntityRepository)
		links := new(MockLinkRepository)
		resolver := NewResolver(entities, links, slog.Default())

		local := &entity.Entity{ID: "local-1", EntityType: "contact"}
		entities.On("FindUnlinkedByEmail", ctx, "contact", "jane@example.com").Return(local, nil)
		links.On("SaveLink", ctx, mock.MatchedBy(func(l *Link) bool {
			return l.RunID == "run-1" &&
				l.EntityType == "contact" &&
				l.ExternalID == "ext-7" &&
				l.ExistingLocalID == "local-1" &&
				l.MatchReason == MatchReasonEmail
		})).Return(nil)

		rec := crm.Record{ExternalID: "ext-7", Fields: map[string]any{"email": "  Jane@Example.COM "}}
		existing, err := resolver.Resolve(ctx, "run-1", "contact", rec)

		require.NoError(t, err)
		assert.Equal(t, local, existing)
		entities.AssertExpectations(t)
		links.AssertExpectations(t)
	})

	t.Run("no match means new record", func(t *testing.T) {
		entities := new(MockEntityRepository)
		links := new(MockLinkRepository)
		resolver := NewResolver(entities, links, slog.Default())

		entities.On("FindUnlinkedByEmail", ctx, "contact", "new@example.com").Return(nil, entity.ErrNotFound)

		rec := crm.Record{ExternalID: "ext-8", Fields: map[string]any{"email": "new@example.com"}}
		existing, err := resolver.Resolve(ctx, "run-1", "contact", rec)

		require.NoError(t, err)
		assert.Nil(t, existing)
		links.AssertNotCalled(t, "SaveLink", mock.Anything, mock.Anything)
	})

	t.Run("record without email is never matched", func(t *testing.T) {
		entities := new(MockEntityRepository)
		links := new(MockLinkRepository)
		resolver := NewResolver(entities, links, slog.Default())

		rec := crm.Record{ExternalID: "ext-9", Fields: map[string]any{"name": "Acme"}}
		existing, err := resolver.Resolve(ctx, "run-1", "company", rec)

		require.NoError(t, err)
		assert.Nil(t, existing)
		entities.AssertNotCalled(t, "FindUnlinkedByEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("search failure propagates", func(t *testing.T) {
		entities := new(MockEntityRepository)
		links := new(MockLinkRepository)
		resolver := NewResolver(entities, links, slog.Default())

		entities.On("FindUnlinkedByEmail", ctx, "contact", "jane@example.com").Return(nil, errors.New("db down"))

		rec := crm.Record{ExternalID: "ext-7", Fields: map[string]any{"email": "jane@example.com"}}
		_, err := resolver.Resolve(ctx, "run-1", "contact", rec)

		assert.Error(t, err)
	})
}
