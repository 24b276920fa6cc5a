package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, r *MigrationRun) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) Get(ctx context.Context, id string) (*MigrationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MigrationRun), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, f ListFilter) ([]MigrationRun, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]MigrationRun), args.Int(1), args.Error(2)
}

func (m *MockRepository) Status(ctx context.Context, id string) (Status, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Status), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id string, status Status, completedAt *time.Time) error {
	args := m.Called(ctx, id, status, completedAt)
	return args.Error(0)
}

func (m *MockRepository) SetTotalEntities(ctx context.Context, id string, total int) error {
	args := m.Called(ctx, id, total)
	return args.Error(0)
}

func (m *MockRepository) ApplyProgress(ctx context.Context, id string, delta ProgressDelta, checkpoint *Checkpoint) error {
	args := m.Called(ctx, id, delta, checkpoint)
	return args.Error(0)
}

func (m *MockRepository) AddError(ctx context.Context, e *MigrationError) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) ListErrors(ctx context.Context, runID string, f ErrorFilter) ([]MigrationError, int, error) {
	args := m.Called(ctx, runID, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]MigrationError), args.Int(1), args.Error(2)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.Default())
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates run in RUNNING state with zero counters", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)

		repo.On("Create", ctx, mock.MatchedBy(func(r *MigrationRun) bool {
			return r.Status == StatusRunning &&
				r.ProcessedEntities == 0 &&
				r.Checkpoint == nil &&
				r.RunType == TypeFull &&
				r.StartedAt != nil
		})).Return(nil)

		r, err := svc.Create(ctx, CreateRequest{
			IntegrationID: "int-1",
			EntityTypes:   []string{"contact", "company"},
		})

		require.NoError(t, err)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, StatusRunning, r.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects missing integration", func(t *testing.T) {
		svc := newTestService(new(MockRepository))
		_, err := svc.Create(ctx, CreateRequest{EntityTypes: []string{"contact"}})
		assert.Error(t, err)
	})

	t.Run("rejects empty entity types", func(t *testing.T) {
		svc := newTestService(new(MockRepository))
		_, err := svc.Create(ctx, CreateRequest{IntegrationID: "int-1"})
		assert.Error(t, err)
	})
}

func TestService_Pause(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		status  Status
		allowed bool
	}{
		{"running can be paused", StatusRunning, true},
		{"paused cannot be paused", StatusPaused, false},
		{"cancelled cannot be paused", StatusCancelled, false},
		{"completed cannot be paused", StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := newTestService(repo)

			repo.On("Get", ctx, "r1").Return(&MigrationRun{ID: "r1", Status: tt.status}, nil)
			if tt.allowed {
				repo.On("UpdateStatus", ctx, "r1", StatusPaused, (*time.Time)(nil)).Return(nil)
			}

			r, err := svc.Pause(ctx, "r1")
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, StatusPaused, r.Status)
			} else {
				require.Error(t, err)
				assert.True(t, IsInvalidTransition(err))
				assert.Contains(t, err.Error(), "Cannot pause migration with status: "+string(tt.status))
				repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		status  Status
		allowed bool
	}{
		{"running can be cancelled", StatusRunning, true},
		{"paused can be cancelled", StatusPaused, true},
		{"cancelled cannot be cancelled", StatusCancelled, false},
		{"completed cannot be cancelled", StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := newTestService(repo)

			repo.On("Get", ctx, "r1").Return(&MigrationRun{ID: "r1", Status: tt.status}, nil)
			if tt.allowed {
				repo.On("UpdateStatus", ctx, "r1", StatusCancelled, mock.AnythingOfType("*time.Time")).Return(nil)
			}

			r, err := svc.Cancel(ctx, "r1")
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, StatusCancelled, r.Status)
				assert.NotNil(t, r.CompletedAt)
			} else {
				require.Error(t, err)
				assert.True(t, IsInvalidTransition(err))
				assert.Contains(t, err.Error(), "Cannot cancel migration with status: "+string(tt.status))
			}
		})
	}
}

func TestService_Resume(t *testing.T) {
	ctx := context.Background()

	t.Run("paused run resumes", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)

		cp := &Checkpoint{Phase: "contact", Page: 4}
		repo.On("Get", ctx, "r1").Return(&MigrationRun{ID: "r1", Status: StatusPaused, Checkpoint: cp}, nil)
		repo.On("UpdateStatus", ctx, "r1", StatusRunning, (*time.Time)(nil)).Return(nil)

		r, err := svc.Resume(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, StatusRunning, r.Status)
		// resume keeps the checkpoint so processing continues mid-stream
		assert.Equal(t, cp, r.Checkpoint)
	})

	t.Run("running run cannot resume", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)

		repo.On("Get", ctx, "r1").Return(&MigrationRun{ID: "r1", Status: StatusRunning}, nil)

		_, err := svc.Resume(ctx, "r1")
		require.Error(t, err)
		assert.True(t, IsInvalidTransition(err))
	})
}

func TestService_Describe_Progress(t *testing.T) {
	ctx := context.Background()

	intPtr := func(v int) *int { return &v }

	t.Run("progress percent computed when total known", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)

		repo.On("Get", ctx, "r1").Return(&MigrationRun{
			ID:                "r1",
			Status:            StatusRunning,
			TotalEntities:     intPtr(100),
			ProcessedEntities: 33,
		}, nil)

		v, err := svc.Describe(ctx, "r1")
		require.NoError(t, err)
		require.NotNil(t, v.ProgressPercent)
		assert.Equal(t, 33, *v.ProgressPercent)
	})

	t.Run("progress nil when total unknown or zero", func(t *testing.T) {
		for _, total := range []*int{nil, intPtr(0)} {
			repo := new(MockRepository)
			svc := newTestService(repo)
			repo.On("Get", ctx, "r1").Return(&MigrationRun{
				ID: "r1", Status: StatusRunning, TotalEntities: total,
			}, nil)

			v, err := svc.Describe(ctx, "r1")
			require.NoError(t, err)
			assert.Nil(t, v.ProgressPercent)
			assert.Nil(t, v.EstimatedTimeRemaining)
		}
	})

	t.Run("eta computed from observed rate", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)
		started := time.Now().Add(-10 * time.Second)
		repo.On("Get", ctx, "r1").Return(&MigrationRun{
			ID:                "r1",
			Status:            StatusRunning,
			StartedAt:         &started,
			TotalEntities:     intPtr(200),
			ProcessedEntities: 100,
		}, nil)

		v, err := svc.Describe(ctx, "r1")
		require.NoError(t, err)
		require.NotNil(t, v.EstimatedTimeRemaining)
		// 100 entities in ~10s leaves ~10s for the remaining 100
		assert.InDelta(t, 10, *v.EstimatedTimeRemaining, 2)
	})

	t.Run("no eta for paused runs", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)
		started := time.Now().Add(-10 * time.Second)
		repo.On("Get", ctx, "r1").Return(&MigrationRun{
			ID:                "r1",
			Status:            StatusPaused,
			StartedAt:         &started,
			TotalEntities:     intPtr(200),
			ProcessedEntities: 100,
		}, nil)

		v, err := svc.Describe(ctx, "r1")
		require.NoError(t, err)
		assert.Nil(t, v.EstimatedTimeRemaining)
	})

	t.Run("terminal runs hide the checkpoint", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)
		repo.On("Get", ctx, "r1").Return(&MigrationRun{
			ID:         "r1",
			Status:     StatusCancelled,
			Checkpoint: &Checkpoint{Phase: "contact", Page: 3},
		}, nil)

		v, err := svc.Describe(ctx, "r1")
		require.NoError(t, err)
		assert.Nil(t, v.Checkpoint)
	})
}

func TestService_Errors_Pagination(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("Get", ctx, "r1").Return(&MigrationRun{ID: "r1", Status: StatusRunning}, nil)
	repo.On("ListErrors", ctx, "r1", ErrorFilter{EntityType: "contact", Offset: 50, Limit: 50}).
		Return([]MigrationError{{ID: "e1"}}, 101, nil)

	log, err := svc.Errors(ctx, "r1", ErrorFilter{EntityType: "contact", Offset: 50, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, log.Errors, 1)
	assert.Equal(t, 2, log.Pagination.Page)
	assert.Equal(t, 101, log.Pagination.TotalCount)
	assert.Equal(t, 3, log.Pagination.TotalPages)
}

func TestRecorder_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("appends error row", func(t *testing.T) {
		repo := new(MockRepository)
		rec := NewRecorder(repo, slog.Default())

		repo.On("AddError", ctx, mock.MatchedBy(func(e *MigrationError) bool {
			return e.RunID == "r1" &&
				e.EntityType == "contact" &&
				e.ExternalID == "ext-1" &&
				e.ErrorType == ErrorTypeValidation &&
				e.ErrorMessage == "missing email"
		})).Return(nil)

		rec.Record(ctx, "r1", "contact", "ext-1", ErrorTypeValidation, "missing email", nil)
		repo.AssertExpectations(t)
	})

	t.Run("swallows repository failure", func(t *testing.T) {
		repo := new(MockRepository)
		rec := NewRecorder(repo, slog.Default())

		repo.On("AddError", ctx, mock.Anything).Return(errors.New("db down"))

		assert.NotPanics(t, func() {
			rec.Record(ctx, "r1", "contact", "ext-1", ErrorTypeAPI, "boom", nil)
		})
	})
}
