package run

import (
	"context"
	"testing"
	"time"

	"crmsync/internal/domain/run"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, req run.CreateRequest) (*run.MigrationRun, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.MigrationRun), args.Error(1)
}

func (m *MockService) Pause(ctx context.Context, id string) (*run.MigrationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.MigrationRun), args.Error(1)
}

func (m *MockService) Cancel(ctx context.Context, id string) (*run.MigrationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.MigrationRun), args.Error(1)
}

func (m *MockService) Resume(ctx context.Context, id string) (*run.MigrationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.MigrationRun), args.Error(1)
}

func (m *MockService) Complete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) Describe(ctx context.Context, id string) (*run.View, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.View), args.Error(1)
}

func (m *MockService) List(ctx context.Context, f run.ListFilter) ([]run.View, *run.Pagination, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]run.View), args.Get(1).(*run.Pagination), args.Error(2)
}

func (m *MockService) Errors(ctx context.Context, runID string, f run.ErrorFilter) (*run.ErrorLog, error) {
	args := m.Called(ctx, runID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.ErrorLog), args.Error(1)
}

type spyLauncher struct {
	launched []string
}

func (s *spyLauncher) Launch(runID string) {
	s.launched = append(s.launched, runID)
}

func newTestHandler(service run.Servicer, launcher Launcher) *Handler {
	return NewHandler(service, launcher, slog.Default(), huma.Middlewares{})
}

func sampleRun(status run.Status) *run.MigrationRun {
	now := time.Now()
	return &run.MigrationRun{
		ID:            "run-1",
		IntegrationID: "int-1",
		RunType:       run.TypeFull,
		EntityTypes:   []string{"contact"},
		Status:        status,
		StartedAt:     &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestHandler_create(t *testing.T) {
	t.Run("launches processor for the new run", func(t *testing.T) {
		service := new(MockService)
		launcher := &spyLauncher{}
		handler := newTestHandler(service, launcher)

		req := run.CreateRequest{IntegrationID: "int-1", EntityTypes: []string{"contact"}}
		service.On("Create", mock.Anything, req).Return(sampleRun(run.StatusRunning), nil)

		output, err := handler.create(context.Background(), &createInput{Body: req})

		require.NoError(t, err)
		assert.Equal(t, "run-1", output.Body.ID)
		assert.Equal(t, run.StatusRunning, output.Body.Status)
		assert.Equal(t, []string{"run-1"}, launcher.launched)
		service.AssertExpectations(t)
	})

	t.Run("rejects invalid request without launching", func(t *testing.T) {
		service := new(MockService)
		launcher := &spyLauncher{}
		handler := newTestHandler(service, launcher)

		service.On("Create", mock.Anything, mock.Anything).
			Return(nil, assert.AnError)

		_, err := handler.create(context.Background(), &createInput{Body: run.CreateRequest{}})

		assert.Error(t, err)
		assert.Empty(t, launcher.launched)
	})
}

func TestHandler_pause(t *testing.T) {
	t.Run("returns updated view", func(t *testing.T) {
		service := new(MockService)
		handler := newTestHandler(service, &spyLauncher{})

		service.On("Pause", mock.Anything, "run-1").Return(sampleRun(run.StatusPaused), nil)

		output, err := handler.pause(context.Background(), &findInput{ID: "run-1"})

		require.NoError(t, err)
		assert.Equal(t, run.StatusPaused, output.Body.Status)
	})

	t.Run("invalid transition becomes 409", func(t *testing.T) {
		service := new(MockService)
		handler := newTestHandler(service, &spyLauncher{})

		service.On("Pause", mock.Anything, "run-1").
			Return(nil, &run.InvalidTransitionError{Action: "pause", Status: run.StatusCompleted})

		_, err := handler.pause(context.Background(), &findInput{ID: "run-1"})

		require.Error(t, err)
		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, 409, statusErr.GetStatus())
	})

	t.Run("unknown run becomes 404", func(t *testing.T) {
		service := new(MockService)
		handler := newTestHandler(service, &spyLauncher{})

		service.On("Pause", mock.Anything, "missing").Return(nil, run.ErrNotFound)

		_, err := handler.pause(context.Background(), &findInput{ID: "missing"})

		require.Error(t, err)
		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, 404, statusErr.GetStatus())
	})
}

func TestHandler_resume(t *testing.T) {
	service := new(MockService)
	launcher := &spyLauncher{}
	handler := newTestHandler(service, launcher)

	service.On("Resume", mock.Anything, "run-1").Return(sampleRun(run.StatusRunning), nil)

	output, err := handler.resume(context.Background(), &findInput{ID: "run-1"})

	require.NoError(t, err)
	assert.Equal(t, run.StatusRunning, output.Body.Status)
	// a resumed run gets a fresh processor
	assert.Equal(t, []string{"run-1"}, launcher.launched)
}

func TestHandler_listErrors(t *testing.T) {
	service := new(MockService)
	handler := newTestHandler(service, &spyLauncher{})

	errorLog := &run.ErrorLog{
		Errors: []run.MigrationError{
			{ID: "e-1", RunID: "run-1", ErrorType: run.ErrorTypeValidation},
		},
		Pagination: run.Pagination{Page: 1, Limit: 50, TotalCount: 1, TotalPages: 1},
	}
	service.On("Errors", mock.Anything, "run-1",
		run.ErrorFilter{EntityType: "contact", Limit: 50}).Return(errorLog, nil)

	output, err := handler.listErrors(context.Background(), &errorsInput{
		ID: "run-1", EntityType: "contact", Limit: 50,
	})

	require.NoError(t, err)
	assert.Len(t, output.Body.Errors, 1)
	assert.Equal(t, 1, output.Body.Pagination.TotalCount)
}
