package run

import (
	"context"
	"errors"
	"time"

	"crmsync/internal/domain/run"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Launcher starts the page processor for a freshly created run, detached
// from the request that triggered it.
type Launcher interface {
	Launch(runID string)
}

type Handler struct {
	service    run.Servicer
	launcher   Launcher
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service run.Servicer, launcher Launcher, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		launcher:   launcher,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.pauseOp(), h.pause)
	huma.Register(api, h.cancelOp(), h.cancel)
	huma.Register(api, h.resumeOp(), h.resume)
	huma.Register(api, h.errorsOp(), h.listErrors)
}

func (h *Handler) create(ctx context.Context, input *createInput) (*viewOutput, error) {
	r, err := h.service.Create(ctx, input.Body)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	h.launcher.Launch(r.ID)

	return &viewOutput{Body: *run.NewView(r, time.Now())}, nil
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	views, pagination, err := h.service.List(ctx, run.ListFilter{
		IntegrationID: input.IntegrationID,
		Status:        run.Status(input.Status),
		Offset:        input.Offset,
		Limit:         input.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &listOutput{
		Body: listResponse{Runs: views, Pagination: *pagination},
	}, nil
}

func (h *Handler) find(ctx context.Context, input *findInput) (*viewOutput, error) {
	view, err := h.service.Describe(ctx, input.ID)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &viewOutput{Body: *view}, nil
}

func (h *Handler) pause(ctx context.Context, input *findInput) (*viewOutput, error) {
	r, err := h.service.Pause(ctx, input.ID)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &viewOutput{Body: *run.NewView(r, time.Now())}, nil
}

func (h *Handler) cancel(ctx context.Context, input *findInput) (*viewOutput, error) {
	r, err := h.service.Cancel(ctx, input.ID)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &viewOutput{Body: *run.NewView(r, time.Now())}, nil
}

func (h *Handler) resume(ctx context.Context, input *findInput) (*viewOutput, error) {
	r, err := h.service.Resume(ctx, input.ID)
	if err != nil {
		return nil, h.mapError(err)
	}

	// the paused processor already exited its loop; a resumed run needs a
	// fresh one picking up at the checkpoint
	h.launcher.Launch(r.ID)

	return &viewOutput{Body: *run.NewView(r, time.Now())}, nil
}

func (h *Handler) listErrors(ctx context.Context, input *errorsInput) (*errorsOutput, error) {
	log, err := h.service.Errors(ctx, input.ID, run.ErrorFilter{
		EntityType: input.EntityType,
		ErrorType:  run.ErrorType(input.ErrorType),
		Offset:     input.Offset,
		Limit:      input.Limit,
	})
	if err != nil {
		return nil, h.mapError(err)
	}
	return &errorsOutput{Body: *log}, nil
}

func (h *Handler) mapError(err error) error {
	if errors.Is(err, run.ErrNotFound) {
		return huma.Error404NotFound("Migration run not found")
	}
	if run.IsInvalidTransition(err) {
		return huma.Error409Conflict(err.Error())
	}
	return err
}
