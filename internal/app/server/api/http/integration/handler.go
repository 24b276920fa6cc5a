package integration

import (
	"context"
	"errors"

	"crmsync/internal/domain/integration"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Handler struct {
	service    integration.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service integration.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.setTokenOp(), h.setToken)
}

func (h *Handler) find(ctx context.Context, input *findInput) (*findOutput, error) {
	in, err := h.service.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			return nil, huma.Error404NotFound("Integration not found")
		}
		return nil, err
	}
	return &findOutput{Body: *in}, nil
}

func (h *Handler) setToken(ctx context.Context, input *setTokenInput) (*setTokenOutput, error) {
	if err := h.service.SetToken(ctx, input.ID, input.Body.Token); err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			return nil, huma.Error404NotFound("Integration not found")
		}
		return nil, err
	}

	// the plaintext token is gone at this point; only the envelope persists
	return &setTokenOutput{
		Body: setTokenResponse{Status: "Ok"},
	}, nil
}
