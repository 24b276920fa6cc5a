package run

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID: "runs-create",
		Method:      http.MethodPost,
		Path:        "/api/runs",
		Summary:     "Start a migration run",
		Description: "Creates a run in state RUNNING and starts processing in the background.",
		Tags:        []string{"runs"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "runs-list",
		Method:      http.MethodGet,
		Path:        "/api/runs",
		Summary:     "List migration runs",
		Tags:        []string{"runs"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "runs-find",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}",
		Summary:     "Get a migration run",
		Description: "Returns the run with derived progress percent and time-remaining estimate.",
		Tags:        []string{"runs"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) pauseOp() huma.Operation {
	return huma.Operation{
		OperationID: "runs-pause",
		Method:      http.MethodPost,
		Path:        "/api/runs/{id}/pause",
		Summary:     "Pause a running migration",
		Description: "Flips the status flag; the processor stops before its next page.",
		Tags:        []string{"runs"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) cancelOp() huma.Operation {
	return huma.Operation{
		OperationID: "runs-cancel",
		Method:      http.MethodPost,
		Path:        "/api/runs/{id}/cancel",
		Summary:     "Cancel a migration",
		Description: "Terminal: already-imported data stays, nothing is rolled back.",
		Tags:        []string{"runs"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) resumeOp() huma.Operation {
	return huma.Operation{
		OperationID: "runs-resume",
		Method:      http.MethodPost,
		Path:        "/api/runs/{id}/resume",
		Summary:     "Resume a paused migration",
		Description: "Continues processing from the persisted checkpoint.",
		Tags:        []string{"runs"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) errorsOp() huma.Operation {
	return huma.Operation{
		OperationID: "runs-errors",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}/errors",
		Summary:     "List run errors",
		Description: "Paginated failure log of a run, filterable by entity type and error type.",
		Tags:        []string{"runs"},
		Middlewares: h.middleware,
	}
}
