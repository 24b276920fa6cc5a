package integration

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "integrations-find",
		Method:      http.MethodGet,
		Path:        "/api/integrations/{id}",
		Summary:     "Get an integration",
		Description: "Returns the integration without its credential material.",
		Tags:        []string{"integrations"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) setTokenOp() huma.Operation {
	return huma.Operation{
		OperationID: "integrations-set-token",
		Method:      http.MethodPut,
		Path:        "/api/integrations/{id}/token",
		Summary:     "Store the API token",
		Description: "Encrypts the token with the master key and stores only the envelope.",
		Tags:        []string{"integrations"},
		Middlewares: h.middleware,
	}
}
