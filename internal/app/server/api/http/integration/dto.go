package integration

import (
	"crmsync/internal/domain/integration"
)

type findInput struct {
	ID string `path:"id" doc:"Integration ID"`
}

type findOutput struct {
	Body integration.Integration
}

type setTokenInput struct {
	ID   string `path:"id" doc:"Integration ID"`
	Body setTokenRequest
}

type setTokenRequest struct {
	Token string `json:"token" minLength:"1" doc:"Plaintext API token; stored encrypted"`
}

type setTokenResponse struct {
	Status string `json:"status"`
}

type setTokenOutput struct {
	Body setTokenResponse
}
