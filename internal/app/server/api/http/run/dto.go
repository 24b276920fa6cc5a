package run

import (
	"crmsync/internal/domain/run"
)

type createInput struct {
	Body run.CreateRequest
}

type viewOutput struct {
	Body run.View
}

type findInput struct {
	ID string `path:"id" doc:"Migration run ID"`
}

type listInput struct {
	IntegrationID string `query:"integration_id" doc:"Filter by integration"`
	Status        string `query:"status" doc:"Filter by status" enum:"RUNNING,PAUSED,CANCELLED,COMPLETED"`
	Offset        int    `query:"offset" minimum:"0"`
	Limit         int    `query:"limit" minimum:"0" maximum:"100"`
}

type listResponse struct {
	Runs       []run.View     `json:"runs"`
	Pagination run.Pagination `json:"pagination"`
}

type listOutput struct {
	Body listResponse
}

type errorsInput struct {
	ID         string `path:"id" doc:"Migration run ID"`
	EntityType string `query:"entity_type" doc:"Filter by entity type"`
	ErrorType  string `query:"error_type" doc:"Filter by error type" enum:"VALIDATION_ERROR,RATE_LIMIT_ERROR,API_ERROR,DECRYPTION_ERROR,CONFLICT_TRACKING_ERROR"`
	Offset     int    `query:"offset" minimum:"0"`
	Limit      int    `query:"limit" minimum:"0" maximum:"200"`
}

type errorsOutput struct {
	Body run.ErrorLog
}
