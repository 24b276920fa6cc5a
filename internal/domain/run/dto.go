package run

import (
	"math"
	"time"
)

// CreateRequest is the operator input for starting a run.
type CreateRequest struct {
	IntegrationID string   `json:"integration_id"`
	RunType       RunType  `json:"run_type,omitempty" enum:"FULL,INCREMENTAL" default:"FULL"`
	EntityTypes   []string `json:"entity_types"`
}

// View is the run resource as exposed to operators, with the derived
// progress fields filled in.
type View struct {
	ID                    string      `json:"id"`
	IntegrationID         string      `json:"integration_id"`
	RunType               RunType     `json:"run_type"`
	EntityTypes           []string    `json:"entity_types"`
	Status                Status      `json:"status"`
	TotalEntities         *int        `json:"total_entities"`
	ProcessedEntities     int         `json:"processed_entities"`
	CreatedRecords        int         `json:"created_records"`
	UpdatedRecords        int         `json:"updated_records"`
	SkippedRecords        int         `json:"skipped_records"`
	DuplicatesLinked      int         `json:"duplicates_linked"`
	ErrorCount            int         `json:"error_count"`
	ProgressPercent       *int        `json:"progress_percent"`
	EstimatedTimeRemaining *int       `json:"estimated_time_remaining"` // seconds
	Checkpoint            *Checkpoint `json:"checkpoint"`
	StartedAt             *time.Time  `json:"started_at"`
	CompletedAt           *time.Time  `json:"completed_at"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// NewView derives the operator view of a run at the given instant.
func NewView(r *MigrationRun, now time.Time) *View {
	v := &View{
		ID:                r.ID,
		IntegrationID:     r.IntegrationID,
		RunType:           r.RunType,
		EntityTypes:       r.EntityTypes,
		Status:            r.Status,
		TotalEntities:     r.TotalEntities,
		ProcessedEntities: r.ProcessedEntities,
		CreatedRecords:    r.CreatedRecords,
		UpdatedRecords:    r.UpdatedRecords,
		SkippedRecords:    r.SkippedRecords,
		DuplicatesLinked:  r.DuplicatesLinked,
		ErrorCount:        r.ErrorCount,
		Checkpoint:        r.Checkpoint,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	// Checkpoints are only meaningful for resumable runs.
	if r.Status.Terminal() {
		v.Checkpoint = nil
	}
	v.ProgressPercent = progressPercent(r)
	v.EstimatedTimeRemaining = estimatedSecondsRemaining(r, now)
	return v
}

func progressPercent(r *MigrationRun) *int {
	if r.TotalEntities == nil || *r.TotalEntities <= 0 {
		return nil
	}
	pct := int(math.Round(float64(r.ProcessedEntities) / float64(*r.TotalEntities) * 100))
	return &pct
}

func estimatedSecondsRemaining(r *MigrationRun, now time.Time) *int {
	if r.Status != StatusRunning || r.StartedAt == nil || r.ProcessedEntities <= 0 ||
		r.TotalEntities == nil || *r.TotalEntities <= 0 {
		return nil
	}
	elapsedMs := float64(now.Sub(*r.StartedAt).Milliseconds())
	if elapsedMs <= 0 {
		return nil
	}
	remaining := float64(*r.TotalEntities - r.ProcessedEntities)
	rate := float64(r.ProcessedEntities) / elapsedMs // entities per millisecond
	eta := int(math.Round(remaining / rate / 1000))
	return &eta
}

// Pagination is the envelope attached to paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// ErrorLog is one page of the run's failure log.
type ErrorLog struct {
	Errors     []MigrationError `json:"errors"`
	Pagination Pagination       `json:"pagination"`
}
