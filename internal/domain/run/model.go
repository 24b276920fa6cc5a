package run

import (
	"time"
)

// Status is the lifecycle state of a migration run. RUNNING is the only
// initial state; CANCELLED and COMPLETED are terminal.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusPaused    Status = "PAUSED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type RunType string

const (
	TypeFull        RunType = "FULL"
	TypeIncremental RunType = "INCREMENTAL"
)

// Checkpoint is the (entity-type, page) pointer persisted after every
// successfully processed page. It is stored as JSON but travels through the
// engine as a typed value. Meaningful only while the run is RUNNING or
// PAUSED.
type Checkpoint struct {
	Phase string `json:"phase"`
	Page  int    `json:"page"`
}

// MigrationRun is one synchronization attempt against one external
// integration. Rows are never deleted by the engine; completed and
// cancelled runs remain as audit records.
type MigrationRun struct {
	ID                string      `json:"id"`
	IntegrationID     string      `json:"integration_id"`
	RunType           RunType     `json:"run_type"`
	EntityTypes       []string    `json:"entity_types"`
	Status            Status      `json:"status"`
	TotalEntities     *int        `json:"total_entities"`
	ProcessedEntities int         `json:"processed_entities"`
	CreatedRecords    int         `json:"created_records"`
	UpdatedRecords    int         `json:"updated_records"`
	SkippedRecords    int         `json:"skipped_records"`
	DuplicatesLinked  int         `json:"duplicates_linked"`
	ErrorCount        int         `json:"error_count"`
	Checkpoint        *Checkpoint `json:"checkpoint"`
	StartedAt         *time.Time  `json:"started_at"`
	CompletedAt       *time.Time  `json:"completed_at"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ErrorType classifies per-entity failures. Duplicates are resolved
// automatically and never show up here.
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "VALIDATION_ERROR"
	ErrorTypeRateLimit        ErrorType = "RATE_LIMIT_ERROR"
	ErrorTypeAPI              ErrorType = "API_ERROR"
	ErrorTypeDecryption       ErrorType = "DECRYPTION_ERROR"
	ErrorTypeConflictTracking ErrorType = "CONFLICT_TRACKING_ERROR"
)

// MigrationError is one failed entity within a run. Purely observational:
// its existence never blocks the run.
type MigrationError struct {
	ID           string         `json:"id"`
	RunID        string         `json:"run_id"`
	EntityType   string         `json:"entity_type"`
	ExternalID   string         `json:"external_id"`
	ErrorType    ErrorType      `json:"error_type"`
	ErrorMessage string         `json:"error_message"`
	ErrorDetails map[string]any `json:"error_details,omitempty"`
	RetryCount   int            `json:"retry_count"`
	Resolved     bool           `json:"resolved"`
	CreatedAt    time.Time      `json:"created_at"`
}
