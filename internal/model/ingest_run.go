package model

import "time"

// IngestRunStatus is the state of one ingestion call.
type IngestRunStatus string

const (
	IngestRunning  IngestRunStatus = "running"
	IngestComplete IngestRunStatus = "complete"
	IngestFailed   IngestRunStatus = "failed"
)

// IngestRun records one runIngestion or ingestSourcesSought call.
type IngestRun struct {
	ID               string          `json:"id"`
	Mode             string          `json:"mode"`
	Source           string          `json:"source"`
	Status           IngestRunStatus `json:"status"`
	Partitions       int             `json:"partitions"`
	FailedPartitions int             `json:"failed_partitions"`
	NewCount         int             `json:"new_count"`
	UpdatedCount     int             `json:"updated_count"`
	SkippedCount     int             `json:"skipped_count"`
	Error            string          `json:"error,omitempty"`
	StartedAt        time.Time       `json:"started_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}
