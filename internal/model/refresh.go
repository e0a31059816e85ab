package model

import "time"

// RefreshStatus tracks the lifecycle of one dataset refresh.
type RefreshStatus string

const (
	RefreshStatusRunning  RefreshStatus = "running"
	RefreshStatusComplete RefreshStatus = "complete"
	RefreshStatusFailed   RefreshStatus = "failed"
)

// SourceStat records how many rows one input file contributed to a refresh.
type SourceStat struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// RefreshRun is one recorded rebuild of the dashboard snapshot, successful or
// not. Runs are append-only history; the snapshot itself lives in memory.
type RefreshRun struct {
	ID         string        `json:"id"`
	Status     RefreshStatus `json:"status"`
	Sources    []SourceStat  `json:"sources,omitempty"`
	MergedRows int           `json:"merged_rows"`
	Warnings   []string      `json:"warnings,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}
