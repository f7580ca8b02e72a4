package model

import "time"

// RunStatus tracks the lifecycle of a compilation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the persisted record of one compilation run: which file was
// compiled, how it ended, and the final counters.
type Run struct {
	ID        string         `json:"id"`
	InputPath string         `json:"input_path"`
	Status    RunStatus      `json:"status"`
	Stats     *StatsSnapshot `json:"stats,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
