package model

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSuccess   RunStatus = "success"
	RunStatusError     RunStatus = "error"
	RunStatusCancelled RunStatus = "cancelled"
)

// ScrapeRun records one category sweep. It is created as running and
// finalized exactly once.
type ScrapeRun struct {
	ID              int64
	CategoryID      int64
	Status          RunStatus
	ProductsFound   int
	ProductsNew     int
	ProductsUpdated int
	DurationMs      int64
	ErrorMessage    string
	StartedAt       time.Time
	CompletedAt     *time.Time
}

// Finalized reports whether the run has left the running state.
func (r ScrapeRun) Finalized() bool {
	return r.Status != RunStatusRunning && r.Status != ""
}
