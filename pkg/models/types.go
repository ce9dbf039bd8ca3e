package models

import (
	"time"
)

// ==================== Run Types ====================

// RunStatus represents the status of a star run
type RunStatus string

const (
	StatusPending  RunStatus = "pending"
	StatusRunning  RunStatus = "running"
	StatusSuccess  RunStatus = "success"
	StatusFailed   RunStatus = "failed"
	StatusCanceled RunStatus = "canceled"
)

// StarRun represents a single execution of the repository starrer
type StarRun struct {
	ID                 string     `json:"id" db:"id"`
	URL                string     `json:"url" db:"url"`
	TemporalRunID      string     `json:"temporal_run_id" db:"temporal_run_id"`
	TemporalWorkflowID string     `json:"temporal_workflow_id" db:"temporal_workflow_id"`
	Status             RunStatus  `json:"status" db:"status"`
	Headless           bool       `json:"headless" db:"headless"`
	TotalRepos         int        `json:"total_repos" db:"total_repos"`
	StarredCount       int        `json:"starred_count" db:"starred_count"`
	StartedAt          *time.Time `json:"started_at" db:"started_at"`
	CompletedAt        *time.Time `json:"completed_at" db:"completed_at"`
	ErrorMessage       string     `json:"error_message,omitempty" db:"error_message"`

	// Computed fields
	ItemResults []ItemResult `json:"item_results,omitempty"`
}

// ItemResult represents the outcome of one repository list entry
type ItemResult struct {
	ID           string     `json:"id" db:"id"`
	RunID        string     `json:"run_id" db:"run_id"`
	RepoIndex    int        `json:"repo_index" db:"repo_index"` // 1-based position in the list
	Status       RunStatus  `json:"status" db:"status"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
	StarredAt    *time.Time `json:"starred_at" db:"starred_at"`
}

// RunResult holds the counters reported at the end of a run
type RunResult struct {
	TotalRepos   int `json:"total_repos"`
	StarredCount int `json:"starred_count"`
}

// ==================== API Request/Response Types ====================

// StarRunRequest represents a request to start a star run
type StarRunRequest struct {
	URL          string `json:"url"`
	StorageState string `json:"storage_state,omitempty"`
	ProfileDir   string `json:"profile_dir,omitempty"`
	Headless     bool   `json:"headless"`
}

// ==================== WebSocket Message Types ====================

// WSMessage represents a WebSocket message for real-time updates
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ItemStatusUpdate represents a status update for a single list entry
type ItemStatusUpdate struct {
	RunID     string    `json:"run_id"`
	RepoIndex int       `json:"repo_index"`
	Status    RunStatus `json:"status"`
	Message   string    `json:"message,omitempty"`
}
