package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.temporal.io/sdk/client"

	"github.com/guoriyue/repo-starrer/pkg/config"
	"github.com/guoriyue/repo-starrer/pkg/database"
	"github.com/guoriyue/repo-starrer/pkg/models"
	"github.com/guoriyue/repo-starrer/pkg/temporal/workflows"
)

const TaskQueue = "repo-starrer"

// Handlers contains API handlers
type Handlers struct {
	db             *database.DB
	temporalClient client.Client
	cfg            *config.Config
	upgrader       websocket.Upgrader
}

// NewHandlers creates new API handlers
func NewHandlers(db *database.DB, temporalClient client.Client, cfg *config.Config) *Handlers {
	return &Handlers{
		db:             db,
		temporalClient: temporalClient,
		cfg:            cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ==================== Run Handlers ====================

// CreateRun starts a new star run
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.StarRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		req.URL = h.cfg.TargetURL
	}

	runID := uuid.New().String()

	// Start Temporal workflow
	input := workflows.StarRunInput{
		RunID:        runID,
		URL:          req.URL,
		StorageState: req.StorageState,
		ProfileDir:   req.ProfileDir,
		Headless:     req.Headless,
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("star-run-%s", runID),
		TaskQueue: TaskQueue,
	}

	we, err := h.temporalClient.ExecuteWorkflow(ctx, workflowOptions, "StarRunWorkflow", input)
	if err != nil {
		http.Error(w, "Failed to start workflow: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if h.db != nil {
		run := &models.StarRun{
			ID:                 runID,
			URL:                req.URL,
			TemporalWorkflowID: we.GetID(),
			TemporalRunID:      we.GetRunID(),
			Status:             models.StatusRunning,
			Headless:           req.Headless,
		}
		if err := h.db.CreateStarRun(ctx, run); err != nil {
			http.Error(w, "Failed to create run: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	respondJSON(w, map[string]interface{}{
		"run_id":               runID,
		"temporal_workflow_id": we.GetID(),
		"temporal_run_id":      we.GetRunID(),
		"status":               models.StatusRunning,
	})
}

// ListRuns lists star runs
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.db == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	runs, err := h.db.ListStarRuns(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, runs)
}

// GetRun retrieves a star run with its per-item results
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	if h.db == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	run, err := h.db.GetStarRun(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	results, _ := h.db.GetItemResults(ctx, id)
	run.ItemResults = results

	respondJSON(w, run)
}

// CancelRun cancels a running star run
func (h *Handlers) CancelRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	if h.db == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	run, err := h.db.GetStarRun(ctx, id)
	if err != nil || run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	if run.TemporalWorkflowID != "" {
		err = h.temporalClient.CancelWorkflow(ctx, run.TemporalWorkflowID, run.TemporalRunID)
		if err != nil {
			http.Error(w, "Failed to cancel workflow: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	h.db.UpdateStarRunStatus(ctx, id, models.StatusCanceled, "Cancelled by user")

	respondJSON(w, map[string]string{"status": "canceled"})
}

// StreamRunUpdates streams run updates via WebSocket
func (h *Handlers) StreamRunUpdates(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastStatus := ""
	lastStarred := -1

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var status models.RunStatus
			var progress workflows.StarRunResult

			// Try to query the workflow directly for real-time progress
			if h.temporalClient != nil {
				queryResp, err := h.temporalClient.QueryWorkflow(ctx, fmt.Sprintf("star-run-%s", runID), "", "getProgress")
				if err == nil {
					if queryResp.Get(&progress) == nil {
						status = progress.Status
					}
				}
			}

			// Fall back to DB if the workflow query didn't work
			if status == "" && h.db != nil {
				run, err := h.db.GetStarRun(ctx, runID)
				if err != nil || run == nil {
					continue
				}
				status = run.Status
				progress = workflows.StarRunResult{
					RunID:        runID,
					Status:       run.Status,
					TotalRepos:   run.TotalRepos,
					StarredCount: run.StarredCount,
				}
			}

			if string(status) != lastStatus || progress.StarredCount != lastStarred {
				msg := models.WSMessage{
					Type: "run_update",
					Payload: map[string]interface{}{
						"run_id":        runID,
						"status":        status,
						"total_repos":   progress.TotalRepos,
						"starred_count": progress.StarredCount,
					},
				}
				conn.WriteJSON(msg)

				lastStatus = string(status)
				lastStarred = progress.StarredCount

				if status == models.StatusSuccess || status == models.StatusFailed || status == models.StatusCanceled {
					return
				}
			}
		}
	}
}

// ==================== Screenshot Handlers ====================

// ServeScreenshot serves a failure screenshot file
func (h *Handlers) ServeScreenshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	// Security: Only allow files from the screenshots directory
	filePath := filepath.Join(h.cfg.ScreenshotDir, filepath.Base(filename))

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.Error(w, "Screenshot not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, filePath)
}

// ==================== Helpers ====================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
