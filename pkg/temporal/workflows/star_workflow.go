package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/guoriyue/repo-starrer/pkg/models"
)

// StarRunInput is the input for a star run workflow
type StarRunInput struct {
	RunID        string `json:"run_id"`
	URL          string `json:"url"`
	StorageState string `json:"storage_state,omitempty"`
	ProfileDir   string `json:"profile_dir,omitempty"`
	Headless     bool   `json:"headless"`
	Timeout      int    `json:"timeout_seconds"`
}

// StarRunResult is the terminal state of a star run workflow
type StarRunResult struct {
	RunID          string           `json:"run_id"`
	Status         models.RunStatus `json:"status"`
	TotalRepos     int              `json:"total_repos"`
	StarredCount   int              `json:"starred_count"`
	ScreenshotPath string           `json:"screenshot_path,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	TotalDuration  int64            `json:"total_duration_ms"`
}

// SessionInput is the input for browser session initialization
type SessionInput struct {
	StorageState string `json:"storage_state,omitempty"`
	ProfileDir   string `json:"profile_dir,omitempty"`
	Headless     bool   `json:"headless"`
}

// Session identifies an open browser session held by the worker
type Session struct {
	SessionID string `json:"session_id"`
}

// StarInput is the input for the starring activity
type StarInput struct {
	SessionID string `json:"session_id"`
	RunID     string `json:"run_id"`
	URL       string `json:"url"`
}

// StarRunWorkflow drives one star run: open a session, star every listed
// repository, tear the session down. The run itself performs no retries;
// a failed run is reported as failed.
func StarRunWorkflow(ctx workflow.Context, input StarRunInput) (StarRunResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting star run workflow", "runID", input.RunID, "url", input.URL)

	result := StarRunResult{
		RunID:  input.RunID,
		Status: models.StatusRunning,
	}

	// Register query handler for real-time progress
	err := workflow.SetQueryHandler(ctx, "getProgress", func() (StarRunResult, error) {
		return result, nil
	})
	if err != nil {
		logger.Error("Failed to register query handler", "error", err)
	}

	startTime := workflow.Now(ctx)

	timeout := input.Timeout
	if timeout <= 0 {
		timeout = 1800
	}

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Duration(timeout) * time.Second,
		HeartbeatTimeout:    60 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			// The starrer is intentionally best-effort and never retried.
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var session Session
	err = workflow.ExecuteActivity(ctx, "InitializeSessionActivity", SessionInput{
		StorageState: input.StorageState,
		ProfileDir:   input.ProfileDir,
		Headless:     input.Headless,
	}).Get(ctx, &session)
	if err != nil {
		result.Status = models.StatusFailed
		result.ErrorMessage = "Failed to initialize browser: " + err.Error()
		return result, nil
	}

	defer func() {
		// Cleanup browser session
		_ = workflow.ExecuteActivity(ctx, "CloseSessionActivity", session.SessionID).Get(ctx, nil)
	}()

	var runResult models.RunResult
	err = workflow.ExecuteActivity(ctx, "StarRepositoriesActivity", StarInput{
		SessionID: session.SessionID,
		RunID:     input.RunID,
		URL:       input.URL,
	}).Get(ctx, &runResult)

	result.TotalRepos = runResult.TotalRepos
	result.StarredCount = runResult.StarredCount
	result.TotalDuration = workflow.Now(ctx).Sub(startTime).Milliseconds()

	if err != nil {
		result.Status = models.StatusFailed
		result.ErrorMessage = err.Error()
		// The activity captures a screenshot before teardown on failure.
		result.ScreenshotPath = failureScreenshotName(input.RunID)
		return result, nil
	}

	result.Status = models.StatusSuccess
	logger.Info("Star run completed",
		"runID", input.RunID,
		"total", result.TotalRepos,
		"starred", result.StarredCount,
		"duration", result.TotalDuration)
	return result, nil
}

// failureScreenshotName is the filename convention shared with the activity
// that captures failure screenshots.
func failureScreenshotName(runID string) string {
	return runID + "_failure.png"
}
