package activities

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/guoriyue/repo-starrer/pkg/browser"
	"github.com/guoriyue/repo-starrer/pkg/database"
	"github.com/guoriyue/repo-starrer/pkg/models"
	"github.com/guoriyue/repo-starrer/pkg/starrer"
	"github.com/guoriyue/repo-starrer/pkg/temporal/workflows"
)

// SessionPool manages browser sessions across activity invocations
type SessionPool struct {
	sessions map[string]*browser.Session
	mu       sync.RWMutex
}

var sessionPool = &SessionPool{
	sessions: make(map[string]*browser.Session),
}

// Activities holds activity implementations
type Activities struct {
	DB            *database.DB
	ScreenshotDir string
}

// NewActivities creates new activities. db may be nil, in which case per-item
// results are not persisted.
func NewActivities(db *database.DB, screenshotDir string) *Activities {
	return &Activities{
		DB:            db,
		ScreenshotDir: screenshotDir,
	}
}

// InitializeSessionActivity opens a browser session
func (a *Activities) InitializeSessionActivity(ctx context.Context, input workflows.SessionInput) (workflows.Session, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Initializing browser session", "headless", input.Headless, "persistent", input.ProfileDir != "")

	sess, err := browser.Open(browser.Config{
		StorageState: input.StorageState,
		ProfileDir:   input.ProfileDir,
		Headless:     input.Headless,
	})
	if err != nil {
		return workflows.Session{}, fmt.Errorf("failed to open browser session: %w", err)
	}

	sessionID := uuid.New().String()
	sessionPool.mu.Lock()
	sessionPool.sessions[sessionID] = sess
	sessionPool.mu.Unlock()

	logger.Info("Browser session created", "sessionID", sessionID)
	return workflows.Session{SessionID: sessionID}, nil
}

// CloseSessionActivity releases a browser session
func (a *Activities) CloseSessionActivity(ctx context.Context, sessionID string) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Closing browser session", "sessionID", sessionID)

	sessionPool.mu.Lock()
	defer sessionPool.mu.Unlock()

	sess, ok := sessionPool.sessions[sessionID]
	if !ok {
		return nil // Already closed
	}

	sess.Shutdown()
	delete(sessionPool.sessions, sessionID)
	return nil
}

// StarRepositoriesActivity runs the starrer against the session's page. The
// page is closed by the run itself; CloseSessionActivity only shuts the
// browser process down afterwards.
func (a *Activities) StarRepositoriesActivity(ctx context.Context, input workflows.StarInput) (models.RunResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Starring repositories", "runID", input.RunID, "url", input.URL)

	sessionPool.mu.RLock()
	sess, ok := sessionPool.sessions[input.SessionID]
	sessionPool.mu.RUnlock()

	if !ok {
		return models.RunResult{}, fmt.Errorf("browser session not found: %s", input.SessionID)
	}

	opts := starrer.DefaultOptions(input.URL)
	opts.OnItem = func(index int, starred bool, err error) {
		activity.RecordHeartbeat(ctx, fmt.Sprintf("Attempted repository %d", index))
		a.recordItem(ctx, input.RunID, index, starred, err)
	}
	opts.OnFailure = func(runErr error) {
		path := filepath.Join(a.ScreenshotDir, input.RunID+"_failure.png")
		if err := os.MkdirAll(a.ScreenshotDir, 0755); err != nil {
			logger.Warn("Failed to create screenshot dir", "error", err)
			return
		}
		if err := sess.Screenshot(path); err != nil {
			logger.Warn("Failed to capture failure screenshot", "error", err)
			return
		}
		logger.Info("Captured failure screenshot", "path", path)
	}

	result, err := starrer.Run(sess, opts)

	if a.DB != nil {
		if dbErr := a.DB.UpdateStarRunCounts(ctx, input.RunID, result.TotalRepos, result.StarredCount); dbErr != nil {
			logger.Warn("Failed to persist run counters", "error", dbErr)
		}
	}

	if err != nil {
		return result, err
	}

	logger.Info("Starring finished", "total", result.TotalRepos, "starred", result.StarredCount)
	return result, nil
}

// recordItem persists one per-item outcome when a database is configured.
func (a *Activities) recordItem(ctx context.Context, runID string, index int, starred bool, itemErr error) {
	if a.DB == nil {
		return
	}

	item := &models.ItemResult{
		ID:        uuid.New().String(),
		RunID:     runID,
		RepoIndex: index,
	}
	switch {
	case itemErr != nil:
		item.Status = models.StatusFailed
		item.ErrorMessage = itemErr.Error()
	case starred:
		item.Status = models.StatusSuccess
		now := time.Now()
		item.StarredAt = &now
	default:
		item.Status = models.StatusFailed
		item.ErrorMessage = "star control not found"
	}

	if err := a.DB.CreateItemResult(ctx, item); err != nil {
		activity.GetLogger(ctx).Warn("Failed to persist item result", "index", index, "error", err)
	}
}
