package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guoriyue/repo-starrer/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

// DB represents the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dsn string) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// ==================== Star Runs ====================

// CreateStarRun creates a new star run record
func (db *DB) CreateStarRun(ctx context.Context, run *models.StarRun) error {
	query := `
		INSERT INTO star_runs (id, url, temporal_run_id, temporal_workflow_id, status, headless, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	run.StartedAt = &now

	_, err := db.conn.ExecContext(ctx, query,
		run.ID,
		run.URL,
		run.TemporalRunID,
		run.TemporalWorkflowID,
		run.Status,
		run.Headless,
		run.StartedAt,
	)

	return err
}

// GetStarRun retrieves a star run by ID
func (db *DB) GetStarRun(ctx context.Context, id string) (*models.StarRun, error) {
	query := `
		SELECT id, url, temporal_run_id, temporal_workflow_id, status, headless,
		       total_repos, starred_count, started_at, completed_at, error_message
		FROM star_runs
		WHERE id = ?
	`

	var run models.StarRun
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.URL,
		&run.TemporalRunID,
		&run.TemporalWorkflowID,
		&run.Status,
		&run.Headless,
		&run.TotalRepos,
		&run.StarredCount,
		&run.StartedAt,
		&run.CompletedAt,
		&run.ErrorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// ListStarRuns retrieves all star runs, most recent first
func (db *DB) ListStarRuns(ctx context.Context) ([]models.StarRun, error) {
	query := `
		SELECT id, url, temporal_run_id, temporal_workflow_id, status, headless,
		       total_repos, starred_count, started_at, completed_at, error_message
		FROM star_runs
		ORDER BY started_at DESC
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.StarRun
	for rows.Next() {
		var run models.StarRun
		err := rows.Scan(
			&run.ID,
			&run.URL,
			&run.TemporalRunID,
			&run.TemporalWorkflowID,
			&run.Status,
			&run.Headless,
			&run.TotalRepos,
			&run.StarredCount,
			&run.StartedAt,
			&run.CompletedAt,
			&run.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// UpdateStarRunStatus updates the status of a star run
func (db *DB) UpdateStarRunStatus(ctx context.Context, id string, status models.RunStatus, errorMsg string) error {
	query := `
		UPDATE star_runs
		SET status = ?, error_message = ?,
		    completed_at = CASE WHEN ? IN ('success', 'failed', 'canceled') THEN NOW() ELSE completed_at END
		WHERE id = ?
	`

	_, err := db.conn.ExecContext(ctx, query, status, errorMsg, status, id)
	return err
}

// UpdateStarRunCounts updates the run counters
func (db *DB) UpdateStarRunCounts(ctx context.Context, id string, totalRepos, starredCount int) error {
	query := `
		UPDATE star_runs
		SET total_repos = ?, starred_count = ?
		WHERE id = ?
	`

	_, err := db.conn.ExecContext(ctx, query, totalRepos, starredCount, id)
	return err
}

// ==================== Item Results ====================

// CreateItemResult records the outcome of one repository list entry
func (db *DB) CreateItemResult(ctx context.Context, result *models.ItemResult) error {
	query := `
		INSERT INTO star_results (id, run_id, repo_index, status, error_message, starred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.ExecContext(ctx, query,
		result.ID,
		result.RunID,
		result.RepoIndex,
		result.Status,
		result.ErrorMessage,
		result.StarredAt,
	)

	return err
}

// GetItemResults retrieves item results for a run
func (db *DB) GetItemResults(ctx context.Context, runID string) ([]models.ItemResult, error) {
	query := `
		SELECT id, run_id, repo_index, status, error_message, starred_at
		FROM star_results
		WHERE run_id = ?
		ORDER BY repo_index
	`

	rows, err := db.conn.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	var results []models.ItemResult
	for rows.Next() {
		var result models.ItemResult
		err := rows.Scan(
			&result.ID,
			&result.RunID,
			&result.RepoIndex,
			&result.Status,
			&result.ErrorMessage,
			&result.StarredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	return results, nil
}
