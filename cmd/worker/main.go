package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/guoriyue/repo-starrer/pkg/config"
	"github.com/guoriyue/repo-starrer/pkg/database"
	"github.com/guoriyue/repo-starrer/pkg/temporal/activities"
	"github.com/guoriyue/repo-starrer/pkg/temporal/workflows"
)

const TaskQueue = "repo-starrer"

func main() {
	cfg := config.Load()

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	// Initialize database for run-history persistence
	db, err := database.New(cfg.MySQLDSN)
	if err != nil {
		log.Printf("Warning: Failed to connect to database: %v", err)
		log.Println("Running without run-history persistence")
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	// Create activities
	acts := activities.NewActivities(db, cfg.ScreenshotDir)

	// A worker owns one browser at a time; runs are strictly sequential.
	w := worker.New(c, TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     1,
		MaxConcurrentWorkflowTaskExecutionSize: 10,
	})

	// Register workflows
	w.RegisterWorkflow(workflows.StarRunWorkflow)

	// Register activities
	w.RegisterActivity(acts.InitializeSessionActivity)
	w.RegisterActivity(acts.StarRepositoriesActivity)
	w.RegisterActivity(acts.CloseSessionActivity)

	log.Printf("Starting Temporal worker on task queue: %s", TaskQueue)
	log.Printf("Temporal host: %s", cfg.TemporalHost)

	// Start worker
	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
