// Package wire provides dependency injection for the ADW application.
// It creates singleton services with lazy initialization; tests construct
// their own isolated instances instead of using this package.
package wire

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/example/adw/internal/adapters/filesystem"
	"github.com/example/adw/internal/adapters/runner"
	"github.com/example/adw/internal/adapters/sqlite"
	"github.com/example/adw/internal/adapters/statefile"
	"github.com/example/adw/internal/app"
	"github.com/example/adw/internal/config"
	"github.com/example/adw/internal/db"
	"github.com/example/adw/internal/events"
	"github.com/example/adw/internal/ports/primary"
)

var (
	cfg             *config.Config
	bus             *events.Bus
	workspace       *filesystem.WorkspaceAdapter
	workflowService primary.WorkflowService
	worktreeService primary.WorktreeService
	orchestrator    primary.Orchestrator
	stuckDetector   primary.StuckDetector
	queryService    primary.QueryService
	once            sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Bus returns the outbound event bus.
func Bus() *events.Bus {
	once.Do(initServices)
	return bus
}

// Workspace returns the filesystem workspace adapter.
func Workspace() *filesystem.WorkspaceAdapter {
	once.Do(initServices)
	return workspace
}

// WorkflowService returns the singleton WorkflowService instance.
func WorkflowService() primary.WorkflowService {
	once.Do(initServices)
	return workflowService
}

// WorktreeService returns the singleton WorktreeService instance.
func WorktreeService() primary.WorktreeService {
	once.Do(initServices)
	return worktreeService
}

// Orchestrator returns the singleton Orchestrator instance.
func Orchestrator() primary.Orchestrator {
	once.Do(initServices)
	return orchestrator
}

// StuckDetector returns the singleton StuckDetector instance.
func StuckDetector() primary.StuckDetector {
	once.Do(initServices)
	return stuckDetector
}

// QueryService returns the singleton QueryService instance.
func QueryService() primary.QueryService {
	once.Do(initServices)
	return queryService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to get working directory: %v", err)
	}

	cfg, err = config.Load(cwd)
	if err != nil {
		cfg = config.Default()
	}

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		if dbPath, err = db.DefaultPath(); err != nil {
			log.Fatalf("failed to resolve database path: %v", err)
		}
	}
	database, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	workspace, err = filesystem.NewWorkspaceAdapter(cfg.RepoPath, cfg.WorktreesRoot, cfg.OutputRoot)
	if err != nil {
		log.Fatalf("failed to initialize workspace: %v", err)
	}

	// Repository adapters (secondary ports) with the injected DB handle.
	workflowRepo := sqlite.NewWorkflowRepository(database)
	activityRepo := sqlite.NewActivityRepository(database)
	issueRepo := sqlite.NewIssueRepository(database)
	deletionRepo := sqlite.NewDeletionRepository(database)

	bus = events.NewBus()
	snapshots := statefile.NewStore(workspace.OutputRoot())
	agentRunner := runner.NewProcessRunner(cfg.AgentCommand, cfg.AgentArgs...)

	// Services (primary port implementations).
	workflowService = app.NewWorkflowService(workflowRepo, activityRepo, issueRepo, deletionRepo, bus, snapshots)
	worktreeService = app.NewWorktreeService(workflowRepo, issueRepo, deletionRepo, workspace, snapshots)
	orchestrator = app.NewOrchestrator(workflowService, worktreeService, workflowRepo, agentRunner, activityRepo, cfg.MaxStageRetries)
	stuckDetector = app.NewStuckDetector(workflowRepo, workflowService,
		time.Duration(cfg.StalenessMinutes)*time.Minute,
		time.Duration(cfg.SweepSeconds)*time.Second)
	queryService = app.NewQueryService(workflowRepo)
}
