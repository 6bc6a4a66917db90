package app

import (
	"context"
	"testing"
	"time"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

func newDetectorFixture(staleness time.Duration) (*StuckDetectorImpl, *memWorkflowRepo, *captureSink) {
	repo := newMemWorkflowRepo()
	sink := &captureSink{}
	workflows := NewWorkflowService(repo, &memActivityRepo{repo: repo}, newMemIssueRepo(), &memDeletionRepo{}, sink, nil)
	return NewStuckDetector(repo, workflows, staleness, time.Minute), repo, sink
}

func seedInProgress(t *testing.T, repo *memWorkflowRepo, id string, updatedAt time.Time, stuck bool) {
	t.Helper()
	err := repo.Create(context.Background(), &secondary.WorkflowRecord{
		ID:           id,
		IssueClass:   workflow.ClassFeature,
		CurrentStage: "build",
		Status:       workflow.StatusInProgress,
		ModelSet:     workflow.ModelSetBase,
		DataSource:   workflow.SourceKanban,
		IsStuck:      stuck,
		CreatedAt:    updatedAt,
		UpdatedAt:    updatedAt,
	})
	if err != nil {
		t.Fatalf("failed to seed workflow: %v", err)
	}
}

func TestStuckDetectorFlagsStale(t *testing.T) {
	detector, repo, sink := newDetectorFixture(30 * time.Minute)
	now := time.Now().UTC()

	seedInProgress(t, repo, "a1b2c3d4", now.Add(-45*time.Minute), false)
	seedInProgress(t, repo, "b2c3d4e5", now.Add(-5*time.Minute), false)

	result, err := detector.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if result.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", result.Scanned)
	}
	if len(result.Flagged) != 1 || result.Flagged[0] != "a1b2c3d4" {
		t.Errorf("Flagged = %v, want [a1b2c3d4]", result.Flagged)
	}
	if len(result.Resolved) != 0 {
		t.Errorf("Resolved = %v, want none", result.Resolved)
	}

	rec, _ := repo.GetByID(context.Background(), "a1b2c3d4")
	if !rec.IsStuck {
		t.Error("stale workflow not flagged")
	}
	fresh, _ := repo.GetByID(context.Background(), "b2c3d4e5")
	if fresh.IsStuck {
		t.Error("fresh workflow wrongly flagged")
	}

	events := sink.all()
	if len(events) != 1 || events[0].Type != workflow.EventStuckDetected {
		t.Errorf("events = %v, want one stuck_detected", events)
	}
}

func TestStuckDetectorResolvesProgressed(t *testing.T) {
	detector, repo, sink := newDetectorFixture(30 * time.Minute)
	now := time.Now().UTC()

	// Flagged previously, but updatedAt has advanced since.
	seedInProgress(t, repo, "a1b2c3d4", now.Add(-2*time.Minute), true)

	result, err := detector.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(result.Resolved) != 1 || result.Resolved[0] != "a1b2c3d4" {
		t.Errorf("Resolved = %v, want [a1b2c3d4]", result.Resolved)
	}

	rec, _ := repo.GetByID(context.Background(), "a1b2c3d4")
	if rec.IsStuck {
		t.Error("progressed workflow still flagged")
	}
	events := sink.all()
	if len(events) != 1 || events[0].Type != workflow.EventStuckResolved {
		t.Errorf("events = %v, want one stuck_resolved", events)
	}
}

func TestStuckDetectorLeavesStableStates(t *testing.T) {
	detector, repo, _ := newDetectorFixture(30 * time.Minute)
	now := time.Now().UTC()

	// Already flagged and still stale: no duplicate ledger activity.
	seedInProgress(t, repo, "a1b2c3d4", now.Add(-2*time.Hour), true)

	result, err := detector.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(result.Flagged) != 0 || len(result.Resolved) != 0 {
		t.Errorf("result = %+v, want no changes", result)
	}
	if n := len(repo.entries("a1b2c3d4")); n != 0 {
		t.Errorf("ledger entries = %d, want 0", n)
	}
}

func TestStuckDetectorIgnoresNonInProgress(t *testing.T) {
	detector, repo, _ := newDetectorFixture(30 * time.Minute)
	now := time.Now().UTC()

	stale := now.Add(-2 * time.Hour)
	err := repo.Create(context.Background(), &secondary.WorkflowRecord{
		ID:           "a1b2c3d4",
		IssueClass:   workflow.ClassFeature,
		CurrentStage: "backlog",
		Status:       workflow.StatusPending,
		ModelSet:     workflow.ModelSetBase,
		DataSource:   workflow.SourceKanban,
		CreatedAt:    stale,
		UpdatedAt:    stale,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	result, err := detector.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if result.Scanned != 0 {
		t.Errorf("Scanned = %d, want 0 (pending workflows are not swept)", result.Scanned)
	}
}

func TestStuckDetectorRunStopsOnCancel(t *testing.T) {
	detector, _, _ := newDetectorFixture(time.Minute)
	detector.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- detector.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}
}
