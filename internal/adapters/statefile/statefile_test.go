package statefile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

func TestStoreWriteAndRead(t *testing.T) {
	store := NewStore(t.TempDir())

	rec := &secondary.WorkflowRecord{
		ID:              "a1b2c3d4",
		IssueNumber:     42,
		IssueClass:      workflow.ClassFeature,
		BranchName:      "adw-42-a1b2c3d4-add-oauth-login",
		WorktreePath:    "/worktrees/a1b2c3d4",
		PlanFile:        "/output/a1b2c3d4/plan.md",
		CurrentStage:    "build",
		BackendPort:     9111,
		FrontendPort:    9211,
		WebsocketPort:   9311,
		AllWorkflowsRun: []string{"adw_plan"},
	}
	if err := store.Write(rec); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := store.Read("a1b2c3d4")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.ID != rec.ID || got.IssueNumber != 42 || got.CurrentStage != "build" {
		t.Errorf("Read() = %+v", got)
	}
	if got.BackendPort != 9111 || got.FrontendPort != 9211 || got.WebsocketPort != 9311 {
		t.Errorf("ports = %d/%d/%d", got.BackendPort, got.FrontendPort, got.WebsocketPort)
	}
	if len(got.AllWorkflowsRun) != 1 || got.AllWorkflowsRun[0] != "adw_plan" {
		t.Errorf("AllWorkflowsRun = %v", got.AllWorkflowsRun)
	}
}

func TestStoreJSONContract(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	rec := &secondary.WorkflowRecord{
		ID:           "a1b2c3d4",
		IssueClass:   workflow.ClassBug,
		CurrentStage: "plan",
	}
	if err := store.Write(rec); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "a1b2c3d4", FileName))
	if err != nil {
		t.Fatalf("failed to read snapshot file: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if raw["adw_id"] != "a1b2c3d4" {
		t.Errorf("adw_id = %v", raw["adw_id"])
	}
	if raw["current_phase"] != "plan" {
		t.Errorf("current_phase = %v", raw["current_phase"])
	}
	if _, ok := raw["all_adws"]; !ok {
		t.Error("all_adws key missing; must be present even when empty")
	}
}

func TestStoreOverwriteKeepsLatest(t *testing.T) {
	store := NewStore(t.TempDir())

	rec := &secondary.WorkflowRecord{ID: "a1b2c3d4", IssueClass: workflow.ClassFeature, CurrentStage: "plan"}
	if err := store.Write(rec); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	rec.CurrentStage = "build"
	if err := store.Write(rec); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := store.Read("a1b2c3d4")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.CurrentStage != "build" {
		t.Errorf("CurrentStage = %q, want build", got.CurrentStage)
	}
}

func TestStoreReadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Read("deadbeef"); err == nil {
		t.Error("Read(missing) should fail")
	}
}
