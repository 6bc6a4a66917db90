// Package statefile persists the per-workflow JSON snapshot consumed by
// external dashboards. Writes are atomic so a reader never observes a
// half-written snapshot.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// FileName is the snapshot file name inside a workflow's output directory.
const FileName = "adw_state.json"

// Snapshot is the external JSON contract: a point-in-time view of one
// workflow, written after every phase transition.
type Snapshot struct {
	ID              string   `json:"adw_id"`
	IssueNumber     int      `json:"issue_number,omitempty"`
	IssueClass      string   `json:"issue_class"`
	BranchName      string   `json:"branch_name,omitempty"`
	PlanFile        string   `json:"plan_file,omitempty"`
	WorktreePath    string   `json:"worktree_path,omitempty"`
	BackendPort     int      `json:"backend_port"`
	FrontendPort    int      `json:"frontend_port"`
	WebsocketPort   int      `json:"websocket_port"`
	AllWorkflowsRun []string `json:"all_adws"`
	CurrentStage    string   `json:"current_phase"`
	PRNumber        int      `json:"pr_number,omitempty"`
	PRURL           string   `json:"pr_url,omitempty"`
}

// Store implements secondary.StateSnapshotter on top of a per-id output
// root.
type Store struct {
	outputRoot string
}

// NewStore creates a snapshot store rooted at outputRoot.
func NewStore(outputRoot string) *Store {
	return &Store{outputRoot: outputRoot}
}

// Path returns the snapshot location for a workflow id.
func (s *Store) Path(workflowID string) string {
	return filepath.Join(s.outputRoot, workflowID, FileName)
}

// Write atomically replaces the workflow's snapshot.
func (s *Store) Write(rec *secondary.WorkflowRecord) error {
	snap := Snapshot{
		ID:              rec.ID,
		IssueNumber:     rec.IssueNumber,
		IssueClass:      string(rec.IssueClass),
		BranchName:      rec.BranchName,
		PlanFile:        rec.PlanFile,
		WorktreePath:    rec.WorktreePath,
		BackendPort:     rec.BackendPort,
		FrontendPort:    rec.FrontendPort,
		WebsocketPort:   rec.WebsocketPort,
		AllWorkflowsRun: rec.AllWorkflowsRun,
		CurrentStage:    rec.CurrentStage,
		PRNumber:        rec.PRNumber,
		PRURL:           rec.PRURL,
	}
	if snap.AllWorkflowsRun == nil {
		snap.AllWorkflowsRun = []string{}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state snapshot: %w", err)
	}

	path := s.Path(rec.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state snapshot: %w", err)
	}
	return nil
}

// Read loads the workflow's snapshot back into a partial record.
func (s *Store) Read(workflowID string) (*secondary.WorkflowRecord, error) {
	data, err := os.ReadFile(s.Path(workflowID))
	if err != nil {
		return nil, fmt.Errorf("failed to read state snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse state snapshot: %w", err)
	}

	return &secondary.WorkflowRecord{
		ID:              snap.ID,
		IssueNumber:     snap.IssueNumber,
		IssueClass:      workflow.IssueClass(snap.IssueClass),
		BranchName:      snap.BranchName,
		PlanFile:        snap.PlanFile,
		WorktreePath:    snap.WorktreePath,
		BackendPort:     snap.BackendPort,
		FrontendPort:    snap.FrontendPort,
		WebsocketPort:   snap.WebsocketPort,
		AllWorkflowsRun: snap.AllWorkflowsRun,
		CurrentStage:    snap.CurrentStage,
		PRNumber:        snap.PRNumber,
		PRURL:           snap.PRURL,
	}, nil
}

// Ensure Store implements the interface.
var _ secondary.StateSnapshotter = (*Store)(nil)
