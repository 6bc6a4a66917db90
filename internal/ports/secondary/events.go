package secondary

import "github.com/example/adw/internal/core/workflow"

// EventSink receives the outbound event feed: the same payload persisted to
// the activity ledger, pushed outward for real-time consumers. Publish must
// not block the mutation path.
type EventSink interface {
	Publish(event workflow.Event)
}

// StateSnapshotter persists the per-workflow JSON state file read by
// external dashboards. Written after every phase transition.
type StateSnapshotter interface {
	Write(rec *WorkflowRecord) error
	Read(workflowID string) (*WorkflowRecord, error)
}
