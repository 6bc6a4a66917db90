package workflow

import "time"

// EventType categorizes an activity ledger entry.
type EventType string

// Ledger event types.
const (
	EventStateChange       EventType = "state_change"
	EventStageTransition   EventType = "stage_transition"
	EventWorkflowStarted   EventType = "workflow_started"
	EventWorkflowCompleted EventType = "workflow_completed"
	EventWorkflowFailed    EventType = "workflow_failed"
	EventErrorOccurred     EventType = "error_occurred"
	EventUserAction        EventType = "user_action"
	EventStuckDetected     EventType = "stuck_detected"
	EventStuckResolved     EventType = "stuck_resolved"
	EventDeletionRequested EventType = "deletion_requested"
)

// Valid reports whether the event type is a known value.
func (e EventType) Valid() bool {
	switch e {
	case EventStateChange, EventStageTransition, EventWorkflowStarted,
		EventWorkflowCompleted, EventWorkflowFailed, EventErrorOccurred,
		EventUserAction, EventStuckDetected, EventStuckResolved,
		EventDeletionRequested:
		return true
	}
	return false
}

// Event is the payload shared by the activity ledger and the outbound feed:
// every persisted ledger entry is also pushed to real-time consumers.
type Event struct {
	WorkflowID   string    `json:"workflowId"`
	Type         EventType `json:"eventType"`
	FieldChanged string    `json:"fieldChanged,omitempty"`
	OldValue     string    `json:"oldValue,omitempty"`
	NewValue     string    `json:"newValue,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
