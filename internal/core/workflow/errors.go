package workflow

import "errors"

// Domain error taxonomy. Caller errors (duplicate, invalid, not-found) are
// surfaced immediately and never retried by the core. ErrSlotUnavailable is
// retryable by the caller after a slot frees up. ErrAgentProcessFailure marks
// a workflow errored but never aborts the orchestration core itself.
var (
	ErrInvalidID            = errors.New("invalid workflow id")
	ErrDuplicateID          = errors.New("workflow id already exists")
	ErrDuplicateIssueNumber = errors.New("issue number already allocated")
	ErrInvalidIssueClass    = errors.New("invalid issue class")
	ErrInvalidTransition    = errors.New("invalid stage transition")
	ErrNotFound             = errors.New("workflow not found")
	ErrSlotUnavailable      = errors.New("no available workflow slot")
	ErrAgentProcessFailure  = errors.New("agent process failed")
)
