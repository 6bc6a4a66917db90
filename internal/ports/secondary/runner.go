package secondary

import "context"

// AgentInvocation describes one blocking run of the external coding agent.
type AgentInvocation struct {
	WorkflowID   string
	Stage        string
	WorktreePath string
	// Env is appended to the process environment (port assignments,
	// workflow id, model set).
	Env []string
}

// AgentRunner executes the external agent process for one stage and blocks
// until it exits. Cancelling the context must abort the subprocess; the
// caller then treats the run as failed rather than orphaned. The core
// applies no timeout of its own.
type AgentRunner interface {
	Run(ctx context.Context, inv AgentInvocation) error
}
