package cli

import (
	"github.com/fatih/color"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// fetch flattens the (records, err) pair so list commands can switch on views.
func fetch(records []*secondary.WorkflowRecord, err error) ([]*secondary.WorkflowRecord, error) {
	return records, err
}

func statusColor(status workflow.Status) string {
	switch status {
	case workflow.StatusCompleted:
		return color.New(color.FgGreen).Sprint(string(status))
	case workflow.StatusInProgress:
		return color.New(color.FgCyan).Sprint(string(status))
	case workflow.StatusErrored:
		return color.New(color.FgRed).Sprint(string(status))
	default:
		return string(status)
	}
}
