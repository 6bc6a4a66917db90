package app

import (
	"github.com/example/adw/internal/core/slot"
	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// allocatePorts derives the immutable port triple for a workflow id.
func allocatePorts(id string) (slot.Ports, error) {
	return slot.Allocate(id)
}

// slotOccupied reports whether any live workflow other than id holds the
// same slot offset. Pending and in-progress workflows occupy their slot;
// completed, errored-and-abandoned or soft-deleted ones free it when torn
// down or finished.
func slotOccupied(id string, offset int, live []*secondary.WorkflowRecord) (string, bool) {
	for _, other := range live {
		if other.ID == id {
			continue
		}
		if other.Status != workflow.StatusPending && other.Status != workflow.StatusInProgress {
			continue
		}
		otherOffset, err := slot.Offset(other.ID)
		if err != nil {
			continue
		}
		if otherOffset == offset {
			return other.ID, true
		}
	}
	return "", false
}
