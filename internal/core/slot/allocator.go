// Package slot contains the pure port-slot allocator. A workflow's id maps
// deterministically to one of 15 slots; the slot index fixes the port triple
// the workflow's services bind to. The 15-slot space is the system-wide bound
// on concurrently isolated workflows.
package slot

import (
	"fmt"
	"strconv"

	"github.com/example/adw/internal/core/workflow"
)

// Slot capacity and port bases.
const (
	Slots         = 15
	BackendBase   = 9100
	FrontendBase  = 9200
	WebsocketBase = 9300
)

// Ports is the port triple assigned to one workflow slot.
type Ports struct {
	Backend   int
	Frontend  int
	Websocket int
}

// Offset derives the slot index for a workflow id: the first two hex
// characters interpreted as an integer, reduced modulo the slot count.
// Identical ids always produce identical offsets.
func Offset(workflowID string) (int, error) {
	if err := workflow.ValidateID(workflowID); err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(workflowID[:2], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to parse id prefix: %w", err)
	}
	return int(n) % Slots, nil
}

// Allocate maps a workflow id to its port triple. Pure and idempotent:
// repeated calls for the same id yield identical results. Two ids sharing a
// slot is a capacity condition the caller must surface as slot-unavailable,
// never a silent overwrite.
func Allocate(workflowID string) (Ports, error) {
	offset, err := Offset(workflowID)
	if err != nil {
		return Ports{}, err
	}
	return Ports{
		Backend:   BackendBase + offset,
		Frontend:  FrontendBase + offset,
		Websocket: WebsocketBase + offset,
	}, nil
}
