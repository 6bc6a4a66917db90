package events

import (
	"testing"
	"time"

	"github.com/example/adw/internal/core/workflow"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()

	first, cancelFirst := bus.Subscribe()
	second, cancelSecond := bus.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	event := workflow.Event{
		WorkflowID: "a1b2c3d4",
		Type:       workflow.EventStageTransition,
		NewValue:   "plan",
		Timestamp:  time.Now().UTC(),
	}
	bus.Publish(event)

	for name, ch := range map[string]<-chan workflow.Event{"first": first, "second": second} {
		select {
		case got := <-ch:
			if got.WorkflowID != "a1b2c3d4" || got.Type != workflow.EventStageTransition {
				t.Errorf("%s subscriber got %+v", name, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s subscriber received nothing", name)
		}
	}
}

func TestBusCancelledSubscriberStopsReceiving(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe()
	cancel()

	// Publishing after cancel must not panic and must not deliver.
	bus.Publish(workflow.Event{WorkflowID: "a1b2c3d4", Type: workflow.EventStateChange})

	if _, ok := <-ch; ok {
		t.Error("cancelled subscriber still received an event")
	}
}

func TestBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()

	_, cancel := bus.Subscribe()
	defer cancel()

	// Fill well past the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer*2; i++ {
			bus.Publish(workflow.Event{WorkflowID: "a1b2c3d4", Type: workflow.EventStateChange})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
