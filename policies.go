package statemachinex

import (
	"fmt"
	"log/slog"
)

// IgnoredEventHandler runs when no transition at the current state (or its
// ancestors) matches an event. Not an error condition.
type IgnoredEventHandler func(state *State, event Event, argument any)

// PendingEventHandler runs when ProcessEvent is invoked while another event
// is still being processed, typically from inside a notification callback.
// The machine's state is not altered before the handler runs.
type PendingEventHandler func(machine *Machine, event Event, argument any) error

// RejectPendingEvents is the default pending-event policy: re-entrant calls
// are treated as a programming error and fail loudly.
func RejectPendingEvents() PendingEventHandler {
	return func(machine *Machine, event Event, argument any) error {
		return fmt.Errorf("%w: %T submitted to machine %q", ErrPendingEvent, event, machine.logName())
	}
}

// QueuePendingEvents buffers re-entrant events; the in-flight pass processes
// them in arrival order once it completes.
func QueuePendingEvents() PendingEventHandler {
	return func(machine *Machine, event Event, argument any) error {
		machine.enqueue(event, argument)
		return nil
	}
}

// SetLogger swaps the machine's logger. Takes effect on the next processed
// event. A nil logger silences the machine.
func (m *Machine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m.logger = logger
}

// Logger returns the machine's logger.
func (m *Machine) Logger() *slog.Logger { return m.logger }

// SetIgnoredEventHandler swaps the ignored-event policy. A nil handler
// restores the default silent no-op (unmatched events are still logged at
// debug level).
func (m *Machine) SetIgnoredEventHandler(h IgnoredEventHandler) {
	m.ignoredHandler = h
}

// SetPendingEventHandler swaps the pending-event policy. A nil handler
// restores the default rejecting policy.
func (m *Machine) SetPendingEventHandler(h PendingEventHandler) {
	if h == nil {
		h = RejectPendingEvents()
	}
	m.pendingHandler = h
}
