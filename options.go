package statemachinex

import "log/slog"

// Option applies configuration to a Machine via the functional options
// pattern.
type Option func(*Machine)

// WithLogger sets the machine's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.SetLogger(logger) }
}

// WithIgnoredEventHandler sets the policy for events no transition matched.
func WithIgnoredEventHandler(h IgnoredEventHandler) Option {
	return func(m *Machine) { m.SetIgnoredEventHandler(h) }
}

// WithPendingEventHandler sets the policy for events arriving while another
// event is being processed.
func WithPendingEventHandler(h PendingEventHandler) Option {
	return func(m *Machine) { m.SetPendingEventHandler(h) }
}

// WithUndo enables transition recording so UndoEvent can walk back through
// up to limit transitions. A zero limit keeps unbounded history.
func WithUndo(limit int) Option {
	return func(m *Machine) { m.undo = newUndoHistory(limit) }
}
