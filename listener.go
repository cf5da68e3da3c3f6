package statemachinex

import "fmt"

// TransitionParams bundles the transition, event and argument of one
// processing pass. It flows unchanged through the triggered, transition,
// exit and entry notifications of that pass and is never stored beyond it.
type TransitionParams struct {
	Transition *Transition
	Event      Event
	Argument   any
}

// Listener receives machine-level lifecycle notifications. Every callback is
// optional; nil callbacks are skipped. Delivery is sequential, synchronous
// and blocking, in registration order.
type Listener struct {
	// OnStarted fires after Start set the initial state, before its entry
	// notifications.
	OnStarted func(machine *Machine)

	// OnStopped fires when the generated stop event is processed.
	OnStopped func(machine *Machine)

	// OnDestroyed fires when the generated destroy event is processed.
	OnDestroyed func(machine *Machine)

	// OnTriggered fires when a transition matched, whether or not it
	// produced a state change.
	OnTriggered func(params TransitionParams)

	// OnTransition fires once per state change, before any exit or entry
	// notification runs, so listeners observe the intent first.
	OnTransition func(source, target *State, params TransitionParams)

	// OnStateEntry fires for every state entered during a pass, outermost
	// first, after the state's own entry hooks.
	OnStateEntry func(state *State, params TransitionParams)

	// OnStateExit fires for every state exited during a pass, innermost
	// first, after the state's own exit hooks.
	OnStateExit func(state *State, params TransitionParams)

	// OnFinished fires when a final state is entered, before the generated
	// FinishedEvent is processed.
	OnFinished func(state *State, params TransitionParams)
}

// AddListener registers a machine-level listener. Re-adding the same
// listener instance is a configuration error, not a silent no-op.
// Safe for concurrent use.
func (m *Machine) AddListener(l *Listener) error {
	if l == nil {
		return fmt.Errorf("add listener: nil listener")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.listeners {
		if existing == l {
			return fmt.Errorf("add listener: %w", ErrDuplicateListener)
		}
	}
	m.listeners = append(m.listeners, l)
	return nil
}

// RemoveListener unregisters a listener. Removing a never-added listener is
// a no-op. Safe for concurrent use, including from another goroutine while a
// notification pass is iterating.
func (m *Machine) RemoveListener(l *Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.listeners {
		if existing == l {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// snapshotListeners copies the listener set so notification delivery is
// stable against concurrent Add/Remove.
func (m *Machine) snapshotListeners() []*Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Listener, len(m.listeners))
	copy(out, m.listeners)
	return out
}

func (m *Machine) notifyStarted() {
	for _, l := range m.snapshotListeners() {
		if l.OnStarted != nil {
			l.OnStarted(m)
		}
	}
}

func (m *Machine) notifyStopped() {
	for _, l := range m.snapshotListeners() {
		if l.OnStopped != nil {
			l.OnStopped(m)
		}
	}
}

func (m *Machine) notifyDestroyed() {
	for _, l := range m.snapshotListeners() {
		if l.OnDestroyed != nil {
			l.OnDestroyed(m)
		}
	}
}

func (m *Machine) notifyTriggered(params TransitionParams) {
	for _, l := range m.snapshotListeners() {
		if l.OnTriggered != nil {
			l.OnTriggered(params)
		}
	}
}

func (m *Machine) notifyTransition(source, target *State, params TransitionParams) {
	for _, l := range m.snapshotListeners() {
		if l.OnTransition != nil {
			l.OnTransition(source, target, params)
		}
	}
}

func (m *Machine) notifyStateEntry(state *State, params TransitionParams) {
	for _, l := range m.snapshotListeners() {
		if l.OnStateEntry != nil {
			l.OnStateEntry(state, params)
		}
	}
}

func (m *Machine) notifyStateExit(state *State, params TransitionParams) {
	for _, l := range m.snapshotListeners() {
		if l.OnStateExit != nil {
			l.OnStateExit(state, params)
		}
	}
}

func (m *Machine) notifyFinished(state *State, params TransitionParams) {
	for _, l := range m.snapshotListeners() {
		if l.OnFinished != nil {
			l.OnFinished(state, params)
		}
	}
}
