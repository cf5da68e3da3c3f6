// Package statemachinex is a hierarchical, event-driven state machine engine
// for embedding explicit, inspectable control flow inside larger
// applications. A Machine owns a tree of states and their guarded
// transitions, processes one event at a time, and notifies listeners of
// entry, exit and transition activity in a fixed order: triggered, then
// transition, then exit (innermost first), then entry (outermost first).
//
// Processing is synchronous and blocking; one logical caller drives a
// machine at a time. The re-entrancy flag is a correctness guard, not a
// mutex: concurrent dispatch from multiple goroutines needs an external lock
// or the async subpackage. If a notification callback panics, the guard is
// still released, but a pass interrupted after the state pointer moved may
// leave entry notifications undelivered.
package statemachinex

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Machine is the engine: it owns the state set (flat name registry plus
// hierarchical tree), the current-state pointer, the listener set and the
// three pluggable policies (logger, ignored-event handler, pending-event
// handler).
type Machine struct {
	name string
	id   string

	mu        sync.RWMutex // guards listeners
	listeners []*Listener

	children     []*State
	statesByName map[string]*State
	initial      *State
	current      *State

	ctx *Context

	logger         *slog.Logger
	ignoredHandler IgnoredEventHandler
	pendingHandler PendingEventHandler

	processing bool
	started    bool
	stopped    bool
	destroyed  bool

	undo  *undoHistory
	queue []queuedEvent
}

type queuedEvent struct {
	event    Event
	argument any
}

// NewMachine creates a machine. The name may be empty; a generated instance
// ID identifies the machine in logs either way.
func NewMachine(name string, opts ...Option) *Machine {
	m := &Machine{
		name:           name,
		id:             uuid.NewString(),
		statesByName:   make(map[string]*State),
		ctx:            newContext(),
		logger:         slog.Default(),
		pendingHandler: RejectPendingEvents(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the machine's name, possibly empty.
func (m *Machine) Name() string { return m.name }

// ID returns the generated instance ID.
func (m *Machine) ID() string { return m.id }

// Context returns the machine's extended-state store.
func (m *Machine) Context() *Context { return m.ctx }

// CurrentState returns the active leaf state, or nil before start and after
// destroy.
func (m *Machine) CurrentState() *State { return m.current }

// InitialState returns the designated initial state, or nil.
func (m *Machine) InitialState() *State { return m.initial }

// Started reports whether Start has run.
func (m *Machine) Started() bool { return m.started }

// Stopped reports whether the machine processed a stop event.
func (m *Machine) Stopped() bool { return m.stopped }

// Destroyed reports whether the machine processed a destroy event.
func (m *Machine) Destroyed() bool { return m.destroyed }

// States returns a copy of the top-level states in insertion order.
func (m *Machine) States() []*State {
	out := make([]*State, len(m.children))
	copy(out, m.children)
	return out
}

// AddState attaches a top-level state (and any subtree already hanging off
// it). Fails after start, for states attached elsewhere, and on name
// collisions with registered states.
func (m *Machine) AddState(s *State) (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("add state: nil state")
	}
	if m.started {
		return nil, fmt.Errorf("add state %q: %w", s.name, ErrMachineStarted)
	}
	if s.parent != nil || s.machine != nil {
		return nil, fmt.Errorf("add state %q: %w", s.name, ErrStateAttached)
	}
	if err := m.adopt(s); err != nil {
		return nil, err
	}
	m.children = append(m.children, s)
	return s, nil
}

// AddInitialState attaches a top-level state and designates it initial.
func (m *Machine) AddInitialState(s *State) (*State, error) {
	if _, err := m.AddState(s); err != nil {
		return nil, err
	}
	if err := m.SetInitialState(s); err != nil {
		return nil, err
	}
	return s, nil
}

// SetInitialState designates the state entered by Start. It must be a
// top-level state already added to this machine.
func (m *Machine) SetInitialState(s *State) error {
	if m.started {
		return fmt.Errorf("set initial state: %w", ErrMachineStarted)
	}
	if s == nil || s.machine != m {
		return fmt.Errorf("set initial state: %w", ErrStateNotFound)
	}
	if s.parent != nil {
		return fmt.Errorf("set initial state %q: not a top-level state", s.name)
	}
	m.initial = s
	return nil
}

// RemoveState detaches a state and its subtree from the machine. Fails
// after start. Removing the subtree containing the initial state clears the
// initial designation.
func (m *Machine) RemoveState(s *State) error {
	if m.started {
		return fmt.Errorf("remove state: %w", ErrMachineStarted)
	}
	if s == nil || s.machine != m {
		return fmt.Errorf("remove state: %w", ErrStateNotFound)
	}
	if s.parent != nil {
		s.parent.children = detach(s.parent.children, s)
		if s.parent.initial == s {
			s.parent.initial = nil
		}
	} else {
		m.children = detach(m.children, s)
	}
	m.forget(s)
	s.parent = nil
	return nil
}

// FindState returns the registered state with the given name, or nil.
func (m *Machine) FindState(name string) *State {
	return m.statesByName[name]
}

// RequireState returns the registered state with the given name, or an
// ErrStateNotFound error carrying the name.
func (m *Machine) RequireState(name string) (*State, error) {
	if s := m.statesByName[name]; s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("state %q: %w", name, ErrStateNotFound)
}

// adopt registers a subtree: validates name uniqueness first, then commits
// machine pointers and registry entries, so a failed add leaves no partial
// registration.
func (m *Machine) adopt(root *State) error {
	var seen []*State
	var collect func(s *State) error
	collect = func(s *State) error {
		if s.name != "" {
			if _, exists := m.statesByName[s.name]; exists {
				return fmt.Errorf("state %q: %w", s.name, ErrDuplicateState)
			}
			for _, other := range seen {
				if other.name == s.name {
					return fmt.Errorf("state %q: %w", s.name, ErrDuplicateState)
				}
			}
		}
		seen = append(seen, s)
		for _, child := range s.children {
			if err := collect(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(root); err != nil {
		return err
	}
	for _, s := range seen {
		s.machine = m
		if s.name != "" {
			m.statesByName[s.name] = s
		}
	}
	return nil
}

func (m *Machine) forget(root *State) {
	root.machine = nil
	if root.name != "" {
		delete(m.statesByName, root.name)
	}
	if m.initial == root {
		m.initial = nil
	}
	for _, child := range root.children {
		m.forget(child)
	}
}

func detach(states []*State, s *State) []*State {
	for i, existing := range states {
		if existing == s {
			return append(states[:i], states[i+1:]...)
		}
	}
	return states
}

// Start synthesizes a StartEvent addressed at the designated initial state
// and runs the entry half of the notification sequence (there is no prior
// state to exit). Calling Start twice is an error.
func (m *Machine) Start() error {
	return m.start(nil)
}

// StartWithData starts the machine with start data, for data-carrying
// initial states.
func (m *Machine) StartWithData(data any) error {
	return m.start(data)
}

func (m *Machine) start(data any) error {
	if m.destroyed {
		return fmt.Errorf("start machine %q: %w", m.logName(), ErrDestroyed)
	}
	if m.started {
		return fmt.Errorf("start machine %q: %w", m.logName(), ErrAlreadyStarted)
	}
	if m.initial == nil {
		return fmt.Errorf("start machine %q: %w", m.logName(), ErrNoInitialState)
	}
	if m.processing {
		return fmt.Errorf("start machine %q: %w", m.logName(), ErrPendingEvent)
	}
	m.processing = true
	defer func() { m.processing = false }()

	ev := &startEvent{states: []*State{m.initial}, data: data}
	if err := validateStartStates(ev.states); err != nil {
		return err
	}

	starting := &Transition{
		name:    "Starting",
		matcher: MatchInstance[StartEvent](),
		target:  m.initial,
	}
	params := TransitionParams{Transition: starting, Event: ev}

	chain, err := descend(m.initial)
	if err != nil {
		return err
	}
	m.started = true
	m.current = chain[len(chain)-1]
	m.notifyStarted()
	if err := m.runEntry(chain, params); err != nil {
		// A failed entry chain rolls the lifecycle back so a corrected
		// start, such as StartWithData, can retry.
		m.started = false
		m.current = nil
		m.queue = nil
		return err
	}
	m.logger.Debug("machine started",
		"machine", m.logName(), "state", m.current.String())
	return m.drainQueue()
}

// validateStartStates enforces the StartEvent invariant: start states are
// non-empty, and multiple start states require mutually-parallel sibling
// states. The engine tracks a single active path, so no states qualify as
// mutually parallel and any multi-state start fails here.
func validateStartStates(states []*State) error {
	if len(states) == 0 {
		return fmt.Errorf("%w: no start states", ErrStartStates)
	}
	if len(states) > 1 {
		return fmt.Errorf("%w: multiple start states require mutually-parallel siblings", ErrStartStates)
	}
	return nil
}

// Stop injects the generated stop event through the normal processing
// channel, so listener semantics are reused. Stopping a stopped machine is a
// no-op.
func (m *Machine) Stop() error {
	return m.ProcessEvent(&stopEvent{}, nil)
}

// Destroy injects the generated destroy event. When stop is true a running
// machine is stopped first. Destroy is deliverable even when the machine was
// never started or has already stopped.
func (m *Machine) Destroy(stop bool) error {
	return m.ProcessEvent(&destroyEvent{stop: stop}, nil)
}

// ProcessEvent processes one event synchronously: locate the matching
// transition at the current state (falling back to ancestors), resolve its
// direction and run the ordered notification sequence, mutating the
// current-state pointer. Effects are observable through listeners and the
// logger. The argument is an opaque payload handed through unchanged.
//
// A call arriving while another event is being processed is routed to the
// pending-event handler without altering state. The re-entrancy guard is
// released on scope exit even if a callback panics.
func (m *Machine) ProcessEvent(event Event, argument any) error {
	if event == nil {
		return ErrNilEvent
	}
	if m.processing {
		return m.pendingHandler(m, event, argument)
	}
	if _, isDestroy := event.(DestroyEvent); !isDestroy {
		if m.destroyed {
			return fmt.Errorf("process %T: %w", event, ErrDestroyed)
		}
		if !m.started {
			return fmt.Errorf("process %T: %w", event, ErrNotStarted)
		}
		if m.stopped {
			if _, isStop := event.(StopEvent); !isStop {
				return fmt.Errorf("process %T: %w", event, ErrStopped)
			}
		}
	}
	m.processing = true
	defer func() { m.processing = false }()

	if err := m.dispatch(event, argument); err != nil {
		return err
	}
	return m.drainQueue()
}

// enqueue buffers an event behind the in-flight pass. Used by the queueing
// pending-event policy and by generated follow-up events.
func (m *Machine) enqueue(event Event, argument any) {
	m.queue = append(m.queue, queuedEvent{event: event, argument: argument})
}

func (m *Machine) drainQueue() error {
	for len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		if err := m.dispatch(next.event, next.argument); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) dispatch(event Event, argument any) error {
	switch ev := event.(type) {
	case DestroyEvent:
		return m.performDestroy(ev)
	case StopEvent:
		return m.performStop()
	case UndoEvent:
		return m.performUndo(argument)
	}

	// Queued leftovers after a stop or destroy mid-drain are dropped.
	if !m.started || m.stopped || m.destroyed || m.current == nil {
		m.logger.Debug("dropping event",
			"machine", m.logName(), "event", fmt.Sprintf("%T", event))
		return nil
	}

	source := m.current
	var tr *Transition
	for s := source; s != nil; s = s.parent {
		if tr = s.findTransition(event); tr != nil {
			break
		}
	}
	if tr == nil {
		m.invokeIgnored(source, event, argument)
		return nil
	}

	params := TransitionParams{Transition: tr, Event: event, Argument: argument}
	dir := tr.direction(event, argument)

	tr.notifyTriggered(params)
	m.notifyTriggered(params)

	var target *State
	switch dir.kind {
	case dirNone:
		// Triggered but not transitioned: observers saw the attempt, the
		// state pointer stays put.
		return nil
	case dirStay:
		target = tr.source
	case dirMove:
		target = dir.target
	}

	m.notifyTransition(source, target, params)
	if m.undo != nil {
		m.undo.push(undoEntry{state: source, event: event, argument: argument})
	}
	if err := m.executeTransition(source, target, params); err != nil {
		return err
	}
	m.logger.Debug("transition",
		"machine", m.logName(),
		"from", source.String(),
		"to", m.current.String(),
		"event", fmt.Sprintf("%T", event))
	return nil
}

func (m *Machine) performStop() error {
	if m.stopped {
		return nil
	}
	m.stopped = true
	m.notifyStopped()
	m.logger.Debug("machine stopped", "machine", m.logName())
	return nil
}

func (m *Machine) performDestroy(ev DestroyEvent) error {
	if m.destroyed {
		return nil
	}
	if ev.ShouldStop() && m.started && !m.stopped {
		if err := m.performStop(); err != nil {
			return err
		}
	}
	m.destroyed = true
	m.current = nil
	m.queue = nil
	if m.undo != nil {
		m.undo.clear()
	}
	m.notifyDestroyed()
	m.logger.Debug("machine destroyed", "machine", m.logName())
	return nil
}

// performUndo pops the most recent transition record and moves back to its
// source state, delivering the undone event wrapped in a WrappedEvent. With
// undo disabled or exhausted history the event counts as ignored.
func (m *Machine) performUndo(argument any) error {
	if m.undo == nil {
		m.invokeIgnored(m.current, UndoEvent{}, argument)
		return nil
	}
	entry, ok := m.undo.pop()
	if !ok {
		m.invokeIgnored(m.current, UndoEvent{}, argument)
		return nil
	}

	source := m.current
	undoing := &Transition{
		name:    "Undo",
		matcher: MatchInstance[UndoEvent](),
		source:  source,
		target:  entry.state,
	}
	wrapped := WrappedEvent{Event: entry.event, Argument: entry.argument}
	params := TransitionParams{Transition: undoing, Event: wrapped, Argument: argument}

	m.notifyTriggered(params)
	m.notifyTransition(source, entry.state, params)
	if err := m.executeTransition(source, entry.state, params); err != nil {
		return err
	}
	m.logger.Debug("undo transition",
		"machine", m.logName(),
		"from", source.String(),
		"to", m.current.String())
	return nil
}

// executeTransition runs the exit chain (innermost first), mutates the
// current-state pointer, then runs the entry chain (outermost first,
// descending into initial children below the target).
func (m *Machine) executeTransition(source, target *State, params TransitionParams) error {
	exitChain, entryChain := transitionChains(source, target)
	tail, err := descend(target)
	if err != nil {
		return err
	}
	entryChain = append(entryChain, tail[1:]...)

	for _, s := range exitChain {
		m.exitState(s, params)
	}
	m.current = entryChain[len(entryChain)-1]
	return m.runEntry(entryChain, params)
}

func (m *Machine) runEntry(chain []*State, params TransitionParams) error {
	for _, s := range chain {
		if err := m.enterState(s, params); err != nil {
			return err
		}
	}
	leaf := chain[len(chain)-1]
	if leaf.final {
		m.notifyFinished(leaf, params)
		data, _ := leaf.Data()
		m.enqueue(&finishedEvent{state: leaf, data: data}, nil)
	}
	return nil
}

func (m *Machine) enterState(s *State, params TransitionParams) error {
	if s.isData {
		data, ok := s.extract(params)
		if !ok {
			return fmt.Errorf("enter state %q: %w", s.name, ErrNoStateData)
		}
		s.data, s.hasData = data, true
	}
	for _, fn := range s.entryHooks {
		fn(params)
	}
	m.notifyStateEntry(s, params)
	return nil
}

func (m *Machine) exitState(s *State, params TransitionParams) {
	for _, fn := range s.exitHooks {
		fn(params)
	}
	m.notifyStateExit(s, params)
	s.data, s.hasData = nil, false
}

func (m *Machine) invokeIgnored(state *State, event Event, argument any) {
	if m.ignoredHandler != nil {
		m.ignoredHandler(state, event, argument)
	}
	stateName := "<none>"
	if state != nil {
		stateName = state.String()
	}
	m.logger.Debug("event ignored",
		"machine", m.logName(),
		"state", stateName,
		"event", fmt.Sprintf("%T", event))
}

func (m *Machine) logName() string {
	if m.name != "" {
		return m.name
	}
	return m.id
}

// transitionChains computes the states to exit (from source upward,
// innermost first) and to enter (downward to target, outermost first),
// pivoting on the lowest common ancestor. A self-move or a move to an
// ancestor pivots one level higher so the target re-runs exit and entry.
func transitionChains(source, target *State) (exit, entry []*State) {
	lca := lowestCommonAncestor(source, target)
	if lca == target {
		lca = target.parent
	}
	for s := source; s != nil && s != lca; s = s.parent {
		exit = append(exit, s)
	}
	for s := target; s != nil && s != lca; s = s.parent {
		entry = append(entry, s)
	}
	for i, j := 0, len(entry)-1; i < j; i, j = i+1, j-1 {
		entry[i], entry[j] = entry[j], entry[i]
	}
	return exit, entry
}

func lowestCommonAncestor(a, b *State) *State {
	ancestors := make(map[*State]bool)
	for s := b; s != nil; s = s.parent {
		ancestors[s] = true
	}
	for s := a; s != nil; s = s.parent {
		if ancestors[s] {
			return s
		}
	}
	return nil
}

// descend returns s followed by the chain of initial children down to the
// resting leaf. A state with children but no designated initial child cannot
// be entered.
func descend(s *State) ([]*State, error) {
	chain := []*State{s}
	for len(s.children) > 0 {
		if s.initial == nil {
			return nil, fmt.Errorf("state %q has children but %w", s.name, ErrNoInitialState)
		}
		s = s.initial
		chain = append(chain, s)
	}
	return chain, nil
}
