package statemachinex

import "fmt"

// DataExtractor pulls a data state's payload out of the processing pass that
// enters it. Returning false means the pass carries no usable payload.
type DataExtractor func(params TransitionParams) (any, bool)

// State is a node in the machine's state tree. It owns its child states and
// outgoing transitions; parent and machine references point back without
// owning. Transition order is declaration order and decides first-match-wins
// lookup. Topology (children, transitions) is frozen once the owning machine
// has started.
type State struct {
	name    string
	parent  *State
	machine *Machine

	children []*State
	initial  *State
	final    bool

	transitions []*Transition

	entryHooks []func(params TransitionParams)
	exitHooks  []func(params TransitionParams)

	isData  bool
	extract DataExtractor
	data    any
	hasData bool
}

// NewState creates a named state. An empty name is allowed; unnamed states
// are not registered for machine-level lookup.
func NewState(name string) *State {
	return &State{name: name}
}

// NewFinalState creates a terminal state. Entering it generates a
// FinishedEvent after the current pass completes.
func NewFinalState(name string) *State {
	s := NewState(name)
	s.final = true
	return s
}

// NewDataState creates a state whose data slot of type D is populated on
// entry from the triggering event's payload (any DataCarrier event whose
// EventData is a D). Entering it through an event without a usable payload
// fails the pass with ErrNoStateData.
func NewDataState[D any](name string) *State {
	s := NewState(name)
	s.isData = true
	s.extract = func(params TransitionParams) (any, bool) {
		carrier, ok := params.Event.(DataCarrier)
		if !ok {
			return nil, false
		}
		data, ok := carrier.EventData().(D)
		if !ok {
			return nil, false
		}
		return data, true
	}
	return s
}

// NewFinalDataState creates a terminal data state. Its data is exposed to
// the generated FinishedEvent.
func NewFinalDataState[D any](name string) *State {
	s := NewDataState[D](name)
	s.final = true
	return s
}

// SetDataExtractor replaces the extractor of a data state, for payloads that
// are derived rather than carried verbatim by the event.
func (s *State) SetDataExtractor(extract DataExtractor) {
	s.isData = true
	s.extract = extract
}

// Name returns the state's name, possibly empty.
func (s *State) Name() string { return s.name }

// Parent returns the parent state, or nil for top-level states.
func (s *State) Parent() *State { return s.parent }

// Machine returns the owning machine, or nil while detached.
func (s *State) Machine() *Machine { return s.machine }

// Final reports whether this is a terminal state.
func (s *State) Final() bool { return s.final }

// Children returns a copy of the child states in insertion order.
func (s *State) Children() []*State {
	out := make([]*State, len(s.children))
	copy(out, s.children)
	return out
}

// Transitions returns a copy of the outgoing transitions in declaration
// order.
func (s *State) Transitions() []*Transition {
	out := make([]*Transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

// InitialState returns the child entered by default when this state becomes
// active, or nil.
func (s *State) InitialState() *State { return s.initial }

// Data returns the data slot and whether it is populated. The slot is
// populated on entry and cleared on exit.
func (s *State) Data() (any, bool) { return s.data, s.hasData }

// StateData returns s's data slot as a D. The second result is false when
// the slot is empty or holds a different type.
func StateData[D any](s *State) (D, bool) {
	var zero D
	if !s.hasData {
		return zero, false
	}
	data, ok := s.data.(D)
	if !ok {
		return zero, false
	}
	return data, true
}

// AddState attaches child under s. Fails once the owning machine has
// started, or when the child is already attached elsewhere, or when its name
// collides with a registered state.
func (s *State) AddState(child *State) (*State, error) {
	if child == nil {
		return nil, fmt.Errorf("add state: nil state")
	}
	if child.parent != nil || child.machine != nil {
		return nil, fmt.Errorf("add state %q: %w", child.name, ErrStateAttached)
	}
	if s.machine != nil {
		if s.machine.started {
			return nil, fmt.Errorf("add state %q: %w", child.name, ErrMachineStarted)
		}
		if err := s.machine.adopt(child); err != nil {
			return nil, err
		}
	}
	child.parent = s
	s.children = append(s.children, child)
	return child, nil
}

// SetInitialState designates which child is entered by default when s
// becomes active. The state must already be a child of s.
func (s *State) SetInitialState(child *State) error {
	if child == nil || child.parent != s {
		name := "<nil>"
		if child != nil {
			name = child.name
		}
		return fmt.Errorf("set initial state %q: not a child of %q", name, s.name)
	}
	if s.machine != nil && s.machine.started {
		return fmt.Errorf("set initial state %q: %w", child.name, ErrMachineStarted)
	}
	s.initial = child
	return nil
}

// AddTransition appends an outgoing transition. Fails once the owning
// machine has started. The transition's source is set to s.
func (s *State) AddTransition(t *Transition) (*Transition, error) {
	if t == nil {
		return nil, fmt.Errorf("add transition: nil transition")
	}
	if s.machine != nil && s.machine.started {
		return nil, fmt.Errorf("add transition %q: %w", t.name, ErrMachineStarted)
	}
	t.source = s
	s.transitions = append(s.transitions, t)
	return t, nil
}

// OnEntry registers an entry hook, invoked with the pass's TransitionParams
// after the state's data slot is populated. Returns s for chaining.
func (s *State) OnEntry(fn func(params TransitionParams)) *State {
	s.entryHooks = append(s.entryHooks, fn)
	return s
}

// OnExit registers an exit hook. Returns s for chaining.
func (s *State) OnExit(fn func(params TransitionParams)) *State {
	s.exitHooks = append(s.exitHooks, fn)
	return s
}

// findTransition scans the state's own transitions in declaration order and
// returns the first whose matcher accepts event, or nil. Lookup is
// single-level; the machine handles the ancestor fallback.
func (s *State) findTransition(event Event) *Transition {
	for _, t := range s.transitions {
		if t.matcher != nil && t.matcher.Matches(event) {
			return t
		}
	}
	return nil
}

func (s *State) String() string {
	if s.name == "" {
		return fmt.Sprintf("<state %p>", s)
	}
	return s.name
}
