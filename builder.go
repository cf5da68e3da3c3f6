package statemachinex

import "fmt"

// Builder assembles a machine from state names, resolving forward references
// at Build time, so transitions can target states declared later. It is a
// construction convenience composing on the core add operations; machines
// built either way behave identically.
type Builder struct {
	machineName string
	opts        []Option

	order []string
	specs map[string]*stateSpec

	initial string
}

type stateSpec struct {
	name    string
	parent  string
	final   bool
	initial bool // initial child within parent
	entry   []func(params TransitionParams)
	exit    []func(params TransitionParams)
	edges   []edgeSpec
}

type edgeSpec struct {
	name    string
	matcher EventMatcher
	target  string
	guard   func(event Event, argument any) bool
}

// NewBuilder creates a builder for a machine with the given name.
func NewBuilder(machineName string, opts ...Option) *Builder {
	return &Builder{
		machineName: machineName,
		opts:        opts,
		specs:       make(map[string]*stateSpec),
	}
}

// State creates or retrieves the named state spec.
func (b *Builder) State(name string) *StateBuilder {
	spec, ok := b.specs[name]
	if !ok {
		spec = &stateSpec{name: name}
		b.specs[name] = spec
		b.order = append(b.order, name)
	}
	return &StateBuilder{b: b, spec: spec}
}

// StateBuilder configures one state within a Builder.
type StateBuilder struct {
	b    *Builder
	spec *stateSpec
}

// Parent nests the state under the named parent, created on demand.
func (sb *StateBuilder) Parent(name string) *StateBuilder {
	sb.b.State(name) // ensure it exists
	sb.spec.parent = name
	return sb
}

// Final marks the state terminal.
func (sb *StateBuilder) Final() *StateBuilder {
	sb.spec.final = true
	return sb
}

// Initial designates this state as the machine's initial state, or, for
// nested states, as the parent's initial child.
func (sb *StateBuilder) Initial() *StateBuilder {
	if sb.spec.parent == "" {
		sb.b.initial = sb.spec.name
	} else {
		sb.spec.initial = true
	}
	return sb
}

// OnEntry registers an entry hook.
func (sb *StateBuilder) OnEntry(fn func(params TransitionParams)) *StateBuilder {
	sb.spec.entry = append(sb.spec.entry, fn)
	return sb
}

// OnExit registers an exit hook.
func (sb *StateBuilder) OnExit(fn func(params TransitionParams)) *StateBuilder {
	sb.spec.exit = append(sb.spec.exit, fn)
	return sb
}

// On adds a transition matching NamedEvent eventName, targeting the named
// state. The target may be declared later.
func (sb *StateBuilder) On(eventName, target string) *StateBuilder {
	sb.spec.edges = append(sb.spec.edges, edgeSpec{
		name:    eventName,
		matcher: MatchNamed(eventName),
		target:  target,
	})
	return sb
}

// OnWhen adds a guarded transition matching NamedEvent eventName.
func (sb *StateBuilder) OnWhen(eventName, target string, guard func(event Event, argument any) bool) *StateBuilder {
	sb.spec.edges = append(sb.spec.edges, edgeSpec{
		name:    eventName,
		matcher: MatchNamed(eventName),
		target:  target,
		guard:   guard,
	})
	return sb
}

// OnMatch adds a transition with an arbitrary matcher.
func (sb *StateBuilder) OnMatch(name string, matcher EventMatcher, target string) *StateBuilder {
	sb.spec.edges = append(sb.spec.edges, edgeSpec{
		name:    name,
		matcher: matcher,
		target:  target,
	})
	return sb
}

// Build constructs the machine: states in declaration order, hierarchy,
// initial designations, then transitions with forward references resolved.
func (b *Builder) Build() (*Machine, error) {
	m := NewMachine(b.machineName, b.opts...)

	states := make(map[string]*State, len(b.order))
	for _, name := range b.order {
		spec := b.specs[name]
		var s *State
		if spec.final {
			s = NewFinalState(name)
		} else {
			s = NewState(name)
		}
		for _, fn := range spec.entry {
			s.OnEntry(fn)
		}
		for _, fn := range spec.exit {
			s.OnExit(fn)
		}
		states[name] = s
	}

	// Attach children before adding roots so whole subtrees are adopted in
	// one registration pass.
	for _, name := range b.order {
		spec := b.specs[name]
		if spec.parent == "" {
			continue
		}
		parent, ok := states[spec.parent]
		if !ok {
			return nil, fmt.Errorf("build %q: parent %q: %w", name, spec.parent, ErrStateNotFound)
		}
		if _, err := parent.AddState(states[name]); err != nil {
			return nil, fmt.Errorf("build %q: %w", name, err)
		}
	}
	for _, name := range b.order {
		spec := b.specs[name]
		if spec.parent != "" {
			continue
		}
		if _, err := m.AddState(states[name]); err != nil {
			return nil, fmt.Errorf("build %q: %w", name, err)
		}
	}

	for _, name := range b.order {
		spec := b.specs[name]
		if spec.initial {
			if err := states[spec.parent].SetInitialState(states[name]); err != nil {
				return nil, fmt.Errorf("build %q: %w", name, err)
			}
		}
	}
	if b.initial != "" {
		if err := m.SetInitialState(states[b.initial]); err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
	}

	for _, name := range b.order {
		spec := b.specs[name]
		for _, edge := range spec.edges {
			target, ok := states[edge.target]
			if !ok {
				return nil, fmt.Errorf("build %q: target %q: %w", name, edge.target, ErrStateNotFound)
			}
			var t *Transition
			if edge.guard != nil {
				t = NewGuardedTransition(edge.name, edge.matcher, edge.guard, target)
			} else {
				t = NewTransition(edge.name, edge.matcher, target)
			}
			if _, err := states[name].AddTransition(t); err != nil {
				return nil, fmt.Errorf("build %q: %w", name, err)
			}
		}
	}

	return m, nil
}
