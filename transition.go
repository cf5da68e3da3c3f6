package statemachinex

type directionKind int

const (
	dirNone directionKind = iota
	dirStay
	dirMove
)

// Direction is the outcome of resolving a matched transition: decline to
// move (NoTransition), re-enter the source state (Stay), or move to a target
// anywhere in the same tree (MoveTo).
type Direction struct {
	kind   directionKind
	target *State
}

// NoTransition declines to change state. The transition still counts as
// triggered for notification purposes.
func NoTransition() Direction { return Direction{kind: dirNone} }

// Stay targets the transition's own source state. Exit and entry re-run;
// a self-transition is re-entrant.
func Stay() Direction { return Direction{kind: dirStay} }

// MoveTo targets any state in the machine's tree. A nil target degrades to
// NoTransition.
func MoveTo(target *State) Direction {
	if target == nil {
		return Direction{kind: dirNone}
	}
	return Direction{kind: dirMove, target: target}
}

// Resolver maps a matched event and its argument to a Direction. Guard
// conditions live here: return NoTransition to decline.
type Resolver func(event Event, argument any) Direction

// Transition is a directed edge owned by exactly one source state, guarded
// by an event matcher. Within a state, transitions are evaluated in
// declaration order and only the first match is taken.
type Transition struct {
	name    string
	source  *State
	matcher EventMatcher
	resolve Resolver

	// Static target when known at construction, kept for inspection and
	// DOT export. Nil for conditional transitions.
	target *State

	triggeredHooks []func(params TransitionParams)
}

// NewTransition creates a transition that always moves to target when its
// matcher accepts an event. A nil target makes an internal transition that
// triggers without changing state.
func NewTransition(name string, matcher EventMatcher, target *State) *Transition {
	return &Transition{
		name:    name,
		matcher: matcher,
		target:  target,
		resolve: func(Event, any) Direction { return MoveTo(target) },
	}
}

// NewGuardedTransition moves to target only when guard passes; otherwise it
// resolves to NoTransition (triggered, not transitioned).
func NewGuardedTransition(name string, matcher EventMatcher, guard func(event Event, argument any) bool, target *State) *Transition {
	return &Transition{
		name:    name,
		matcher: matcher,
		target:  target,
		resolve: func(event Event, argument any) Direction {
			if guard != nil && !guard(event, argument) {
				return NoTransition()
			}
			return MoveTo(target)
		},
	}
}

// NewConditionalTransition defers the target decision to resolve, invoked
// per matched event.
func NewConditionalTransition(name string, matcher EventMatcher, resolve Resolver) *Transition {
	return &Transition{
		name:    name,
		matcher: matcher,
		resolve: resolve,
	}
}

// Name returns the transition's label, possibly empty.
func (t *Transition) Name() string { return t.name }

// Source returns the owning state.
func (t *Transition) Source() *State { return t.source }

// Target returns the statically-known target, or nil for conditional
// transitions.
func (t *Transition) Target() *State { return t.target }

// Matcher returns the transition's event matcher.
func (t *Transition) Matcher() EventMatcher { return t.matcher }

// OnTriggered registers a hook invoked whenever this transition matches,
// including NoTransition resolutions. Returns t for chaining.
func (t *Transition) OnTriggered(fn func(params TransitionParams)) *Transition {
	t.triggeredHooks = append(t.triggeredHooks, fn)
	return t
}

func (t *Transition) direction(event Event, argument any) Direction {
	if t.resolve == nil {
		return NoTransition()
	}
	return t.resolve(event, argument)
}

func (t *Transition) notifyTriggered(params TransitionParams) {
	for _, fn := range t.triggeredHooks {
		fn(params)
	}
}

func (t *Transition) String() string {
	if t.name == "" {
		return "<transition>"
	}
	return t.name
}
