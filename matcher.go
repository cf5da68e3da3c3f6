package statemachinex

import "reflect"

// EventMatcher decides whether a transition accepts an event. Matchers must
// be pure and deterministic; they run on every candidate transition during
// event processing.
type EventMatcher interface {
	Matches(event Event) bool
}

// MatcherFunc adapts a predicate to the EventMatcher interface.
type MatcherFunc func(event Event) bool

// Matches reports whether the predicate accepts event.
func (f MatcherFunc) Matches(event Event) bool { return f(event) }

// MatchExact matches events whose dynamic type is exactly E. Use
// MatchInstance when E is an interface type.
func MatchExact[E Event]() EventMatcher {
	want := reflect.TypeOf((*E)(nil)).Elem()
	return MatcherFunc(func(event Event) bool {
		return reflect.TypeOf(event) == want
	})
}

// MatchInstance matches any event assignable to E. This is the matcher to
// use for the generated event interfaces (StartEvent, FinishedEvent, ...),
// so engine-internal implementations stay matchable without being
// constructible.
func MatchInstance[E Event]() EventMatcher {
	return MatcherFunc(func(event Event) bool {
		_, ok := event.(E)
		return ok
	})
}

// MatchNamed matches a NamedEvent with the given name.
func MatchNamed(name string) EventMatcher {
	return MatcherFunc(func(event Event) bool {
		named, ok := event.(NamedEvent)
		return ok && named.Name == name
	})
}

// MatchFunc wraps an arbitrary predicate.
func MatchFunc(fn func(event Event) bool) EventMatcher {
	return MatcherFunc(fn)
}
