package statemachinex

// Event is an immutable signal processed by a Machine. Any value can serve as
// an event; transitions select events through an EventMatcher, usually by
// dynamic type. Events must not be mutated after submission.
type Event interface{}

// DataCarrier is implemented by events that carry a payload. Data states use
// it (through their DataExtractor) to populate their data slot on entry.
type DataCarrier interface {
	EventData() any
}

// NamedEvent is a basic event identified by name, with an optional payload.
// It is the event form produced by machines built from declarative
// definitions, matched via MatchNamed.
type NamedEvent struct {
	Name string
	Data any
}

// EventData returns the optional payload.
func (e NamedEvent) EventData() any { return e.Data }

// DataEvent carries one required payload value of type D.
type DataEvent[D any] struct {
	Data D
}

// NewDataEvent creates a DataEvent carrying data.
func NewDataEvent[D any](data D) DataEvent[D] {
	return DataEvent[D]{Data: data}
}

// EventData returns the payload as an untyped value.
func (e DataEvent[D]) EventData() any { return e.Data }

// UndoEvent requests a reverse transition to the state recorded before the
// most recent transition. Machines created without WithUndo route it to the
// ignored-event handler.
type UndoEvent struct{}

// WrappedEvent is the envelope the engine uses to re-inject an original
// event and argument pair through another processing pass. Undo transitions
// deliver the undone event wrapped this way, so listeners and data
// extractors still see the original payload.
type WrappedEvent struct {
	Event    Event
	Argument any
}

// EventData forwards the payload of the wrapped event, if it carries one.
func (e WrappedEvent) EventData() any {
	if carrier, ok := e.Event.(DataCarrier); ok {
		return carrier.EventData()
	}
	return nil
}

// GeneratedEvent marks events produced exclusively by the engine. The
// concrete implementations are unexported; external callers can match them
// (via MatchInstance) but never construct them.
type GeneratedEvent interface {
	generatedEvent()
}

// StartEvent is generated by Start and delivered through the synthetic
// "Starting" transition. StartStates is non-empty; more than one start state
// requires mutually-parallel siblings, validated at start time.
type StartEvent interface {
	GeneratedEvent
	StartStates() []*State
}

// StopEvent is generated by Stop.
type StopEvent interface {
	GeneratedEvent
	stopEvent()
}

// FinishedEvent is generated when a final state is entered. For final data
// states EventData exposes the state's data.
type FinishedEvent interface {
	GeneratedEvent
	DataCarrier
	FinishedState() *State
}

// DestroyEvent is generated by Destroy. It is the only event deliverable to
// a machine that was never started or has already stopped.
type DestroyEvent interface {
	GeneratedEvent
	ShouldStop() bool
}

type startEvent struct {
	states []*State
	data   any
}

func (*startEvent) generatedEvent() {}

func (e *startEvent) StartStates() []*State { return e.states }

// EventData carries the optional start data, covering data-carrying initial
// states (the StartDataEvent form).
func (e *startEvent) EventData() any { return e.data }

type stopEvent struct{}

func (*stopEvent) generatedEvent() {}
func (*stopEvent) stopEvent()      {}

type finishedEvent struct {
	state *State
	data  any
}

func (*finishedEvent) generatedEvent() {}

func (e *finishedEvent) FinishedState() *State { return e.state }
func (e *finishedEvent) EventData() any        { return e.data }

type destroyEvent struct {
	stop bool
}

func (*destroyEvent) generatedEvent() {}

func (e *destroyEvent) ShouldStop() bool { return e.stop }
