package statemachinex

import "errors"

var (
	// Configuration errors, raised synchronously at setup time.
	ErrDuplicateState    = errors.New("duplicate state name")
	ErrDuplicateListener = errors.New("listener already registered")
	ErrMachineStarted    = errors.New("machine topology is frozen after start")
	ErrNoInitialState    = errors.New("no initial state")
	ErrStateAttached     = errors.New("state already attached")
	ErrStartStates       = errors.New("invalid start states")

	// Lifecycle errors.
	ErrNotStarted     = errors.New("machine not started")
	ErrAlreadyStarted = errors.New("machine already started")
	ErrStopped        = errors.New("machine stopped")
	ErrDestroyed      = errors.New("machine destroyed")

	// ErrPendingEvent is returned by the default pending-event handler when
	// ProcessEvent is invoked while another event is still being processed.
	ErrPendingEvent = errors.New("event already being processed")

	// ErrStateNotFound is returned by RequireState for unknown names.
	ErrStateNotFound = errors.New("state not found")

	// ErrNoStateData is returned when a data state is entered through an
	// event that carries no extractable payload.
	ErrNoStateData = errors.New("no data for data state")

	// ErrNilEvent is returned when a nil event is submitted.
	ErrNilEvent = errors.New("nil event")
)
