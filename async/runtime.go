// Package async wraps the blocking engine in a buffered-queue runtime so
// events can be submitted from any goroutine. Delivery stays strictly
// serial: a single dispatch goroutine feeds the machine one event at a time,
// preserving the engine's ordering guarantees.
package async

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	smx "github.com/comalice/statemachinex"
)

// ErrQueueFull is returned by Send when the event queue is saturated.
var ErrQueueFull = errors.New("event queue full")

// ErrRuntimeStopped is returned by Send after Stop.
var ErrRuntimeStopped = errors.New("runtime stopped")

// Config configures a Runtime.
type Config struct {
	// QueueSize bounds the event buffer. Defaults to 1000.
	QueueSize int

	// OnError receives errors from the machine's event processing. Nil
	// means errors are dropped (they are still visible to the machine's
	// logger where it logs them itself).
	OnError func(err error)
}

// Runtime owns the dispatch goroutine around one machine. Create with
// NewRuntime, then Start, Send from any goroutine, and Stop to drain out.
type Runtime struct {
	machine *smx.Machine
	onError func(err error)

	queue   chan queued
	done    chan struct{}
	stopped chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	running   atomic.Bool
}

type queued struct {
	event    smx.Event
	argument any
}

// NewRuntime creates a runtime around machine.
func NewRuntime(machine *smx.Machine, cfg Config) *Runtime {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	return &Runtime{
		machine: machine,
		onError: cfg.OnError,
		queue:   make(chan queued, cfg.QueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Machine returns the wrapped machine. Callers must not invoke ProcessEvent
// on it directly while the runtime is running.
func (r *Runtime) Machine() *smx.Machine { return r.machine }

// Start starts the machine and launches the dispatch goroutine. Safe to
// call once; subsequent calls are no-ops returning nil.
func (r *Runtime) Start() error {
	var err error
	started := false
	r.startOnce.Do(func() {
		started = true
		if err = r.machine.Start(); err != nil {
			return
		}
		r.running.Store(true)
		go r.loop()
	})
	if !started {
		return nil
	}
	if err != nil {
		return fmt.Errorf("async start: %w", err)
	}
	return nil
}

// Send enqueues an event for serial delivery. Non-blocking; a full queue is
// backpressure, reported as ErrQueueFull.
func (r *Runtime) Send(event smx.Event, argument any) error {
	select {
	case <-r.done:
		return ErrRuntimeStopped
	default:
	}
	select {
	case r.queue <- queued{event: event, argument: argument}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop signals shutdown, waits for the dispatch goroutine to exit, and
// stops the machine. Events still queued are dropped. Safe to call multiple
// times.
func (r *Runtime) Stop() error {
	var err error
	r.stopOnce.Do(func() {
		close(r.done)
		if r.running.Load() {
			<-r.stopped
			err = r.machine.Stop()
		}
	})
	return err
}

func (r *Runtime) loop() {
	defer close(r.stopped)
	for {
		select {
		case <-r.done:
			return
		case q := <-r.queue:
			if err := r.machine.ProcessEvent(q.event, q.argument); err != nil {
				if r.onError != nil {
					r.onError(err)
				}
			}
		}
	}
}
