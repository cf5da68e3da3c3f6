// Package testutil provides helpers shared by the engine's tests.
package testutil

import (
	"fmt"
	"sync"

	smx "github.com/comalice/statemachinex"
)

// Recorder is a machine listener that records the notification stream in
// delivery order, so tests can assert the exact sequencing of triggered,
// transition, exit and entry callbacks.
type Recorder struct {
	mu       sync.Mutex
	entries  []string
	listener *smx.Listener
}

// NewRecorder creates a recorder. Attach with machine.AddListener(r.Listener()).
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.listener = &smx.Listener{
		OnStarted: func(*smx.Machine) {
			r.record("started")
		},
		OnStopped: func(*smx.Machine) {
			r.record("stopped")
		},
		OnDestroyed: func(*smx.Machine) {
			r.record("destroyed")
		},
		OnTriggered: func(params smx.TransitionParams) {
			r.record("triggered:" + params.Transition.Name())
		},
		OnTransition: func(source, target *smx.State, params smx.TransitionParams) {
			r.record(fmt.Sprintf("transition:%s->%s", source.Name(), target.Name()))
		},
		OnStateEntry: func(state *smx.State, params smx.TransitionParams) {
			r.record("entry:" + state.Name())
		},
		OnStateExit: func(state *smx.State, params smx.TransitionParams) {
			r.record("exit:" + state.Name())
		},
		OnFinished: func(state *smx.State, params smx.TransitionParams) {
			r.record("finished:" + state.Name())
		},
	}
	return r
}

// Listener returns the listener to register on a machine.
func (r *Recorder) Listener() *smx.Listener { return r.listener }

// Entries returns a copy of the recorded stream.
func (r *Recorder) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many recorded entries equal entry.
func (r *Recorder) Count(entry string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e == entry {
			n++
		}
	}
	return n
}

// Reset clears the recorded stream.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

func (r *Recorder) record(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}
