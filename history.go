package statemachinex

// undoEntry records where a transition came from and what drove it, so an
// UndoEvent can return there with the original event wrapped.
type undoEntry struct {
	state    *State
	event    Event
	argument any
}

// undoHistory is a bounded LIFO of executed transitions. Zero limit means
// unbounded. Mutated only inside the processing pass, so no locking.
type undoHistory struct {
	entries []undoEntry
	limit   int
}

func newUndoHistory(limit int) *undoHistory {
	return &undoHistory{limit: limit}
}

func (h *undoHistory) push(e undoEntry) {
	h.entries = append(h.entries, e)
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

func (h *undoHistory) pop() (undoEntry, bool) {
	if len(h.entries) == 0 {
		return undoEntry{}, false
	}
	e := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return e, true
}

func (h *undoHistory) clear() {
	h.entries = nil
}
