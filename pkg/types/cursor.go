package types

// CursorState tags a continuation as resumable or exhausted.
type CursorState string

const (
	// CursorRunning means the walk has more nodes to visit; the bag holds
	// the state needed to resume.
	CursorRunning CursorState = "running"

	// CursorFinished means the walk is complete. A finished cursor carries
	// an empty bag.
	CursorFinished CursorState = "finished"
)

// Cursor is the serializable continuation token for a resumable walk.
// The controller creates a zero cursor for a fresh walk, passes the returned
// cursor back verbatim on each subsequent call, and discards it once
// finished. A cursor belongs to the most recent call's output; it must not
// be shared between concurrent invocations.
type Cursor struct {
	// Quota is the maximum number of results the next call may produce.
	// Zero or negative means unlimited.
	Quota int `json:"quota"`

	// State reports whether the walk can be resumed.
	State CursorState `json:"state,omitempty"`

	// Bag carries opaque walker-internal resumption data. Callers must not
	// interpret or modify it.
	Bag map[string]string `json:"bag,omitempty"`
}

// Done reports whether the walk has completed.
func (c Cursor) Done() bool {
	return c.State == CursorFinished
}

// Finish returns a finished cursor. The bag is dropped so no continuation
// state leaks past the end of a walk.
func (c Cursor) Finish() Cursor {
	return Cursor{Quota: c.Quota, State: CursorFinished}
}
