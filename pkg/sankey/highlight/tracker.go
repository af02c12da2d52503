package highlight

// Tracker owns the hover state of one view. Transitions are synchronous and
// idempotent. A Tracker is not safe for concurrent use; the view that owns it
// is its only writer.
type Tracker struct {
	state State
}

// Enter moves to s and reports whether the state changed.
func (t *Tracker) Enter(s State) bool {
	if t.state == s {
		return false
	}
	t.state = s
	return true
}

// Leave returns to [None] and reports whether the state changed.
func (t *Tracker) Leave() bool { return t.Enter(None()) }

// State returns the current state.
func (t *Tracker) State() State { return t.state }
