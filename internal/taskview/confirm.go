package taskview

// Confirmation stages a mutation until the user confirms or cancels it.
// The zero value is idle.
type Confirmation[T any] struct {
	staged  T
	pending bool
}

// Request stages v, replacing anything already pending.
func (c *Confirmation[T]) Request(v T) {
	c.staged = v
	c.pending = true
}

// Pending returns the staged value, if any.
func (c *Confirmation[T]) Pending() (T, bool) {
	return c.staged, c.pending
}

// Confirm returns the staged value and goes back to idle. ok is false when
// nothing was pending.
func (c *Confirmation[T]) Confirm() (v T, ok bool) {
	v, ok = c.staged, c.pending
	c.Cancel()
	return v, ok
}

// Cancel drops the staged value.
func (c *Confirmation[T]) Cancel() {
	var zero T
	c.staged = zero
	c.pending = false
}
