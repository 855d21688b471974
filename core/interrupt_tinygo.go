//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved interrupt mask
type State = interrupt.State

// critical disables interrupts for the duration of a section. There is a
// single core, so masking interrupts is all the exclusion needed.
type critical struct{}

// enter disables interrupts and returns the previous state
func (c *critical) enter() State {
	return interrupt.Disable()
}

// exit restores the interrupt state
func (c *critical) exit(state State) {
	interrupt.Restore(state)
}
