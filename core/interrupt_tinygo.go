//go:build tinygo

package core

import "runtime/interrupt"

// State mirrors the platform interrupt state type
type State = interrupt.State

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	interrupt.Restore(state)
}
