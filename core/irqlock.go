package core

// IRQLock guards state shared between the step interrupt and the main
// loop. On hardware Lock masks interrupts for the critical section; on
// regular Go it is a no-op, matching the single-core model where the
// main loop and the ISR never truly run concurrently.
//
// Not reentrant: a holder must not Lock again before Unlock.
type IRQLock struct {
	state State
}

// Lock enters the critical section.
func (l *IRQLock) Lock() {
	l.state = disableInterrupts()
}

// Unlock leaves the critical section.
func (l *IRQLock) Unlock() {
	restoreInterrupts(l.state)
}
