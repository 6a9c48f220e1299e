package core

// The enable state machine.
//
// Transitions are an explicit decision table instead of the usual
// fall-through switch: every committed transition performs exactly one
// coil action, either re-locking the drive at the present shaft angle
// or de-energizing both channels. Enabling transitions leave the coils
// energized and holding.

// transitionAction is the single coil action a committed transition performs.
type transitionAction uint8

const (
	actionIdle transitionAction = iota
	actionRelock
)

// decideTransition returns whether a transition to target may commit
// from the current state, and the coil action it performs.
//
// With clearErrors the transition is unconditional and both enabling
// targets re-lock. Without it, only the plain ENABLED/DISABLED states
// may be left (forced and overtemp states are sticky), and only the
// plain ENABLED target re-locks; a forced target still commits but
// idles the coils until errors are cleared.
func decideTransition(current, target MotorState, clearErrors bool) (transitionAction, bool) {
	if !clearErrors && current != StateEnabled && current != StateDisabled {
		return actionIdle, false
	}

	switch target {
	case StateEnabled:
		return actionRelock, true
	case StateForcedEnabled:
		if clearErrors {
			return actionRelock, true
		}
		return actionIdle, true
	default:
		return actionIdle, true
	}
}

// SetState requests a state transition. clearErrors forces the
// transition through sticky states; without it the request is silently
// skipped unless the motor is in a plain enabled/disabled state.
func (m *Motor) SetState(newState MotorState, clearErrors bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.state == newState {
		return
	}
	if newState == StateUnset {
		return
	}
	if newState == StateOvertemp && !m.features.OvertempProtection {
		return
	}

	action, ok := decideTransition(m.state, newState, clearErrors)
	if !ok {
		return
	}

	switch action {
	case actionRelock:
		m.relockCoils()
	case actionIdle:
		m.idleCoils()
	}
	m.state = newState
	debugPrintln("motor: state " + stateName(newState))
}

func stateName(s MotorState) string {
	switch s {
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateForcedEnabled:
		return "forced enabled"
	case StateForcedDisabled:
		return "forced disabled"
	case StateOvertemp:
		return "overtemp"
	}
	return "unset"
}

// State returns the current motor state.
func (m *Motor) State() MotorState {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

// relockCoils drives the coils to hold the present shaft position.
// With a sensor fitted the physical angle (minus the startup offset)
// wins and the tracked angle is corrected to match; without one the
// tracked step count is reused and the angle is left alone.
func (m *Motor) relockCoils() {
	if m.sensor != nil {
		angle := m.sensor.Angle() - m.board.StartupAngleOffset
		m.driveCoilsAngle(angle)
		m.currentAngle = angle
		return
	}
	m.driveCoils(m.currentStep)
}

// idleCoils de-energizes both channels.
func (m *Motor) idleCoils() {
	m.coils.SetCoil(CoilA, CoilCoast, 0)
	m.coils.SetCoil(CoilB, CoilCoast, 0)
}

// canDrive reports whether stepping may touch the coils. Checked by
// every stepping primitive before any coil write, so disabling the
// motor takes effect before the next queued step.
func (m *Motor) canDrive() bool {
	return m.state == StateEnabled || m.state == StateForcedEnabled
}

// EnablePinAsserted reads the external enable input, honoring the
// inversion flag.
func (m *Motor) EnablePinAsserted() bool {
	level := m.gpio.ReadPin(m.board.EnablePin)
	if m.enableInverted {
		return !level
	}
	return level
}
