package core

import "math"

// MotorState is the enable state of the motor drive.
type MotorState uint8

const (
	StateUnset MotorState = iota
	StateEnabled
	StateDisabled
	StateForcedEnabled
	StateForcedDisabled
	StateOvertemp
)

// Direction selects how a step's sign is decided.
type Direction uint8

const (
	// DirPin takes the sign from the physical direction input pin,
	// combined with the reversed flag.
	DirPin Direction = iota
	// DirClockwise steps in the negative direction.
	DirClockwise
	// DirCounterClockwise steps in the positive direction.
	DirCounterClockwise
)

// Microstep divisor bounds. Valid divisors are the powers of two from
// MinMicrostepDivisor through MaxMicrostepDivisor.
const (
	MinMicrostepDivisor = 1
	MaxMicrostepDivisor = 32
)

// Motor owns the drive configuration, the tracked shaft position and
// the enable state machine, and turns step requests into coil commands.
//
// One Motor exists per board, constructed at init and never destroyed.
// The step interrupt advances currentStep/currentAngle; the main loop
// reads them and mutates configuration. Both sides go through the
// IRQLock for any field the interrupt touches.
type Motor struct {
	lock IRQLock

	board    *BoardConfig
	features Features

	coils  *CoilDriver
	gpio   GPIODriver
	sensor AngleSensor
	params ParamStore

	// Step geometry
	fullStepAngle    float64
	microstepDivisor uint16
	microstepAngle   float64
	sineIndexScale   int32 // table entries per microstep

	reversed            int32 // +1 normal, -1 inverted
	enableInverted      bool
	microstepMultiplier float64

	// Static current limits (mA), mutually derived
	rmsCurrent  uint16
	peakCurrent uint16

	// Dynamic current factors
	dynamicAccel uint16
	dynamicIdle  uint16
	dynamicMax   uint16

	// Position state. currentAngle/currentStep accumulate without
	// wrapping; wrapping happens only when driving the coils.
	currentAngle float64
	desiredAngle float64
	currentStep  int32
	desiredStep  int32

	state MotorState
}

// NewMotor wires a motor to its hardware collaborators and leaves it
// disabled with the coils de-energized. sensor and params may be nil
// when the board has no encoder or no usable flash.
func NewMotor(board *BoardConfig, features Features, gpio GPIODriver, pwm PWMDriver, sensor AngleSensor, params ParamStore) (*Motor, error) {
	coils, err := NewCoilDriver(gpio, pwm, board)
	if err != nil {
		return nil, err
	}

	if err := gpio.ConfigureInputPullUp(board.StepPin); err != nil {
		return nil, err
	}
	if err := gpio.ConfigureInputPullUp(board.DirectionPin); err != nil {
		return nil, err
	}
	if err := gpio.ConfigureInputPullUp(board.EnablePin); err != nil {
		return nil, err
	}

	m := &Motor{
		board:    board,
		features: features,
		coils:    coils,
		gpio:     gpio,
		sensor:   sensor,
		params:   params,

		fullStepAngle:       DefaultFullStepAngle,
		microstepMultiplier: DefaultMicrostepMultiplier,
		reversed:            1,
		state:               StateUnset,
	}
	m.applyMicrostepping(DefaultMicrostepping)
	m.SetRMSCurrent(DefaultRMSCurrent)

	m.SetState(StateDisabled, true)
	return m, nil
}

// applyMicrostepping commits a validated divisor and recomputes the
// values derived from it.
func (m *Motor) applyMicrostepping(divisor uint16) {
	m.microstepDivisor = divisor
	m.microstepAngle = m.fullStepAngle / float64(divisor)
	m.sineIndexScale = int32(SineValCount / (4 * int32(divisor)))
}

// SetMicrostepping sets the microstep divisor. Values outside
// {1,2,4,8,16,32} leave the divisor unchanged.
func (m *Motor) SetMicrostepping(divisor uint16) {
	if divisor < MinMicrostepDivisor || divisor > MaxMicrostepDivisor {
		return
	}
	if divisor&(divisor-1) != 0 {
		return
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.applyMicrostepping(divisor)
}

// Microstepping returns the microstep divisor.
func (m *Motor) Microstepping() uint16 {
	return m.microstepDivisor
}

// SetFullStepAngle sets the mechanical full-step angle. Only the two
// common motor geometries are accepted; anything else is ignored.
func (m *Motor) SetFullStepAngle(angle float64) {
	if angle != 1.8 && angle != 0.9 {
		return
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.fullStepAngle = angle
	m.microstepAngle = angle / float64(m.microstepDivisor)
}

// FullStepAngle returns the full-step angle in degrees.
func (m *Motor) FullStepAngle() float64 {
	return m.fullStepAngle
}

// MicrostepAngle returns the angle of one microstep in degrees.
func (m *Motor) MicrostepAngle() float64 {
	return m.microstepAngle
}

// MicrostepsPerRotation returns the number of microsteps in a full
// mechanical rotation.
func (m *Motor) MicrostepsPerRotation() int32 {
	return int32(math.Round(360 / m.microstepAngle))
}

// SetReversed sets whether the motor direction is inverted.
func (m *Motor) SetReversed(reversed bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if reversed {
		m.reversed = -1
	} else {
		m.reversed = 1
	}
}

// Reversed returns whether the motor direction is inverted.
func (m *Motor) Reversed() bool {
	return m.reversed < 0
}

// SetEnableInversion sets whether the enable input is active-high.
func (m *Motor) SetEnableInversion(inverted bool) {
	m.enableInverted = inverted
}

// EnableInversion returns whether the enable input is inverted.
func (m *Motor) EnableInversion() bool {
	return m.enableInverted
}

// SetMicrostepMultiplier sets the number of microsteps advanced per
// step pulse. Zero and negative values are ignored.
func (m *Motor) SetMicrostepMultiplier(multiplier float64) {
	if multiplier <= 0 {
		return
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.microstepMultiplier = multiplier
}

// MicrostepMultiplier returns the microstep multiplier.
func (m *Motor) MicrostepMultiplier() float64 {
	return m.microstepMultiplier
}

// SetRMSCurrent sets the RMS coil current in mA, clamped to the board
// rating. The peak current is re-derived to match. No-op when the
// motor runs dynamic current.
func (m *Motor) SetRMSCurrent(currentMA uint16) {
	if m.features.DynamicCurrent {
		return
	}
	m.rmsCurrent = clampCurrent(currentMA, m.board.MaxRMSCurrent)
	m.peakCurrent = clampCurrent(uint16(math.Round(float64(currentMA)*1.414)), m.board.MaxPeakCurrent)
}

// SetPeakCurrent sets the peak coil current in mA, clamped to the board
// rating. The RMS current is re-derived to match. No-op when the motor
// runs dynamic current.
func (m *Motor) SetPeakCurrent(currentMA uint16) {
	if m.features.DynamicCurrent {
		return
	}
	m.peakCurrent = clampCurrent(currentMA, m.board.MaxPeakCurrent)
	m.rmsCurrent = clampCurrent(uint16(math.Round(float64(currentMA)*0.707)), m.board.MaxRMSCurrent)
}

// RMSCurrent returns the RMS current limit in mA.
func (m *Motor) RMSCurrent() uint16 {
	return m.rmsCurrent
}

// PeakCurrent returns the peak current limit in mA.
func (m *Motor) PeakCurrent() uint16 {
	return m.peakCurrent
}

// SetDynamicAccelCurrent sets the acceleration factor for dynamic
// current. No-op on static-current builds.
func (m *Motor) SetDynamicAccelCurrent(factor uint16) {
	if !m.features.DynamicCurrent {
		return
	}
	m.dynamicAccel = factor
}

// SetDynamicIdleCurrent sets the idle factor for dynamic current.
// No-op on static-current builds.
func (m *Motor) SetDynamicIdleCurrent(factor uint16) {
	if !m.features.DynamicCurrent {
		return
	}
	m.dynamicIdle = factor
}

// SetDynamicMaxCurrent sets the ceiling for dynamic current. No-op on
// static-current builds.
func (m *Motor) SetDynamicMaxCurrent(factor uint16) {
	if !m.features.DynamicCurrent {
		return
	}
	m.dynamicMax = clampCurrent(factor, m.board.MaxPeakCurrent)
}

// DynamicAccelCurrent returns the dynamic-current acceleration factor.
func (m *Motor) DynamicAccelCurrent() uint16 { return m.dynamicAccel }

// DynamicIdleCurrent returns the dynamic-current idle factor.
func (m *Motor) DynamicIdleCurrent() uint16 { return m.dynamicIdle }

// DynamicMaxCurrent returns the dynamic-current ceiling.
func (m *Motor) DynamicMaxCurrent() uint16 { return m.dynamicMax }

// SetDesiredAngle sets the target angle the feedback loop tracks.
func (m *Motor) SetDesiredAngle(angle float64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.desiredAngle = angle
}

// DesiredAngle returns the target angle in degrees.
func (m *Motor) DesiredAngle() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.desiredAngle
}

// SetDesiredStep sets the target step count.
func (m *Motor) SetDesiredStep(step int32) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.desiredStep = step
}

// DesiredStep returns the target step count.
func (m *Motor) DesiredStep() int32 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.desiredStep
}

// CurrentAngle returns the tracked commanded shaft angle. The value
// accumulates across turns and is not wrapped to 0-360.
func (m *Motor) CurrentAngle() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.currentAngle
}

// CurrentStep returns the electrical-phase step accumulator.
func (m *Motor) CurrentStep() int32 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.currentStep
}

// StepPhase returns the current position within one electrical cycle.
func (m *Motor) StepPhase() int32 {
	m.lock.Lock()
	defer m.lock.Unlock()
	cycle := 4 * int32(m.microstepDivisor)
	phase := m.currentStep % cycle
	if phase < 0 {
		phase += cycle
	}
	return phase
}

// AngleError returns desired minus measured shaft angle, or 0 when no
// sensor is fitted.
func (m *Motor) AngleError() float64 {
	if m.sensor == nil {
		return 0
	}
	return m.DesiredAngle() - m.sensor.Angle()
}

// StepError returns the angle error converted to whole microsteps.
func (m *Motor) StepError() int32 {
	return int32(math.Round(m.AngleError() / m.microstepAngle))
}

// Features returns the optional behaviors this motor was built with.
func (m *Motor) Features() Features {
	return m.features
}

// Sensor returns the angle sensor, or nil when none is fitted.
func (m *Motor) Sensor() AngleSensor {
	return m.sensor
}

// Coils exposes the coil driver, mainly for target shutdown paths.
func (m *Motor) Coils() *CoilDriver {
	return m.coils
}

func clampCurrent(value, max uint16) uint16 {
	if value > max {
		return max
	}
	return value
}

func sign(num float64) int32 {
	if num < 0 {
		return -1
	}
	return 1
}
