package core

// CoilState describes how an H-bridge channel is driven.
type CoilState uint8

const (
	CoilUnset CoilState = iota
	CoilForward
	CoilBackward
	CoilBrake
	CoilCoast
)

// CoilChannel selects one of the two motor coils.
type CoilChannel uint8

const (
	CoilA CoilChannel = iota
	CoilB
)

// coilPins is the pin set and state cache of one H-bridge channel.
type coilPins struct {
	dir1 GPIOPin
	dir2 GPIOPin
	pwm  PWMPin
	prev CoilState
}

// CoilDriver maps desired coil states and currents onto the H-bridge
// direction pins and PWM current outputs. The previous state of each
// channel is cached so direction pins are only touched on an actual
// change; the PWM duty is refreshed on every call.
type CoilDriver struct {
	gpio  GPIODriver
	pwm   PWMDriver
	board *BoardConfig

	channels [2]coilPins
}

// NewCoilDriver configures the H-bridge pins and returns a driver with
// both channels de-energized.
func NewCoilDriver(gpio GPIODriver, pwm PWMDriver, board *BoardConfig) (*CoilDriver, error) {
	d := &CoilDriver{
		gpio:  gpio,
		pwm:   pwm,
		board: board,
		channels: [2]coilPins{
			{dir1: board.CoilADir1, dir2: board.CoilADir2, pwm: board.CoilAPWM, prev: CoilUnset},
			{dir1: board.CoilBDir1, dir2: board.CoilBDir2, pwm: board.CoilBPWM, prev: CoilUnset},
		},
	}

	for i := range d.channels {
		ch := &d.channels[i]
		if err := gpio.ConfigureOutput(ch.dir1); err != nil {
			return nil, err
		}
		if err := gpio.ConfigureOutput(ch.dir2); err != nil {
			return nil, err
		}
		if err := pwm.ConfigurePWM(ch.pwm, board.PWMFreqHz); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// SetCoil drives one channel. On a state change the channel PWM is
// zeroed before the direction pins move, so the H-bridge never sees a
// live transition through a forbidden pin combination. The duty cycle
// for the requested current is written unconditionally.
//
// Pin writes are treated as infallible hardware calls.
func (d *CoilDriver) SetCoil(channel CoilChannel, desired CoilState, currentMA uint16) {
	ch := &d.channels[channel]

	if desired != ch.prev {
		_ = d.pwm.SetDuty(ch.pwm, 0)

		switch desired {
		case CoilForward:
			_ = d.gpio.SetPin(ch.dir1, true)
			_ = d.gpio.SetPin(ch.dir2, false)
		case CoilBackward:
			_ = d.gpio.SetPin(ch.dir1, false)
			_ = d.gpio.SetPin(ch.dir2, true)
		case CoilBrake:
			_ = d.gpio.SetPin(ch.dir1, true)
			_ = d.gpio.SetPin(ch.dir2, true)
		case CoilCoast:
			_ = d.gpio.SetPin(ch.dir1, false)
			_ = d.gpio.SetPin(ch.dir2, false)
		}

		ch.prev = desired
	}

	_ = d.pwm.SetDuty(ch.pwm, d.CurrentToPWM(currentMA))
}

// CurrentToPWM maps a coil current in mA to a PWM duty value using the
// linear scale from the current-sense circuit, clamped to the maximum
// duty cycle.
func (d *CoilDriver) CurrentToPWM(currentMA uint16) PWMValue {
	duty := float64(d.board.PWMMaxDuty) * d.board.SenseResistor * float64(currentMA) / (d.board.BoardVoltage * 100)
	if duty < 0 {
		duty = 0
	}
	if duty > float64(d.board.PWMMaxDuty) {
		duty = float64(d.board.PWMMaxDuty)
	}
	return PWMValue(duty)
}

// State returns the cached drive state of a channel.
func (d *CoilDriver) State(channel CoilChannel) CoilState {
	return d.channels[channel].prev
}
