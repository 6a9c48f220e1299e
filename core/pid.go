package core

// Position feedback controller. Wraps a conventional PID algorithm:
// the setpoint is the motor's desired angle, the input is the sensor
// angle, and the bounded output is a corrective step rate in Hz.

// Default PID configuration.
const (
	DefaultPIDP    = 20.0
	DefaultPIDI    = 5.0
	DefaultPIDD    = 0.1
	DefaultPIDMaxI = 500.0

	// DefaultMaxStepRate bounds the corrective output (steps/s).
	DefaultMaxStepRate = 10000.0
)

// PID closes the position loop around a Motor and its angle sensor.
// Compute is called once per control tick from the main loop; the
// output limits are enforced inside the algorithm, never left to the
// caller.
type PID struct {
	motor *Motor

	kp, ki, kd float64
	maxI       float64

	outMin, outMax float64

	integral  float64
	lastInput float64
	primed    bool

	lastTime uint32
	output   float64

	now func() uint32
}

// NewPID returns a controller with the default tunings. now supplies
// the tick clock; tests inject their own.
func NewPID(motor *Motor, now func() uint32) *PID {
	if now == nil {
		now = GetTime
	}
	p := &PID{
		motor:  motor,
		maxI:   DefaultPIDMaxI,
		outMin: -DefaultMaxStepRate,
		outMax: DefaultMaxStepRate,
		now:    now,
	}
	p.SetTunings(DefaultPIDP, DefaultPIDI, DefaultPIDD)
	p.lastTime = now()
	return p
}

// SetTunings applies all three gains together so a control tick never
// observes a mixed set. Negative gains are ignored.
func (p *PID) SetTunings(kp, ki, kd float64) {
	if kp < 0 || ki < 0 || kd < 0 {
		return
	}
	p.kp, p.ki, p.kd = kp, ki, kd
}

// SetP sets the proportional gain, retuning atomically.
func (p *PID) SetP(kp float64) { p.SetTunings(kp, p.ki, p.kd) }

// SetI sets the integral gain, retuning atomically.
func (p *PID) SetI(ki float64) { p.SetTunings(p.kp, ki, p.kd) }

// SetD sets the derivative gain, retuning atomically.
func (p *PID) SetD(kd float64) { p.SetTunings(p.kp, p.ki, kd) }

// P returns the proportional gain.
func (p *PID) P() float64 { return p.kp }

// I returns the integral gain.
func (p *PID) I() float64 { return p.ki }

// D returns the derivative gain.
func (p *PID) D() float64 { return p.kd }

// SetMaxI sets the integral windup clamp. Negative values are ignored.
func (p *PID) SetMaxI(maxI float64) {
	if maxI < 0 {
		return
	}
	p.maxI = maxI
	p.integral = clamp(p.integral, -p.maxI, p.maxI)
}

// MaxI returns the integral windup clamp.
func (p *PID) MaxI() float64 { return p.maxI }

// SetOutputLimits bounds the corrective rate. Ignored when min >= max.
func (p *PID) SetOutputLimits(min, max float64) {
	if min >= max {
		return
	}
	p.outMin, p.outMax = min, max
	p.output = clamp(p.output, min, max)
	p.integral = clamp(p.integral, min, max)
}

// Compute samples the angular error and updates the controller,
// returning the bounded corrective step rate. Without a sensor, or
// before any time has elapsed, the previous output is returned
// unchanged.
func (p *PID) Compute() float64 {
	sensor := p.motor.Sensor()
	if sensor == nil {
		return 0
	}

	now := p.now()
	elapsed := now - p.lastTime
	if elapsed == 0 {
		return p.output
	}
	dt := float64(elapsed) / TimerFreq

	input := sensor.Angle()
	err := p.motor.DesiredAngle() - input

	if !p.primed {
		p.lastInput = input
		p.primed = true
	}

	p.integral += p.ki * err * dt
	p.integral = clamp(p.integral, -p.maxI, p.maxI)
	p.integral = clamp(p.integral, p.outMin, p.outMax)

	// Derivative on measurement avoids kicks on setpoint changes.
	dInput := (input - p.lastInput) / dt

	p.output = clamp(p.kp*err+p.integral-p.kd*dInput, p.outMin, p.outMax)

	p.lastInput = input
	p.lastTime = now
	return p.output
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
