package core

import "errors"

// Scheduled step requests: the command layer asks for N steps at a
// rate, and the step clock executes them one timer event at a time.
// Only one request runs at once; the drive gate in Motor.Step plus the
// state check here guarantee that disabling the motor stops the
// remaining steps before any further coil write.

// ErrStepJobActive is returned when a request arrives while a previous
// one is still stepping.
var ErrStepJobActive = errors.New("step request already in progress")

// ErrBadStepRequest is returned for non-positive counts or rates.
var ErrBadStepRequest = errors.New("step count and rate must be positive")

// DistanceMode selects how move targets are interpreted.
type DistanceMode uint8

const (
	DistanceAbsolute DistanceMode = iota
	DistanceIncremental
)

// StepPlanner owns the single in-flight scheduled step request and the
// sticky move parameters (distance mode, last rates) the command layer
// relies on.
type StepPlanner struct {
	motor *Motor
	sched *Scheduler

	timer     Timer
	remaining int64
	interval  uint32
	dir       Direction
	active    bool

	distanceMode DistanceMode
	lastStepRate float64
	lastFeedRate float64
}

// NewStepPlanner wires a planner to the motor and its step clock.
func NewStepPlanner(motor *Motor, sched *Scheduler) *StepPlanner {
	p := &StepPlanner{
		motor:        motor,
		sched:        sched,
		distanceMode: DistanceAbsolute,
		lastStepRate: 1000,
		lastFeedRate: 1000,
	}
	p.timer.Handler = p.stepEvent
	return p
}

// ScheduleSteps queues count steps at rate Hz in the given direction.
func (p *StepPlanner) ScheduleSteps(count int64, rate float64, dir Direction) error {
	if count <= 0 || rate <= 0 {
		return ErrBadStepRequest
	}
	if p.active {
		return ErrStepJobActive
	}

	p.remaining = count
	p.interval = TimerFromHz(rate)
	p.dir = dir
	p.active = true

	p.timer.Next = nil
	p.timer.WakeTime = GetTime() + p.interval
	p.sched.Schedule(&p.timer)
	return nil
}

// stepEvent executes one scheduled step. Runs in interrupt context.
func (p *StepPlanner) stepEvent(t *Timer) uint8 {
	if !p.motor.canDrive() {
		// Disabled mid-run: drop the remaining steps.
		p.remaining = 0
		p.active = false
		return SF_DONE
	}

	p.motor.Step(p.dir, true, true)
	p.remaining--

	if p.remaining <= 0 {
		p.active = false
		return SF_DONE
	}

	t.WakeTime += p.interval
	return SF_RESCHEDULE
}

// Cancel drops an in-flight request without stepping further.
func (p *StepPlanner) Cancel() {
	p.sched.Cancel(&p.timer)
	p.remaining = 0
	p.active = false
}

// Active reports whether a request is still stepping.
func (p *StepPlanner) Active() bool {
	return p.active
}

// Remaining returns the number of steps left in the current request.
func (p *StepPlanner) Remaining() int64 {
	return p.remaining
}

// SetDistanceMode switches between absolute and incremental targets.
func (p *StepPlanner) SetDistanceMode(mode DistanceMode) {
	p.distanceMode = mode
}

// GetDistanceMode returns the current distance mode.
func (p *StepPlanner) GetDistanceMode() DistanceMode {
	return p.distanceMode
}

// SetLastStepRate remembers the direct-step rate for requests that omit one.
func (p *StepPlanner) SetLastStepRate(rate float64) {
	if rate > 0 {
		p.lastStepRate = rate
	}
}

// GetLastStepRate returns the remembered direct-step rate.
func (p *StepPlanner) GetLastStepRate() float64 {
	return p.lastStepRate
}

// SetLastFeedRate remembers the move feed rate for moves that omit one.
func (p *StepPlanner) SetLastFeedRate(rate float64) {
	if rate > 0 {
		p.lastFeedRate = rate
	}
}

// GetLastFeedRate returns the remembered feed rate.
func (p *StepPlanner) GetLastFeedRate() float64 {
	return p.lastFeedRate
}
