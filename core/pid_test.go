package core

import "testing"

// fakeClock is a tick source the tests advance by hand.
type fakeClock struct {
	ticks uint32
}

func (c *fakeClock) now() uint32 { return c.ticks }

func (c *fakeClock) advanceSeconds(s float64) {
	c.ticks += uint32(s * TimerFreq)
}

func newPIDRig(t *testing.T) (*testRig, *PID, *fakeClock) {
	t.Helper()
	rig := newTestRig(Features{PID: true}, true)
	clock := &fakeClock{}
	return rig, NewPID(rig.motor, clock.now), clock
}

func TestPIDDefaults(t *testing.T) {
	_, pid, _ := newPIDRig(t)

	if pid.P() != DefaultPIDP || pid.I() != DefaultPIDI || pid.D() != DefaultPIDD {
		t.Errorf("gains = %v/%v/%v, want defaults", pid.P(), pid.I(), pid.D())
	}
	if pid.MaxI() != DefaultPIDMaxI {
		t.Errorf("MaxI() = %v, want %v", pid.MaxI(), DefaultPIDMaxI)
	}
}

func TestPIDNoSensorReturnsZero(t *testing.T) {
	rig := newTestRig(Features{PID: true}, false)
	clock := &fakeClock{}
	pid := NewPID(rig.motor, clock.now)

	clock.advanceSeconds(1)
	if got := pid.Compute(); got != 0 {
		t.Errorf("Compute() = %v, want 0 without a sensor", got)
	}
}

func TestPIDProportionalResponse(t *testing.T) {
	rig, pid, clock := newPIDRig(t)
	pid.SetTunings(2, 0, 0)

	rig.motor.SetDesiredAngle(10)
	rig.sensor.angle = 0

	clock.advanceSeconds(1)
	if got := pid.Compute(); got != 20 {
		t.Errorf("Compute() = %v, want 20 for P=2, err=10", got)
	}

	// Same tick: the previous output is returned without resampling.
	rig.sensor.angle = 5
	if got := pid.Compute(); got != 20 {
		t.Errorf("Compute() at the same tick = %v, want cached 20", got)
	}
}

func TestPIDIntegralAccumulatesAndClamps(t *testing.T) {
	rig, pid, clock := newPIDRig(t)
	pid.SetTunings(0, 1, 0)
	pid.SetMaxI(5)

	rig.motor.SetDesiredAngle(2)
	rig.sensor.angle = 0

	clock.advanceSeconds(1)
	if got := pid.Compute(); got != 2 {
		t.Fatalf("first Compute() = %v, want 2", got)
	}
	clock.advanceSeconds(1)
	if got := pid.Compute(); got != 4 {
		t.Fatalf("second Compute() = %v, want 4", got)
	}

	// Two more seconds would integrate to 8 but the clamp holds it at 5.
	clock.advanceSeconds(1)
	pid.Compute()
	clock.advanceSeconds(1)
	if got := pid.Compute(); got != 5 {
		t.Errorf("clamped Compute() = %v, want 5", got)
	}

	// Tightening the clamp pulls the stored integral down with it.
	pid.SetMaxI(1)
	rig.motor.SetDesiredAngle(0)
	clock.advanceSeconds(1)
	if got := pid.Compute(); got != 1 {
		t.Errorf("Compute() after SetMaxI(1) = %v, want 1", got)
	}
}

func TestPIDDerivativeOnMeasurement(t *testing.T) {
	rig, pid, clock := newPIDRig(t)
	pid.SetTunings(0, 0, 2)

	rig.sensor.angle = 0
	clock.advanceSeconds(1)
	pid.Compute() // primes lastInput

	// A setpoint jump alone produces no derivative kick.
	rig.motor.SetDesiredAngle(100)
	clock.advanceSeconds(1)
	if got := pid.Compute(); got != 0 {
		t.Errorf("Compute() after setpoint jump = %v, want 0", got)
	}

	// A measurement change does.
	rig.sensor.angle = 3
	clock.advanceSeconds(1)
	if got := pid.Compute(); got != -6 {
		t.Errorf("Compute() = %v, want -6 for D=2, dInput=3/s", got)
	}
}

func TestPIDOutputLimits(t *testing.T) {
	rig, pid, clock := newPIDRig(t)
	pid.SetTunings(100, 0, 0)
	pid.SetOutputLimits(-50, 50)

	rig.motor.SetDesiredAngle(10)
	rig.sensor.angle = 0
	clock.advanceSeconds(1)
	if got := pid.Compute(); got != 50 {
		t.Errorf("Compute() = %v, want clamp at 50", got)
	}

	rig.motor.SetDesiredAngle(-10)
	clock.advanceSeconds(1)
	if got := pid.Compute(); got != -50 {
		t.Errorf("Compute() = %v, want clamp at -50", got)
	}

	// Inverted limits are refused.
	pid.SetOutputLimits(10, -10)
	clock.advanceSeconds(1)
	if got := pid.Compute(); got != -50 {
		t.Errorf("Compute() = %v, want -50 with limits unchanged", got)
	}
}

func TestPIDRejectsNegativeGains(t *testing.T) {
	_, pid, _ := newPIDRig(t)

	pid.SetTunings(-1, 2, 3)
	if pid.P() != DefaultPIDP || pid.I() != DefaultPIDI || pid.D() != DefaultPIDD {
		t.Errorf("negative tuning set was applied")
	}

	pid.SetP(7)
	if pid.P() != 7 || pid.I() != DefaultPIDI {
		t.Errorf("SetP(7) gains = %v/%v, want 7/%v", pid.P(), pid.I(), DefaultPIDI)
	}
	pid.SetMaxI(-1)
	if pid.MaxI() != DefaultPIDMaxI {
		t.Errorf("negative MaxI was applied")
	}
}
