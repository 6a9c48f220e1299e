package core

import (
	"errors"
	"testing"
)

func newPlannerRig(t *testing.T) (*testRig, *StepPlanner, *Scheduler) {
	t.Helper()
	rig := enabledRig(t, Features{}, false)
	sched := NewScheduler()
	SetTime(0)
	return rig, NewStepPlanner(rig.motor, sched), sched
}

func TestScheduleStepsRunsToCompletion(t *testing.T) {
	rig, planner, sched := newPlannerRig(t)

	// 12kHz at a 12MHz tick clock is one step per 1000 ticks.
	if err := planner.ScheduleSteps(3, 12000, DirCounterClockwise); err != nil {
		t.Fatalf("ScheduleSteps: %v", err)
	}
	if !planner.Active() {
		t.Fatalf("planner not active after scheduling")
	}

	sched.Dispatch(1000)
	if got := rig.motor.CurrentStep(); got != 1 {
		t.Fatalf("CurrentStep() = %d after first event, want 1", got)
	}
	if got := planner.Remaining(); got != 2 {
		t.Errorf("Remaining() = %d, want 2", got)
	}

	sched.Dispatch(10000)
	if got := rig.motor.CurrentStep(); got != 3 {
		t.Errorf("CurrentStep() = %d, want 3", got)
	}
	if planner.Active() || planner.Remaining() != 0 {
		t.Errorf("planner still active after completion")
	}
	if sched.Pending() {
		t.Errorf("timer still scheduled after completion")
	}
}

func TestScheduleStepsClockwise(t *testing.T) {
	rig, planner, sched := newPlannerRig(t)

	if err := planner.ScheduleSteps(2, 12000, DirClockwise); err != nil {
		t.Fatalf("ScheduleSteps: %v", err)
	}
	sched.Dispatch(10000)

	if got := rig.motor.CurrentStep(); got != -2 {
		t.Errorf("CurrentStep() = %d, want -2", got)
	}
	want := -2 * rig.motor.MicrostepAngle()
	if got := rig.motor.DesiredAngle(); got != want {
		t.Errorf("DesiredAngle() = %v, want %v", got, want)
	}
}

func TestScheduleStepsValidation(t *testing.T) {
	_, planner, _ := newPlannerRig(t)

	if err := planner.ScheduleSteps(0, 100, DirClockwise); !errors.Is(err, ErrBadStepRequest) {
		t.Errorf("zero count: err = %v, want ErrBadStepRequest", err)
	}
	if err := planner.ScheduleSteps(10, 0, DirClockwise); !errors.Is(err, ErrBadStepRequest) {
		t.Errorf("zero rate: err = %v, want ErrBadStepRequest", err)
	}
	if err := planner.ScheduleSteps(-3, 100, DirClockwise); !errors.Is(err, ErrBadStepRequest) {
		t.Errorf("negative count: err = %v, want ErrBadStepRequest", err)
	}

	if err := planner.ScheduleSteps(10, 12000, DirClockwise); err != nil {
		t.Fatalf("ScheduleSteps: %v", err)
	}
	if err := planner.ScheduleSteps(10, 12000, DirClockwise); !errors.Is(err, ErrStepJobActive) {
		t.Errorf("second request: err = %v, want ErrStepJobActive", err)
	}
}

func TestDisableDropsRemainingSteps(t *testing.T) {
	rig, planner, sched := newPlannerRig(t)

	if err := planner.ScheduleSteps(5, 12000, DirCounterClockwise); err != nil {
		t.Fatalf("ScheduleSteps: %v", err)
	}
	sched.Dispatch(1000)
	if got := rig.motor.CurrentStep(); got != 1 {
		t.Fatalf("CurrentStep() = %d, want 1", got)
	}

	rig.motor.SetState(StateDisabled, false)
	sched.Dispatch(100000)

	if got := rig.motor.CurrentStep(); got != 1 {
		t.Errorf("CurrentStep() = %d after disable, want 1", got)
	}
	if planner.Active() || planner.Remaining() != 0 {
		t.Errorf("planner still holds steps after disable")
	}
}

func TestPlannerCancel(t *testing.T) {
	rig, planner, sched := newPlannerRig(t)

	if err := planner.ScheduleSteps(5, 12000, DirCounterClockwise); err != nil {
		t.Fatalf("ScheduleSteps: %v", err)
	}
	planner.Cancel()
	sched.Dispatch(100000)

	if got := rig.motor.CurrentStep(); got != 0 {
		t.Errorf("CurrentStep() = %d after cancel, want 0", got)
	}
	if planner.Active() || sched.Pending() {
		t.Errorf("cancelled request still pending")
	}

	// The planner accepts a new request after cancelling.
	if err := planner.ScheduleSteps(1, 12000, DirCounterClockwise); err != nil {
		t.Errorf("ScheduleSteps after cancel: %v", err)
	}
}

func TestPlannerStickyMoveParameters(t *testing.T) {
	_, planner, _ := newPlannerRig(t)

	if got := planner.GetDistanceMode(); got != DistanceAbsolute {
		t.Errorf("default distance mode = %d, want absolute", got)
	}
	planner.SetDistanceMode(DistanceIncremental)
	if got := planner.GetDistanceMode(); got != DistanceIncremental {
		t.Errorf("distance mode = %d, want incremental", got)
	}

	planner.SetLastStepRate(2500)
	planner.SetLastStepRate(-1)
	if got := planner.GetLastStepRate(); got != 2500 {
		t.Errorf("GetLastStepRate() = %v, want 2500", got)
	}

	planner.SetLastFeedRate(600)
	planner.SetLastFeedRate(0)
	if got := planner.GetLastFeedRate(); got != 600 {
		t.Errorf("GetLastFeedRate() = %v, want 600", got)
	}
}
