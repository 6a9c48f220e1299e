package core

import (
	"errors"
	"testing"
)

func TestSaveAndLoadParameters(t *testing.T) {
	rig := newTestRig(Features{}, false)
	rig.motor.SetFullStepAngle(0.9)
	rig.motor.SetMicrostepping(8)
	rig.motor.SetReversed(true)
	rig.motor.SetEnableInversion(true)
	rig.motor.SetMicrostepMultiplier(2)
	rig.motor.SetRMSCurrent(1200)

	if err := rig.motor.SaveParameters(); err != nil {
		t.Fatalf("SaveParameters: %v", err)
	}

	// A fresh motor on the same store picks the configuration back up.
	fresh, err := NewMotor(&rig.board, Features{}, newMockGPIO(), newMockPWM(), nil, rig.store)
	if err != nil {
		t.Fatalf("NewMotor: %v", err)
	}
	if err := fresh.LoadParameters(); err != nil {
		t.Fatalf("LoadParameters: %v", err)
	}

	if got := fresh.FullStepAngle(); got != 0.9 {
		t.Errorf("FullStepAngle() = %v, want 0.9", got)
	}
	if got := fresh.Microstepping(); got != 8 {
		t.Errorf("Microstepping() = %d, want 8", got)
	}
	if !fresh.Reversed() {
		t.Errorf("Reversed() = false, want true")
	}
	if !fresh.EnableInversion() {
		t.Errorf("EnableInversion() = false, want true")
	}
	if got := fresh.MicrostepMultiplier(); got != 2 {
		t.Errorf("MicrostepMultiplier() = %v, want 2", got)
	}
	if got := fresh.RMSCurrent(); got != 1200 {
		t.Errorf("RMSCurrent() = %d, want 1200", got)
	}
}

func TestLoadIgnoresOutOfDomainValues(t *testing.T) {
	rig := newTestRig(Features{}, false)
	rig.store.Save(ParamMicrostepping, 5)
	rig.store.Save(ParamFullStepAngle, 2.5)
	rig.store.Save(ParamMicrostepMultiplier, -1)

	if err := rig.motor.LoadParameters(); err != nil {
		t.Fatalf("LoadParameters: %v", err)
	}

	if got := rig.motor.Microstepping(); got != DefaultMicrostepping {
		t.Errorf("Microstepping() = %d, want default after bad flash value", got)
	}
	if got := rig.motor.FullStepAngle(); got != DefaultFullStepAngle {
		t.Errorf("FullStepAngle() = %v, want default after bad flash value", got)
	}
	if got := rig.motor.MicrostepMultiplier(); got != DefaultMicrostepMultiplier {
		t.Errorf("MicrostepMultiplier() = %v, want default after bad flash value", got)
	}
}

func TestDynamicCurrentPersistence(t *testing.T) {
	rig := newTestRig(Features{DynamicCurrent: true}, false)
	rig.motor.SetDynamicAccelCurrent(12)
	rig.motor.SetDynamicIdleCurrent(300)
	rig.motor.SetDynamicMaxCurrent(1500)

	if err := rig.motor.SaveParameters(); err != nil {
		t.Fatalf("SaveParameters: %v", err)
	}
	if _, ok := rig.store.Load(ParamRMSCurrent); ok {
		t.Errorf("static current key saved on a dynamic build")
	}

	fresh, err := NewMotor(&rig.board, Features{DynamicCurrent: true}, newMockGPIO(), newMockPWM(), nil, rig.store)
	if err != nil {
		t.Fatalf("NewMotor: %v", err)
	}
	if err := fresh.LoadParameters(); err != nil {
		t.Fatalf("LoadParameters: %v", err)
	}

	if fresh.DynamicAccelCurrent() != 12 || fresh.DynamicIdleCurrent() != 300 || fresh.DynamicMaxCurrent() != 1500 {
		t.Errorf("dynamic factors = %d/%d/%d, want 12/300/1500",
			fresh.DynamicAccelCurrent(), fresh.DynamicIdleCurrent(), fresh.DynamicMaxCurrent())
	}
}

func TestParameterOpsWithoutStore(t *testing.T) {
	board := DefaultBoardConfig()
	motor, err := NewMotor(&board, Features{}, newMockGPIO(), newMockPWM(), nil, nil)
	if err != nil {
		t.Fatalf("NewMotor: %v", err)
	}

	if err := motor.SaveParameters(); !errors.Is(err, ErrNoParamStore) {
		t.Errorf("SaveParameters err = %v, want ErrNoParamStore", err)
	}
	if err := motor.LoadParameters(); !errors.Is(err, ErrNoParamStore) {
		t.Errorf("LoadParameters err = %v, want ErrNoParamStore", err)
	}
	if err := motor.WipeParameters(); !errors.Is(err, ErrNoParamStore) {
		t.Errorf("WipeParameters err = %v, want ErrNoParamStore", err)
	}
	if err := motor.Calibrate(); !errors.Is(err, ErrNoParamStore) {
		t.Errorf("Calibrate err = %v, want ErrNoParamStore", err)
	}
}

func TestWipeAndCalibrate(t *testing.T) {
	rig := newTestRig(Features{}, false)
	if err := rig.motor.SaveParameters(); err != nil {
		t.Fatalf("SaveParameters: %v", err)
	}

	if err := rig.motor.WipeParameters(); err != nil {
		t.Fatalf("WipeParameters: %v", err)
	}
	if _, ok := rig.store.Load(ParamMicrostepping); ok {
		t.Errorf("store not empty after wipe")
	}

	if err := rig.motor.Calibrate(); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if v, ok := rig.store.Load(ParamCalibrated); !ok || v != 1 {
		t.Errorf("calibrated flag = %v/%v, want 1/true", v, ok)
	}
}
