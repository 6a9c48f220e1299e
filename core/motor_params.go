package core

import "errors"

// ErrNoParamStore is returned by persistence operations on boards
// without a parameter store.
var ErrNoParamStore = errors.New("no parameter store fitted")

// SaveParameters writes every mutable motor parameter to the store.
func (m *Motor) SaveParameters() error {
	if m.params == nil {
		return ErrNoParamStore
	}

	values := map[string]float64{
		ParamFullStepAngle:       m.fullStepAngle,
		ParamMicrostepping:       float64(m.microstepDivisor),
		ParamReversed:            boolParam(m.Reversed()),
		ParamEnableInverted:      boolParam(m.enableInverted),
		ParamMicrostepMultiplier: m.microstepMultiplier,
	}
	if m.features.DynamicCurrent {
		values[ParamDynamicAccel] = float64(m.dynamicAccel)
		values[ParamDynamicIdle] = float64(m.dynamicIdle)
		values[ParamDynamicMax] = float64(m.dynamicMax)
	} else {
		values[ParamRMSCurrent] = float64(m.rmsCurrent)
	}

	for key, value := range values {
		if err := m.params.Save(key, value); err != nil {
			return err
		}
	}
	return nil
}

// LoadParameters applies every stored parameter through the normal
// setters, so out-of-domain values in flash are ignored the same way
// they would be from the command layer.
func (m *Motor) LoadParameters() error {
	if m.params == nil {
		return ErrNoParamStore
	}

	if v, ok := m.params.Load(ParamFullStepAngle); ok {
		m.SetFullStepAngle(v)
	}
	if v, ok := m.params.Load(ParamMicrostepping); ok {
		m.SetMicrostepping(uint16(v))
	}
	if v, ok := m.params.Load(ParamReversed); ok {
		m.SetReversed(v != 0)
	}
	if v, ok := m.params.Load(ParamEnableInverted); ok {
		m.SetEnableInversion(v != 0)
	}
	if v, ok := m.params.Load(ParamMicrostepMultiplier); ok {
		m.SetMicrostepMultiplier(v)
	}
	if m.features.DynamicCurrent {
		if v, ok := m.params.Load(ParamDynamicAccel); ok {
			m.SetDynamicAccelCurrent(uint16(v))
		}
		if v, ok := m.params.Load(ParamDynamicIdle); ok {
			m.SetDynamicIdleCurrent(uint16(v))
		}
		if v, ok := m.params.Load(ParamDynamicMax); ok {
			m.SetDynamicMaxCurrent(uint16(v))
		}
	} else if v, ok := m.params.Load(ParamRMSCurrent); ok {
		m.SetRMSCurrent(uint16(v))
	}
	return nil
}

// WipeParameters erases the store. The caller is expected to reboot
// the board afterwards; the core does not attempt to survive a wipe.
func (m *Motor) WipeParameters() error {
	if m.params == nil {
		return ErrNoParamStore
	}
	return m.params.Erase()
}

// Calibrate is the calibration placeholder: it wipes the stored
// parameters and marks the board calibrated. Real sensor and PID
// calibration is not implemented.
func (m *Motor) Calibrate() error {
	if m.params == nil {
		return ErrNoParamStore
	}
	if err := m.params.Erase(); err != nil {
		return err
	}
	return m.params.Save(ParamCalibrated, 1)
}

func boolParam(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
