package core

import "math"

// Stepping primitives. Step and SimpleStep run in interrupt context on
// hardware: no allocation, O(1) math, and the enable gate runs before
// any coil write.

// Step advances the motor one microstep (scaled by the multiplier when
// requested) and drives the coils to the new electrical phase.
// updateDesiredAngle also moves the angle and step targets the feedback
// loop tracks, which is how open-loop step pulses keep the closed loop
// in agreement.
func (m *Motor) Step(dir Direction, useMultiplier, updateDesiredAngle bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.canDrive() {
		return
	}

	angleChange := m.microstepAngle
	stepChange := int32(1)

	if useMultiplier {
		angleChange *= m.microstepMultiplier
		stepChange = int32(m.microstepMultiplier)
	}

	switch dir {
	case DirPin:
		angleChange *= float64(m.pinDirection() * m.reversed)
	case DirClockwise:
		angleChange = -angleChange
	case DirCounterClockwise:
		// already positive
	}

	if updateDesiredAngle {
		m.desiredAngle += angleChange
		m.desiredStep += sign(angleChange) * stepChange
	}

	m.currentAngle += angleChange
	m.currentStep += sign(angleChange) * stepChange

	m.driveCoils(m.currentStep)
}

// SimpleStep is the step-pulse ISR path: direction always comes from
// the physical pin and the desired angle is left alone.
func (m *Motor) SimpleStep() {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.canDrive() {
		return
	}

	m.currentStep += m.pinDirection() * m.reversed * int32(m.microstepMultiplier)
	m.currentAngle += float64(m.pinDirection()*m.reversed) * m.microstepAngle * m.microstepMultiplier

	m.driveCoils(m.currentStep)
}

// pinDirection reads the direction input pin as a step sign.
func (m *Motor) pinDirection() int32 {
	if m.gpio.ReadPin(m.board.DirectionPin) {
		return 1
	}
	return -1
}

// DriveCoils holds the motor at the given step number.
func (m *Motor) DriveCoils(steps int32) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.driveCoils(steps)
}

// driveCoils reduces the step count to one electrical cycle, looks up
// the sine/cosine drive ratios and energizes both channels. The sign of
// each ratio picks the bridge direction; a zero ratio brakes the coil.
func (m *Motor) driveCoils(steps int32) {
	steps %= 4 * int32(m.microstepDivisor)

	idx := steps * m.sineIndexScale
	coilARatio := int32(Sin(idx))
	coilBRatio := int32(Cos(idx))

	current := int32(m.scaledCurrent())
	coilAPower := current * coilARatio / int32(SineMax)
	coilBPower := current * coilBRatio / int32(SineMax)

	m.energize(CoilA, coilAPower)
	m.energize(CoilB, coilBPower)
}

// energize translates a signed coil power into a drive state.
func (m *Motor) energize(channel CoilChannel, power int32) {
	switch {
	case power > 0:
		m.coils.SetCoil(channel, CoilForward, uint16(power))
	case power < 0:
		m.coils.SetCoil(channel, CoilBackward, uint16(-power))
	default:
		m.coils.SetCoil(channel, CoilBrake, 0)
	}
}

// scaledCurrent returns the peak drive current in mA for this cycle:
// the static peak limit, or the acceleration-scaled value in dynamic
// mode, capped by the dynamic ceiling when one is set and by the board
// peak rating always.
func (m *Motor) scaledCurrent() uint16 {
	if !m.features.DynamicCurrent {
		return m.peakCurrent
	}

	var accel float64
	if m.sensor != nil {
		accel = math.Abs(m.sensor.Acceleration())
	}
	current := (accel*float64(m.dynamicAccel) + float64(m.dynamicIdle)) * math.Sqrt2
	if m.dynamicMax > 0 && current > float64(m.dynamicMax) {
		current = float64(m.dynamicMax)
	}
	// The board rating bounds the drive even when no dynamic ceiling is set.
	if current > float64(m.board.MaxPeakCurrent) {
		current = float64(m.board.MaxPeakCurrent)
	}
	return uint16(current)
}

// DriveCoilsAngle holds the motor at the given shaft angle in degrees.
// The angle is first folded into [0,360): a single round-based
// correction handles arbitrarily large inputs, and the iterative
// fallback catches values the rounding leaves marginally outside the
// range. The folded angle is then rounded to the nearest whole
// microstep so the drive lands on a defined table entry.
func (m *Motor) DriveCoilsAngle(degrees float64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.driveCoilsAngle(degrees)
}

func (m *Motor) driveCoilsAngle(degrees float64) {
	if degrees < 0 {
		degrees += math.Round(math.Abs(degrees)/360) * 360
	} else if degrees > 360 {
		degrees -= math.Round(degrees/360) * 360
	}

	for degrees < 0 || degrees > 360 {
		if degrees < 0 {
			degrees += 360
		} else {
			degrees -= 360
		}
	}

	microsteps := (degrees / m.fullStepAngle) * float64(m.microstepDivisor)
	m.driveCoils(int32(math.Round(microsteps)))
}
