//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"servostep/core"
	"servostep/gcode"
	"servostep/targets/rp2xxx"
)

// Control loop cadence. The encoder poll and PID sample share a tick.
const controlIntervalUS = 1000

var motor *core.Motor

func main() {
	// Clear any watchdog state left over from a previous reset.
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	board := core.DefaultBoardConfig()
	features := core.Features{
		DynamicCurrent:     false,
		PID:                true,
		OvertempProtection: false,
	}

	gpio := rp2xxx.NewGPIODriver()
	pwm := rp2xxx.NewPWMDriver()
	store := core.NewMemStore()

	sensor := initEncoder()
	var angleSensor core.AngleSensor
	if sensor != nil {
		angleSensor = sensor
	} else {
		// Without a shaft sensor the feedback loop has nothing to
		// close over.
		features.PID = false
	}

	motor, err = core.NewMotor(&board, features, gpio, pwm, angleSensor, store)
	if err != nil {
		fatal("motor init: " + err.Error())
	}
	motor.LoadParameters()

	var pid *core.PID
	if features.PID {
		pid = core.NewPID(motor, core.GetTime)
	}

	sched := core.NewScheduler()
	planner := core.NewStepPlanner(motor, sched)
	interp := gcode.NewInterpreter(motor, pid, planner)

	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})

	// Step pulses come in on a pin interrupt so external controllers
	// can drive the motor without going through the command stream.
	stepPin := machine.Pin(board.StepPin)
	stepPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	err = stepPin.SetInterrupt(machine.PinRising, func(machine.Pin) {
		motor.SimpleStep()
	})
	if err != nil {
		fatal("step interrupt: " + err.Error())
	}

	motor.SetState(core.StateEnabled, false)

	runLoop(sched, pid, sensor, interp)
}

// runLoop services the console, the step clock, the encoder and the
// feedback loop. It never returns.
func runLoop(sched *core.Scheduler, pid *core.PID, sensor *rp2xxx.AS5600, interp *gcode.Interpreter) {
	var line [96]byte
	n := 0
	lastControl := rp2xxx.HardwareUptimeUS()
	var residual float64

	for {
		rp2xxx.UpdateSystemTime()
		sched.Dispatch(core.GetTime())

		pollEnableInput()

		now := rp2xxx.HardwareUptimeUS()
		if now-lastControl >= controlIntervalUS {
			dt := float64(now-lastControl) / 1e6
			lastControl = now
			if sensor != nil {
				sensor.Poll(now)
			}
			if pid != nil {
				residual = applyCorrection(pid, dt, residual)
			}
		}

		for machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			if b == '\n' || b == '\r' {
				if n > 0 {
					reply := interp.Run(string(line[:n]))
					machine.Serial.Write([]byte(reply))
					machine.Serial.Write([]byte("\r\n"))
					n = 0
				}
				continue
			}
			if n < len(line) {
				line[n] = b
				n++
			}
		}
	}
}

// applyCorrection turns the PID's corrective step rate into microsteps,
// carrying the fractional remainder to the next tick. Corrections move
// the rotor without touching the desired angle.
func applyCorrection(pid *core.PID, dt, residual float64) float64 {
	rate := pid.Compute()
	residual += rate * dt
	for residual >= 1 {
		motor.Step(core.DirCounterClockwise, false, false)
		residual--
	}
	for residual <= -1 {
		motor.Step(core.DirClockwise, false, false)
		residual++
	}
	return residual
}

var lastEnableInput bool

// pollEnableInput mirrors the external enable pin into the state
// machine. Forced states win over the pin.
func pollEnableInput() {
	asserted := motor.EnablePinAsserted()
	if asserted == lastEnableInput {
		return
	}
	lastEnableInput = asserted

	switch motor.State() {
	case core.StateEnabled, core.StateDisabled:
	default:
		return
	}
	if asserted {
		motor.SetState(core.StateEnabled, false)
	} else {
		motor.SetState(core.StateDisabled, false)
	}
}

// initEncoder brings up I2C0 and checks for the AS5600. A missing or
// magnet-less encoder is not fatal, the board runs open loop.
func initEncoder() *rp2xxx.AS5600 {
	err := machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400000,
	})
	if err != nil {
		return nil
	}
	enc, err := rp2xxx.NewAS5600(machine.I2C0)
	if err != nil {
		return nil
	}
	return enc
}

func fatal(msg string) {
	for {
		machine.Serial.Write([]byte(msg))
		machine.Serial.Write([]byte("\r\n"))
		time.Sleep(time.Second)
	}
}
