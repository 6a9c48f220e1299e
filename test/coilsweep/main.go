//go:build rp2040 || rp2350

package main

// Coil wiring bring-up. Slowly sweeps the electrical angle through a
// few full rotations at low current so each half-bridge can be checked
// on a scope: both PWM outputs should trace offset sine lobes and the
// direction pins should flip once per quarter cycle.

import (
	"machine"
	"time"

	"servostep/core"
	"servostep/targets/rp2xxx"
)

const sweepCurrentMA = 300

func main() {
	time.Sleep(3 * time.Second)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// Flash LED to indicate start
	for i := 0; i < 3; i++ {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}

	board := core.DefaultBoardConfig()
	motor, err := core.NewMotor(&board, core.Features{}, rp2xxx.NewGPIODriver(), rp2xxx.NewPWMDriver(), nil, core.NewMemStore())
	if err != nil {
		for {
			led.High()
			time.Sleep(50 * time.Millisecond)
			led.Low()
			time.Sleep(50 * time.Millisecond)
		}
	}

	motor.SetRMSCurrent(sweepCurrentMA)
	motor.SetState(core.StateEnabled, false)

	angle := 0.0
	for {
		motor.DriveCoilsAngle(angle)
		angle += motor.MicrostepAngle()
		if angle >= 720 {
			angle = 0
			led.High()
			time.Sleep(500 * time.Millisecond)
			led.Low()
		}
		time.Sleep(2 * time.Millisecond)
	}
}
