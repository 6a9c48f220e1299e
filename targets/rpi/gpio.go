//go:build linux

package main

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"

	"servostep/core"
)

// rpiGPIODriver implements core.GPIODriver through go-rpio's memory
// mapped GPIO. rpio.Open must have succeeded before construction.
type rpiGPIODriver struct {
	pins map[core.GPIOPin]rpio.Pin
}

func newRPiGPIODriver() *rpiGPIODriver {
	return &rpiGPIODriver{
		pins: make(map[core.GPIOPin]rpio.Pin),
	}
}

func (d *rpiGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	p := rpio.Pin(pin)
	p.Output()
	d.pins[pin] = p
	return nil
}

func (d *rpiGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	p := rpio.Pin(pin)
	p.Input()
	p.PullUp()
	d.pins[pin] = p
	return nil
}

func (d *rpiGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.pins[pin]
	if !ok {
		return fmt.Errorf("gpio: pin %d not configured", pin)
	}
	if value {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (d *rpiGPIODriver) ReadPin(pin core.GPIOPin) bool {
	p, ok := d.pins[pin]
	if !ok {
		return false
	}
	return p.Read() == rpio.High
}

// rpiPWMDriver implements core.PWMDriver on the BCM hardware PWM
// channels (GPIO 12/13/18/19). The duty range is fixed at 8 bits to
// match the coil current math.
type rpiPWMDriver struct {
	pins map[core.PWMPin]rpio.Pin
}

func newRPiPWMDriver() *rpiPWMDriver {
	return &rpiPWMDriver{
		pins: make(map[core.PWMPin]rpio.Pin),
	}
}

func (d *rpiPWMDriver) ConfigurePWM(pin core.PWMPin, freqHz uint32) error {
	p := rpio.Pin(pin)
	p.Mode(rpio.Pwm)
	// Freq takes the counter clock; with a 256-step cycle the output
	// carrier lands on freqHz.
	p.Freq(int(freqHz) * 256)
	p.DutyCycle(0, 256)
	d.pins[pin] = p
	return nil
}

func (d *rpiPWMDriver) SetDuty(pin core.PWMPin, value core.PWMValue) error {
	p, ok := d.pins[pin]
	if !ok {
		return fmt.Errorf("pwm: pin %d not configured", pin)
	}
	if uint32(value) > d.MaxDuty() {
		value = core.PWMValue(d.MaxDuty())
	}
	p.DutyCycle(uint32(value), 256)
	return nil
}

func (d *rpiPWMDriver) MaxDuty() uint32 {
	return 255
}
