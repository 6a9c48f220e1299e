//go:build rp2040 || rp2350

// Package rp2xxx is the RP2040/RP2350 hardware glue behind the core
// HAL interfaces: GPIO, slice-mapped PWM, the microsecond timer and
// the AS5600 shaft encoder.
package rp2xxx

import (
	"machine"

	"servostep/core"
)

// GPIODriver implements core.GPIODriver on the RP2040/RP2350 GPIO
// bank. Configured pins are tracked so reconfiguring is a no-op.
type GPIODriver struct {
	configured map[core.GPIOPin]machine.Pin
}

func NewGPIODriver() *GPIODriver {
	return &GPIODriver{
		configured: make(map[core.GPIOPin]machine.Pin),
	}
}

func (d *GPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if _, exists := d.configured[pin]; exists {
		return nil
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configured[pin] = p
	return nil
}

func (d *GPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	if _, exists := d.configured[pin]; exists {
		return nil
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.configured[pin] = p
	return nil
}

func (d *GPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, exists := d.configured[pin]
	if !exists {
		return nil
	}
	p.Set(value)
	return nil
}

func (d *GPIODriver) ReadPin(pin core.GPIOPin) bool {
	p, exists := d.configured[pin]
	if !exists {
		return false
	}
	return p.Get()
}
