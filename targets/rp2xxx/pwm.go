//go:build rp2040 || rp2350

package rp2xxx

import (
	"errors"
	"machine"

	"servostep/core"
)

// pwmPeripheral abstracts one RP2040 PWM slice. machine.PWM0..PWM7 all
// satisfy it; keeping the interface lets us index slices by number.
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Set(channel uint8, value uint32)
	Top() uint32
}

var pwmSlices = [8]pwmPeripheral{
	machine.PWM0, machine.PWM1, machine.PWM2, machine.PWM3,
	machine.PWM4, machine.PWM5, machine.PWM6, machine.PWM7,
}

var errNoPWMSlice = errors.New("pwm: pin has no slice")

type pwmChannel struct {
	slice   pwmPeripheral
	channel uint8
}

// PWMDriver implements core.PWMDriver on the RP2040 PWM block. Each
// GPIO maps to slice (pin>>1)&7, channel A or B by pin parity.
type PWMDriver struct {
	channels map[core.PWMPin]pwmChannel
}

func NewPWMDriver() *PWMDriver {
	return &PWMDriver{
		channels: make(map[core.PWMPin]pwmChannel),
	}
}

func (d *PWMDriver) ConfigurePWM(pin core.PWMPin, freqHz uint32) error {
	if _, exists := d.channels[pin]; exists {
		return nil
	}
	p := machine.Pin(pin)
	slice := pwmSlices[(uint32(p)>>1)&7]
	if slice == nil {
		return errNoPWMSlice
	}
	err := slice.Configure(machine.PWMConfig{
		Period: uint64(1e9) / uint64(freqHz),
	})
	if err != nil {
		return err
	}
	channel, err := slice.Channel(p)
	if err != nil {
		return err
	}
	slice.Set(channel, 0)
	d.channels[pin] = pwmChannel{slice: slice, channel: channel}
	return nil
}

func (d *PWMDriver) SetDuty(pin core.PWMPin, value core.PWMValue) error {
	ch, exists := d.channels[pin]
	if !exists {
		return errNoPWMSlice
	}
	if uint32(value) > d.MaxDuty() {
		value = core.PWMValue(d.MaxDuty())
	}
	// Scale the 8-bit duty onto the slice counter range.
	ch.slice.Set(ch.channel, uint32(value)*ch.slice.Top()/d.MaxDuty())
	return nil
}

func (d *PWMDriver) MaxDuty() uint32 {
	return 255
}
