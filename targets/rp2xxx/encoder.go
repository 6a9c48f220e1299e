//go:build rp2040 || rp2350

package rp2xxx

import (
	"errors"
	"machine"
)

// AS5600 magnetic rotary encoder, 12-bit, on I2C address 0x36.
const (
	as5600Addr     = 0x36
	as5600RawAngle = 0x0C // 12-bit raw angle, high byte first
	as5600Status   = 0x0B
	as5600Counts   = 4096
)

// Status register bits.
const (
	as5600MagnetDetected = 1 << 5
)

var errNoMagnet = errors.New("as5600: magnet not detected")

// AS5600 tracks the shaft angle across full turns and estimates
// velocity and acceleration from successive polls. It implements
// core.AngleSensor; Poll must be called from the control loop, reads
// happen on the same goroutine.
type AS5600 struct {
	bus *machine.I2C
	buf [2]byte

	lastRaw    uint16
	turns      int32
	angle      float64
	velocity   float64
	accel      float64
	lastPollUS uint64
	primed     bool
}

// NewAS5600 checks the encoder and fails when no magnet is in range.
func NewAS5600(bus *machine.I2C) (*AS5600, error) {
	e := &AS5600{bus: bus}
	status, err := e.readStatus()
	if err != nil {
		return nil, err
	}
	if status&as5600MagnetDetected == 0 {
		return nil, errNoMagnet
	}
	return e, nil
}

func (e *AS5600) readStatus() (byte, error) {
	err := e.bus.Tx(as5600Addr, []byte{as5600Status}, e.buf[:1])
	if err != nil {
		return 0, err
	}
	return e.buf[0], nil
}

func (e *AS5600) readRaw() (uint16, error) {
	err := e.bus.Tx(as5600Addr, []byte{as5600RawAngle}, e.buf[:2])
	if err != nil {
		return 0, err
	}
	return uint16(e.buf[0]&0x0F)<<8 | uint16(e.buf[1]), nil
}

// Poll samples the encoder and updates the accumulated angle. nowUS is
// the 64-bit hardware uptime so sample intervals never wrap.
func (e *AS5600) Poll(nowUS uint64) error {
	raw, err := e.readRaw()
	if err != nil {
		return err
	}

	if !e.primed {
		e.lastRaw = raw
		e.lastPollUS = nowUS
		e.angle = float64(raw) * 360.0 / as5600Counts
		e.primed = true
		return nil
	}

	// Unwrap: a jump of more than half a turn between polls means the
	// 12-bit counter wrapped.
	delta := int32(raw) - int32(e.lastRaw)
	if delta > as5600Counts/2 {
		e.turns--
	} else if delta < -as5600Counts/2 {
		e.turns++
	}
	e.lastRaw = raw

	angle := (float64(e.turns)*as5600Counts + float64(raw)) * 360.0 / as5600Counts

	dtUS := nowUS - e.lastPollUS
	if dtUS > 0 {
		dt := float64(dtUS) / 1e6
		velocity := (angle - e.angle) / dt
		e.accel = (velocity - e.velocity) / dt
		e.velocity = velocity
		e.lastPollUS = nowUS
	}
	e.angle = angle
	return nil
}

func (e *AS5600) Angle() float64 {
	return e.angle
}

func (e *AS5600) Velocity() float64 {
	return e.velocity
}

func (e *AS5600) Acceleration() float64 {
	return e.accel
}
