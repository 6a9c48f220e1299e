//go:build rp2040 || rp2350

package rp2xxx

import (
	"runtime/volatile"
	"unsafe"

	"servostep/core"
)

// RP2040/RP2350 timer peripheral memory map.
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // raw timer high word
	timerTIMERAWL = timerBase + 0x0C // raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// HardwareTimeUS reads the low 32 bits of the 1MHz hardware timer.
func HardwareTimeUS() uint32 {
	return timerRAWL.Get()
}

// HardwareUptimeUS reads the full 64-bit hardware timer. The high word
// is read twice to detect a rollover during the read.
func HardwareUptimeUS() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UpdateSystemTime feeds the hardware timer into the step clock.
// The 1MHz microsecond counter is scaled to the 12MHz tick rate;
// the scaling distributes over the uint32 wrap, so wrapped values
// stay consistent for the scheduler's comparisons.
func UpdateSystemTime() {
	core.SetTime(HardwareTimeUS() * (core.TimerFreq / 1000000))
}
