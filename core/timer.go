package core

// TimerFreq is the system tick rate used for step timing.
const TimerFreq = 12000000 // 12MHz

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerFromHz converts an event rate to the tick interval between
// events. Rates at or below zero yield 0.
func TimerFromHz(rate float64) uint32 {
	if rate <= 0 {
		return 0
	}
	return uint32(TimerFreq / rate)
}
