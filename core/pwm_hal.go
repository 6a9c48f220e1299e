package core

// PWMPin identifies a hardware pin capable of PWM output
type PWMPin uint32

// PWMValue is the duty cycle value (0 to MaxDuty)
type PWMValue uint32

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type PWMDriver interface {
	// ConfigurePWM configures a pin for hardware PWM output at the
	// given carrier frequency, starting with the output off.
	ConfigurePWM(pin PWMPin, freqHz uint32) error

	// SetDuty sets the PWM duty cycle for a pin.
	// value: 0 (fully off) to MaxDuty() (fully on)
	SetDuty(pin PWMPin, value PWMValue) error

	// MaxDuty returns the maximum duty cycle value (e.g. 255 for 8-bit)
	MaxDuty() uint32
}
