package core

// BoardConfig describes the board wiring and electrical ratings. One
// instance is built at startup (from flash defaults or a host-side
// profile) and shared read-only by the drivers.
type BoardConfig struct {
	// H-bridge channel A
	CoilADir1 GPIOPin
	CoilADir2 GPIOPin
	CoilAPWM  PWMPin

	// H-bridge channel B
	CoilBDir1 GPIOPin
	CoilBDir2 GPIOPin
	CoilBPWM  PWMPin

	// Controller-facing inputs
	StepPin      GPIOPin
	DirectionPin GPIOPin
	EnablePin    GPIOPin

	// Electrical ratings (mA)
	MaxRMSCurrent  uint16
	MaxPeakCurrent uint16

	// Current-drive PWM
	PWMFreqHz  uint32
	PWMMaxDuty uint32

	// Current-sense scaling
	SenseResistor float64 // ohms
	BoardVoltage  float64 // volts

	// Encoder zero relative to the coil frame, degrees. Subtracted
	// from every sensor reading before it is compared to the tracked
	// angle.
	StartupAngleOffset float64
}

// Features selects the optional behaviors compiled into a build. They
// are runtime flags so one binary can serve several board variants.
type Features struct {
	DynamicCurrent     bool
	PID                bool
	OvertempProtection bool
}

// Motor configuration defaults, used until flash parameters are loaded.
const (
	DefaultFullStepAngle       = 1.8
	DefaultMicrostepping       = 16
	DefaultMicrostepMultiplier = 1.0
	DefaultRMSCurrent          = 700
)

// DefaultBoardConfig returns the stock board wiring.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		CoilADir1: 2,
		CoilADir2: 3,
		CoilAPWM:  4,
		CoilBDir1: 5,
		CoilBDir2: 6,
		CoilBPWM:  7,

		StepPin:      10,
		DirectionPin: 11,
		EnablePin:    12,

		MaxRMSCurrent:  2000,
		MaxPeakCurrent: 2828,

		PWMFreqHz:  50000,
		PWMMaxDuty: 255,

		SenseResistor: 0.2,
		BoardVoltage:  3.3,
	}
}
