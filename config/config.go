// Package config loads a YAML board profile and turns it into the
// core configuration types. Profiles live on the host side (the
// console tool and Linux targets); MCU targets compile their board
// constants in directly.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"servostep/core"
)

// PinsConfig maps the board wiring.
type PinsConfig struct {
	CoilADir1 uint32 `yaml:"coil_a_dir1"`
	CoilADir2 uint32 `yaml:"coil_a_dir2"`
	CoilAPWM  uint32 `yaml:"coil_a_pwm"`
	CoilBDir1 uint32 `yaml:"coil_b_dir1"`
	CoilBDir2 uint32 `yaml:"coil_b_dir2"`
	CoilBPWM  uint32 `yaml:"coil_b_pwm"`
	Step      uint32 `yaml:"step"`
	Direction uint32 `yaml:"direction"`
	Enable    uint32 `yaml:"enable"`
}

// BoardSection holds the electrical ratings and drive constants.
type BoardSection struct {
	MaxRMSCurrentMA    uint16  `yaml:"max_rms_current_ma"`
	MaxPeakCurrentMA   uint16  `yaml:"max_peak_current_ma"`
	PWMFreqHz          uint32  `yaml:"pwm_freq_hz"`
	PWMMaxDuty         uint32  `yaml:"pwm_max_duty"`
	SenseResistorOhms  float64 `yaml:"sense_resistor_ohms"`
	VoltageV           float64 `yaml:"voltage_v"`
	StartupAngleOffset float64 `yaml:"startup_angle_offset_deg"`
}

// FeaturesSection selects the optional behaviors.
type FeaturesSection struct {
	DynamicCurrent     bool `yaml:"dynamic_current"`
	PID                bool `yaml:"pid"`
	OvertempProtection bool `yaml:"overtemp_protection"`
}

// MotorSection holds the motor geometry and drive defaults.
type MotorSection struct {
	FullStepAngleDeg    float64 `yaml:"full_step_angle_deg"`
	Microstepping       uint16  `yaml:"microstepping"`
	MicrostepMultiplier float64 `yaml:"microstep_multiplier"`
	RMSCurrentMA        uint16  `yaml:"rms_current_ma"`
	Reversed            bool    `yaml:"reversed"`
	EnableInverted      bool    `yaml:"enable_inverted"`
}

// PIDSection holds the feedback loop tunings.
type PIDSection struct {
	P    float64 `yaml:"p"`
	I    float64 `yaml:"i"`
	D    float64 `yaml:"d"`
	MaxI float64 `yaml:"max_i"`
}

// Config aggregates a complete board profile.
type Config struct {
	Pins     PinsConfig      `yaml:"pins"`
	Board    BoardSection    `yaml:"board"`
	Features FeaturesSection `yaml:"features"`
	Motor    MotorSection    `yaml:"motor"`
	PID      PIDSection      `yaml:"pid"`
}

// Load reads a YAML profile from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML profile, fills defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills missing values from the stock board profile.
func applyDefaults(cfg *Config) {
	stock := core.DefaultBoardConfig()

	// Pin 0 is valid, so the stock wiring applies only when the whole
	// section is absent.
	if cfg.Pins == (PinsConfig{}) {
		cfg.Pins = PinsConfig{
			CoilADir1: uint32(stock.CoilADir1),
			CoilADir2: uint32(stock.CoilADir2),
			CoilAPWM:  uint32(stock.CoilAPWM),
			CoilBDir1: uint32(stock.CoilBDir1),
			CoilBDir2: uint32(stock.CoilBDir2),
			CoilBPWM:  uint32(stock.CoilBPWM),
			Step:      uint32(stock.StepPin),
			Direction: uint32(stock.DirectionPin),
			Enable:    uint32(stock.EnablePin),
		}
	}

	if cfg.Board.MaxRMSCurrentMA == 0 {
		cfg.Board.MaxRMSCurrentMA = stock.MaxRMSCurrent
	}
	if cfg.Board.MaxPeakCurrentMA == 0 {
		cfg.Board.MaxPeakCurrentMA = stock.MaxPeakCurrent
	}
	if cfg.Board.PWMFreqHz == 0 {
		cfg.Board.PWMFreqHz = stock.PWMFreqHz
	}
	if cfg.Board.PWMMaxDuty == 0 {
		cfg.Board.PWMMaxDuty = stock.PWMMaxDuty
	}
	if cfg.Board.SenseResistorOhms == 0 {
		cfg.Board.SenseResistorOhms = stock.SenseResistor
	}
	if cfg.Board.VoltageV == 0 {
		cfg.Board.VoltageV = stock.BoardVoltage
	}

	if cfg.Motor.FullStepAngleDeg == 0 {
		cfg.Motor.FullStepAngleDeg = core.DefaultFullStepAngle
	}
	if cfg.Motor.Microstepping == 0 {
		cfg.Motor.Microstepping = core.DefaultMicrostepping
	}
	if cfg.Motor.MicrostepMultiplier == 0 {
		cfg.Motor.MicrostepMultiplier = core.DefaultMicrostepMultiplier
	}
	if cfg.Motor.RMSCurrentMA == 0 {
		cfg.Motor.RMSCurrentMA = core.DefaultRMSCurrent
	}

	if cfg.PID.P == 0 && cfg.PID.I == 0 && cfg.PID.D == 0 {
		cfg.PID.P = core.DefaultPIDP
		cfg.PID.I = core.DefaultPIDI
		cfg.PID.D = core.DefaultPIDD
	}
	if cfg.PID.MaxI == 0 {
		cfg.PID.MaxI = core.DefaultPIDMaxI
	}
}

func validate(cfg *Config) error {
	if a := cfg.Motor.FullStepAngleDeg; a != 1.8 && a != 0.9 {
		return fmt.Errorf("motor.full_step_angle_deg must be 1.8 or 0.9, got %v", a)
	}

	d := cfg.Motor.Microstepping
	if d < core.MinMicrostepDivisor || d > core.MaxMicrostepDivisor || d&(d-1) != 0 {
		return fmt.Errorf("motor.microstepping must be a power of two between %d and %d, got %d",
			core.MinMicrostepDivisor, core.MaxMicrostepDivisor, d)
	}

	if cfg.Motor.MicrostepMultiplier <= 0 {
		return fmt.Errorf("motor.microstep_multiplier must be > 0, got %v", cfg.Motor.MicrostepMultiplier)
	}

	if cfg.Motor.RMSCurrentMA > cfg.Board.MaxRMSCurrentMA {
		return fmt.Errorf("motor.rms_current_ma %d exceeds board limit %d",
			cfg.Motor.RMSCurrentMA, cfg.Board.MaxRMSCurrentMA)
	}

	if cfg.PID.P < 0 || cfg.PID.I < 0 || cfg.PID.D < 0 || cfg.PID.MaxI < 0 {
		return fmt.Errorf("pid gains must not be negative")
	}

	return nil
}

// BoardConfig converts the profile into the core board description.
func (c *Config) BoardConfig() core.BoardConfig {
	return core.BoardConfig{
		CoilADir1: core.GPIOPin(c.Pins.CoilADir1),
		CoilADir2: core.GPIOPin(c.Pins.CoilADir2),
		CoilAPWM:  core.PWMPin(c.Pins.CoilAPWM),
		CoilBDir1: core.GPIOPin(c.Pins.CoilBDir1),
		CoilBDir2: core.GPIOPin(c.Pins.CoilBDir2),
		CoilBPWM:  core.PWMPin(c.Pins.CoilBPWM),

		StepPin:      core.GPIOPin(c.Pins.Step),
		DirectionPin: core.GPIOPin(c.Pins.Direction),
		EnablePin:    core.GPIOPin(c.Pins.Enable),

		MaxRMSCurrent:  c.Board.MaxRMSCurrentMA,
		MaxPeakCurrent: c.Board.MaxPeakCurrentMA,

		PWMFreqHz:  c.Board.PWMFreqHz,
		PWMMaxDuty: c.Board.PWMMaxDuty,

		SenseResistor: c.Board.SenseResistorOhms,
		BoardVoltage:  c.Board.VoltageV,

		StartupAngleOffset: c.Board.StartupAngleOffset,
	}
}

// FeatureSet converts the profile's feature switches.
func (c *Config) FeatureSet() core.Features {
	return core.Features{
		DynamicCurrent:     c.Features.DynamicCurrent,
		PID:                c.Features.PID,
		OvertempProtection: c.Features.OvertempProtection,
	}
}

// ApplyMotor pushes the motor section onto a constructed motor.
func (c *Config) ApplyMotor(m *core.Motor) {
	m.SetFullStepAngle(c.Motor.FullStepAngleDeg)
	m.SetMicrostepping(c.Motor.Microstepping)
	m.SetMicrostepMultiplier(c.Motor.MicrostepMultiplier)
	m.SetReversed(c.Motor.Reversed)
	m.SetEnableInversion(c.Motor.EnableInverted)
	m.SetRMSCurrent(c.Motor.RMSCurrentMA)
}

// ApplyPID pushes the pid section onto a controller.
func (c *Config) ApplyPID(p *core.PID) {
	p.SetTunings(c.PID.P, c.PID.I, c.PID.D)
	p.SetMaxI(c.PID.MaxI)
}
