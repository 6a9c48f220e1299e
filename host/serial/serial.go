package serial

import (
	"io"
)

// Port is the serial link to the driver board. The abstraction keeps
// the console tool testable: tests substitute an in-memory
// implementation for the native one.
type Port interface {
	io.ReadWriteCloser

	// Flush drops any buffered data.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (ignored by USB CDC links)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration the board ships with.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
