// Package serial opens the console port the pump simulator is driven
// through when it is not attached to a terminal.
package serial

import (
	"io"
	"time"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate
	Baud int

	// ReadTimeout bounds a single read (0 = blocking). The console reads
	// whole lines, so it runs with blocking reads.
	ReadTimeout time.Duration
}

// DefaultConfig returns the console settings of the pump board
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   115200,
	}
}
