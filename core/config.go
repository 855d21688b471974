package core

import "time"

// InputMode selects how input edges reach the engine.
type InputMode uint8

const (
	// InputInterrupt expects the platform to call HandleEdge from its
	// pin-change interrupts.
	InputInterrupt InputMode = iota
	// InputPolling re-samples every input line at the start of each tick.
	InputPolling
)

func (m InputMode) String() string {
	switch m {
	case InputInterrupt:
		return "interrupt"
	case InputPolling:
		return "polling"
	}
	return "unknown"
}

// Defaults
const (
	DefaultTickPeriod      = 500 * time.Microsecond
	DefaultDebounce        = 25 * time.Millisecond
	DefaultLongPress       = 500 * time.Millisecond
	DefaultInactivityTicks = 30000
	ResetPulse             = 10 * time.Millisecond
)

// Config holds the engine timing parameters.
type Config struct {
	// TickPeriod is the cadence at which the platform calls Tick.
	// It must divide one millisecond.
	TickPeriod time.Duration

	// Debounce is how long a button must read pressed before it is confirmed.
	Debounce time.Duration

	// LongPress is how long a confirmed press must be held before it turns
	// into continuous stepping.
	LongPress time.Duration

	// InactivityTicks without a step disable the motor driver. 0 disables
	// the timeout.
	InactivityTicks uint32

	InputMode InputMode

	// Sleep blocks during Boot. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultConfig returns the configuration of the stock board
func DefaultConfig() Config {
	return Config{
		TickPeriod:      DefaultTickPeriod,
		Debounce:        DefaultDebounce,
		LongPress:       DefaultLongPress,
		InactivityTicks: DefaultInactivityTicks,
		InputMode:       InputInterrupt,
		Sleep:           time.Sleep,
	}
}

// applyDefaults fills zero durations. InactivityTicks is left alone since
// zero is meaningful.
func (c *Config) applyDefaults() {
	if c.TickPeriod == 0 {
		c.TickPeriod = DefaultTickPeriod
	}
	if c.Debounce == 0 {
		c.Debounce = DefaultDebounce
	}
	if c.LongPress == 0 {
		c.LongPress = DefaultLongPress
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.TickPeriod <= 0 || c.TickPeriod > time.Millisecond || time.Millisecond%c.TickPeriod != 0 {
		return &ConfigError{Field: "tick"}
	}
	if c.Debounce < time.Millisecond {
		return &ConfigError{Field: "debounce"}
	}
	if c.LongPress < c.Debounce || c.LongPress > time.Minute {
		return &ConfigError{Field: "longpress"}
	}
	if c.InputMode != InputInterrupt && c.InputMode != InputPolling {
		return &ConfigError{Field: "input"}
	}
	return nil
}

// ticksPerMs is the number of ticks in one millisecond
func (c *Config) ticksPerMs() uint32 {
	return uint32(time.Millisecond / c.TickPeriod)
}

func (c *Config) debounceMs() uint16 {
	return uint16(c.Debounce / time.Millisecond)
}

func (c *Config) longPressMs() uint16 {
	return uint16(c.LongPress / time.Millisecond)
}
