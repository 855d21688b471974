package core

import "errors"

// Register access errors. Dispatch wraps them in a *RegisterError.
var (
	ErrInvalidAddress  = errors.New("invalid register address")
	ErrTypeMismatch    = errors.New("register type mismatch")
	ErrCountMismatch   = errors.New("register element count mismatch")
	ErrReadOnly        = errors.New("register is read-only")
	ErrOutOfRange      = errors.New("value out of range")
	ErrBusy            = errors.New("protocol running")
	ErrUnsupported     = errors.New("unsupported protocol type")
	ErrExternalControl = errors.New("motor under external control")
	ErrFaulted         = errors.New("device faulted")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// RegisterError reports a rejected register access.
type RegisterError struct {
	Address Address
	Op      string // "read" or "write"
	Err     error
}

func (e *RegisterError) Error() string {
	name := e.Address.String()
	return e.Op + " " + name + ": " + e.Err.Error()
}

func (e *RegisterError) Unwrap() error {
	return e.Err
}

// ConfigError names the configuration field that failed validation.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return ErrInvalidConfig.Error() + ": " + e.Field
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// LineError reports a line the driver refused to configure.
type LineError struct {
	Line Line
	Err  error
}

func (e *LineError) Error() string {
	return "configure " + e.Line.String() + ": " + e.Err.Error()
}

func (e *LineError) Unwrap() error {
	return e.Err
}
