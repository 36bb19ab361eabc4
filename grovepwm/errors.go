package grovepwm

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFrequency = errors.New("invalid PWM frequency")
	ErrClosed           = errors.New("driver closed")
)

// TransportError reports a failure of the underlying bus: open failure,
// NACK, arbitration loss or any other I/O error.
type TransportError struct {
	Op       string
	Register byte // 0 when the failure is not tied to a register write
	Err      error
}

func (e *TransportError) Error() string {
	if e.Register == 0 {
		return fmt.Sprintf("grovepwm: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("grovepwm: %s 0x%02x: %v", e.Op, e.Register, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
