package grovepwm

import (
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// A Bus writes a block of bytes to a register of the device at addr.
// The write is synchronous and must either complete or fail.
type Bus interface {
	WriteBlock(addr uint16, reg byte, data []byte) error
}

// SMBus is a Bus backed by a periph.io I2C bus.
type SMBus struct {
	bus   i2c.Bus
	close func() error
	wbuf  []byte
}

// NewSMBus wraps an already opened I2C bus. The caller keeps ownership of b.
func NewSMBus(b i2c.Bus) *SMBus {
	return &SMBus{
		bus:   b,
		close: func() error { return nil },
		wbuf:  make([]byte, 0, 8),
	}
}

// OpenBus initializes the host drivers and opens the I2C bus by name
// (e.g. "1" or "/dev/i2c-1"). An empty name opens the first available bus.
func OpenBus(name string) (*SMBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}

	b, err := i2creg.Open(name)
	if err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}

	s := NewSMBus(b)
	s.close = b.Close
	return s, nil
}

func (s *SMBus) String() string {
	return s.bus.String()
}

// WriteBlock issues a single I2C write of reg followed by data, the same
// transaction as an SMBus "write I2C block data".
func (s *SMBus) WriteBlock(addr uint16, reg byte, data []byte) error {
	s.wbuf = append(s.wbuf[:0], reg)
	s.wbuf = append(s.wbuf, data...)
	return s.bus.Tx(addr, s.wbuf, nil)
}

// Close releases the underlying bus when it was opened by OpenBus.
func (s *SMBus) Close() error {
	return s.close()
}
