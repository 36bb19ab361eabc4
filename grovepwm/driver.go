package grovepwm

import (
	"errors"
	"io"
	"time"

	"github.com/mdouchement/logger"
)

// Options configures a Driver. Zero values select the board defaults.
type Options struct {
	Address   uint16
	Frequency Frequency
	Logger    logger.Logger
}

// A Driver controls one Grove I2C Motor Driver (v1.3 firmware).
//
// A Driver must have a single owner: it performs no locking and a direction
// write from one goroutine could be paired with the speed write of another.
// Close must always be called, it is what stops the motors.
type Driver struct {
	bus    Bus
	addr   uint16
	log    logger.Logger
	owned  io.Closer
	closed bool
}

// Open opens the named I2C bus and initializes the board on it.
// The returned Driver owns the bus and releases it on Close.
func Open(name string, opts Options) (*Driver, error) {
	bus, err := OpenBus(name)
	if err != nil {
		return nil, err
	}

	d, err := New(bus, opts)
	if err != nil {
		return nil, errors.Join(err, bus.Close())
	}
	d.owned = bus

	return d, nil
}

// New initializes the board behind bus. It waits StartupDelay before the first
// write then selects opts.Frequency (DefaultFrequency when unset).
func New(bus Bus, opts Options) (*Driver, error) {
	if opts.Address == 0 {
		opts.Address = DefaultAddress
	}
	if opts.Frequency == 0 {
		opts.Frequency = DefaultFrequency
	}

	d := &Driver{
		bus:  bus,
		addr: opts.Address,
		log:  opts.Logger,
	}

	time.Sleep(StartupDelay) // Ensure board has initialised

	if err := d.SetFrequency(opts.Frequency); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Driver) Address() uint16 {
	return d.addr
}

// SetFrequency changes the PWM carrier frequency, shared by both channels.
func (d *Driver) SetFrequency(f Frequency) error {
	if !f.Valid() {
		return ErrInvalidFrequency
	}

	return d.write("set_frequency", registerFrequency, byte(f), framing)
}

// SetSpeed sets the speed of both channels, from -1 (full reverse) to +1 (full forward).
// Values outside that range are not rejected, they saturate at full speed.
//
// Calling SetSpeed too quickly causes I/O errors on the bus: leave about 15ms
// between calls. The exact spacing depends on the hardware and is not enforced here.
func (d *Driver) SetSpeed(speed1, speed2 float64) error {
	// Direction must be written first, otherwise the previous direction is
	// briefly applied with the new duty.
	if err := d.write("set_direction", registerDirection, Direction(speed1, speed2), framing); err != nil {
		return err
	}

	return d.write("set_speed", registerSpeed, Magnitude(speed1), Magnitude(speed2))
}

// Stop sets both channels to zero speed.
func (d *Driver) Stop() error {
	return d.SetSpeed(0, 0)
}

// Close stops the motors and releases the bus if the Driver owns it.
// The stop is best-effort: a failure is logged, never returned.
func (d *Driver) Close() error {
	if d.closed {
		return nil
	}

	if d.log != nil {
		d.log.Debug("Driver closed - stopping PWM")
	}
	if err := d.Stop(); err != nil && d.log != nil {
		d.log.WithError(err).Error("Could not stop motors")
	}
	d.closed = true

	if d.owned != nil {
		return d.owned.Close()
	}
	return nil
}

func (d *Driver) write(op string, reg register, b1, b2 byte) error {
	if d.closed {
		return ErrClosed
	}

	if d.log != nil {
		d.log.Debugf("Setting addr: 0x%02x, reg: %s, data: [%d %d]", d.addr, reg, b1, b2)
	}

	err := d.bus.WriteBlock(d.addr, byte(reg), []byte{b1, b2})
	if err != nil {
		return &TransportError{Op: op, Register: byte(reg), Err: err}
	}

	return nil
}
