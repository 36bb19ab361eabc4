package grovepwm

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mdouchement/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type write struct {
	addr uint16
	reg  byte
	data []byte
	at   time.Time
}

type recorder struct {
	sync.Mutex
	writes []write
	fail   map[byte]error
}

func (r *recorder) WriteBlock(addr uint16, reg byte, data []byte) error {
	r.Lock()
	defer r.Unlock()

	if err := r.fail[reg]; err != nil {
		return err
	}

	r.writes = append(r.writes, write{
		addr: addr,
		reg:  reg,
		data: append([]byte(nil), data...),
		at:   time.Now(),
	})
	return nil
}

func (r *recorder) reset() {
	r.Lock()
	defer r.Unlock()
	r.writes = nil
}

func newDriver(t *testing.T) (*Driver, *recorder) {
	t.Helper()

	bus := &recorder{}
	d, err := New(bus, Options{})
	require.NoError(t, err)
	bus.reset()

	return d, bus
}

func TestNew(t *testing.T) {
	bus := &recorder{}

	start := time.Now()
	d, err := New(bus, Options{})
	require.NoError(t, err)

	require.Len(t, bus.writes, 1)
	w := bus.writes[0]
	assert.Equal(t, DefaultAddress, w.addr)
	assert.Equal(t, byte(0x84), w.reg)
	assert.Equal(t, []byte{0x02, 0x01}, w.data)
	assert.GreaterOrEqual(t, w.at.Sub(start), StartupDelay)
	assert.Equal(t, DefaultAddress, d.Address())
}

func TestNew_Options(t *testing.T) {
	bus := &recorder{}

	d, err := New(bus, Options{Address: 0x0A, Frequency: F30Hz})
	require.NoError(t, err)

	require.Len(t, bus.writes, 1)
	assert.Equal(t, uint16(0x0A), bus.writes[0].addr)
	assert.Equal(t, []byte{0x05, 0x01}, bus.writes[0].data)
	assert.Equal(t, uint16(0x0A), d.Address())
}

func TestNew_TransportError(t *testing.T) {
	cause := errors.New("nack")
	bus := &recorder{fail: map[byte]error{0x84: cause}}

	_, err := New(bus, Options{})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "set_frequency", terr.Op)
	assert.Equal(t, byte(0x84), terr.Register)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, bus.writes)
}

func TestSetFrequency(t *testing.T) {
	d, bus := newDriver(t)

	for _, f := range Frequencies() {
		bus.reset()

		require.NoError(t, d.SetFrequency(f))
		require.Len(t, bus.writes, 1, f.String())
		assert.Equal(t, byte(0x84), bus.writes[0].reg)
		assert.Equal(t, []byte{byte(f), 1}, bus.writes[0].data)
	}
}

func TestSetFrequency_Invalid(t *testing.T) {
	d, bus := newDriver(t)

	assert.ErrorIs(t, d.SetFrequency(Frequency(0x06)), ErrInvalidFrequency)
	assert.ErrorIs(t, d.SetFrequency(Frequency(0)), ErrInvalidFrequency)
	assert.Empty(t, bus.writes)
}

func TestSetSpeed(t *testing.T) {
	tests := []struct {
		s1, s2    float64
		direction byte
		m1, m2    byte
	}{
		{s1: 0.5, s2: -0.5, direction: 6, m1: 128, m2: 128},
		{s1: -0.5, s2: 0.5, direction: 9, m1: 128, m2: 128},
		{s1: -1, s2: -1, direction: 5, m1: 255, m2: 255},
		{s1: -0.25, s2: 1, direction: 9, m1: 64, m2: 255},
		{s1: 1, s2: -0.1, direction: 6, m1: 255, m2: 26},
		{s1: 0, s2: 0, direction: 10, m1: 0, m2: 0},
		{s1: 2, s2: -3, direction: 6, m1: 255, m2: 255},
	}

	d, bus := newDriver(t)

	for _, tt := range tests {
		bus.reset()

		require.NoError(t, d.SetSpeed(tt.s1, tt.s2))
		require.Len(t, bus.writes, 2)
		assert.Equal(t, byte(0xAA), bus.writes[0].reg)
		assert.Equal(t, []byte{tt.direction, 1}, bus.writes[0].data)
		assert.Equal(t, byte(0x82), bus.writes[1].reg)
		assert.Equal(t, []byte{tt.m1, tt.m2}, bus.writes[1].data)
	}
}

func TestSetSpeed_DirectionFailure(t *testing.T) {
	d, bus := newDriver(t)
	bus.fail = map[byte]error{0xAA: errors.New("arbitration lost")}

	err := d.SetSpeed(1, 1)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, byte(0xAA), terr.Register)
	assert.Empty(t, bus.writes, "speed must not be written without its direction")
}

func TestSetSpeed_SpeedFailure(t *testing.T) {
	d, bus := newDriver(t)
	bus.fail = map[byte]error{0x82: errors.New("i/o error")}

	err := d.SetSpeed(1, 1)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "set_speed", terr.Op)
	assert.EqualError(t, err, "grovepwm: set_speed 0x82: i/o error")
}

func TestClose(t *testing.T) {
	bus := &recorder{}
	d, err := New(bus, Options{})
	require.NoError(t, err)

	require.NoError(t, d.Close())

	require.Len(t, bus.writes, 3)
	assert.Equal(t, byte(0x84), bus.writes[0].reg)
	assert.Equal(t, byte(0xAA), bus.writes[1].reg)
	assert.Equal(t, []byte{10, 1}, bus.writes[1].data)
	assert.Equal(t, byte(0x82), bus.writes[2].reg)
	assert.Equal(t, []byte{0, 0}, bus.writes[2].data)
}

func TestClose_AfterFailure(t *testing.T) {
	d, bus := newDriver(t)

	bus.fail = map[byte]error{0x82: errors.New("i/o error")}
	require.Error(t, d.SetSpeed(0.3, 0.3))

	bus.fail = nil
	bus.reset()
	require.NoError(t, d.Close())

	require.Len(t, bus.writes, 2)
	assert.Equal(t, []byte{0, 0}, bus.writes[1].data)
}

func TestClose_StopFailureIsNotReturned(t *testing.T) {
	d, bus := newDriver(t)
	bus.fail = map[byte]error{0xAA: errors.New("nack")}

	assert.NoError(t, d.Close())
}

func TestClose_StopFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.WrapSlogHandler(logger.NewSlogTextHandler(&buf, &logger.SlogTextOption{
		Level:            slog.LevelInfo,
		DisableTimestamp: true,
	}))

	bus := &recorder{}
	d, err := New(bus, Options{Logger: log})
	require.NoError(t, err)

	bus.fail = map[byte]error{0x82: errors.New("nack")}
	assert.NoError(t, d.Close())

	assert.Contains(t, buf.String(), "Could not stop motors")
	assert.Contains(t, buf.String(), "nack")
	assert.NotContains(t, buf.String(), "Setting addr", "register writes are debug")
}

func TestClose_Idempotent(t *testing.T) {
	d, bus := newDriver(t)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.Len(t, bus.writes, 2)
	assert.ErrorIs(t, d.SetSpeed(1, 1), ErrClosed)
	assert.ErrorIs(t, d.SetFrequency(F490Hz), ErrClosed)
	assert.Len(t, bus.writes, 2)
}
