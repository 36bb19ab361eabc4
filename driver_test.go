package grovepwmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDriver_Dummy(t *testing.T) {
	var buf bytes.Buffer

	d, err := OpenDriver(Default(), true, NewLogger(&buf, false))
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, uint16(0x0F), d.Address())
	assert.Contains(t, buf.String(), "Using dummy I2C bus `x-testing`")
	assert.NotContains(t, buf.String(), "[dummy]")
}

func TestOpenDriver_LogsStopFailure(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	require.False(t, cfg.Debug)

	bus := NewDummyBus()
	d, err := newDriver(cfg, bus, NewLogger(&buf, cfg.Debug))
	require.NoError(t, err)

	bus.Fail(errors.New("nack"))
	assert.NoError(t, d.Close())

	assert.Contains(t, buf.String(), "Could not stop motors")
	assert.Contains(t, buf.String(), "nack")
	assert.NotContains(t, buf.String(), "Setting addr")
}

func TestDummyBus_Fail(t *testing.T) {
	bus := NewDummyBus()
	cause := errors.New("nack")

	bus.Fail(cause)
	assert.ErrorIs(t, bus.WriteBlock(0x0F, 0x82, []byte{0, 0}), cause)
	assert.Empty(t, bus.Writes())

	bus.Fail(nil)
	require.NoError(t, bus.WriteBlock(0x0F, 0x82, []byte{1, 2}))
	assert.Equal(t, []DummyWrite{{Addr: 0x0F, Register: 0x82, Data: []byte{1, 2}}}, bus.Writes())
}
