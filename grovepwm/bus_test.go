package grovepwm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestSMBus_WriteBlock(t *testing.T) {
	rec := &i2ctest.Record{}
	bus := NewSMBus(rec)

	require.NoError(t, bus.WriteBlock(0x0F, 0x82, []byte{12, 34}))
	require.NoError(t, bus.WriteBlock(0x0E, 0xAA, []byte{5, 1}))

	assert.Equal(t, []i2ctest.IO{
		{Addr: 0x0F, W: []byte{0x82, 12, 34}},
		{Addr: 0x0E, W: []byte{0xAA, 5, 1}},
	}, rec.Ops)
	assert.NoError(t, bus.Close())
	assert.Equal(t, "record", bus.String())
}

func TestSMBus_Driver(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x0F, W: []byte{0x84, 0x03, 0x01}},
			{Addr: 0x0F, W: []byte{0xAA, 0x06, 0x01}},
			{Addr: 0x0F, W: []byte{0x82, 128, 128}},
			{Addr: 0x0F, W: []byte{0xAA, 0x0A, 0x01}},
			{Addr: 0x0F, W: []byte{0x82, 0, 0}},
		},
		DontPanic: true,
	}

	d, err := New(NewSMBus(pb), Options{Frequency: F490Hz})
	require.NoError(t, err)

	require.NoError(t, d.SetSpeed(0.5, -0.5))
	require.NoError(t, d.Close())
	assert.NoError(t, pb.Close())
}

func TestSMBus_DriverTransportError(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x0F, W: []byte{0x84, 0x02, 0x01}},
		},
		DontPanic: true,
	}

	d, err := New(NewSMBus(pb), Options{})
	require.NoError(t, err)

	err = d.SetSpeed(1, 1) // Playback exhausted, the Tx fails.
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, byte(0xAA), terr.Register)
}
