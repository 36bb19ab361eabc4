package grovepwmd

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/mdouchement/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return logger.WithLogger(context.Background(), NewLogger(io.Discard, true))
}

type speedCall struct {
	speed1, speed2 float64
}

type speedRecorder struct {
	sync.Mutex
	calls []speedCall
	at    []time.Time
	fail  func(n int) error
}

func (r *speedRecorder) SetSpeed(speed1, speed2 float64) error {
	r.Lock()
	defer r.Unlock()

	r.at = append(r.at, time.Now())
	if r.fail != nil {
		if err := r.fail(len(r.calls)); err != nil {
			r.calls = append(r.calls, speedCall{}) // Counts the attempt
			return err
		}
	}

	r.calls = append(r.calls, speedCall{speed1: speed1, speed2: speed2})
	return nil
}

func TestSineSweep(t *testing.T) {
	samples := SineSweep(time.Second, 250*time.Millisecond)

	require.Len(t, samples, 4)
	expected := []float64{0, 1, 0, -1}
	for i, s := range samples {
		assert.Equal(t, time.Duration(i)*250*time.Millisecond, s.Offset)
		assert.InDelta(t, expected[i], s.Speed, 1e-9)
	}

	assert.Len(t, SineSweep(4*time.Second, DefaultSweepInterval), 267)
	assert.Len(t, SineSweep(time.Second, 0), 67) // Default interval
	assert.Nil(t, SineSweep(0, time.Millisecond))
}

func TestSineSweep_Range(t *testing.T) {
	for _, s := range SineSweep(time.Second, time.Millisecond) {
		assert.GreaterOrEqual(t, s.Speed, -1.0)
		assert.LessOrEqual(t, s.Speed, 1.0)
	}
}

func TestSweep(t *testing.T) {
	m := &speedRecorder{}

	err := Sweep(testContext(), m, 60*time.Millisecond, 5*time.Millisecond)
	require.NoError(t, err)

	require.Greater(t, len(m.calls), 2)
	for _, c := range m.calls {
		assert.Equal(t, c.speed1, c.speed2)
		assert.LessOrEqual(t, c.speed1, 1.0)
		assert.GreaterOrEqual(t, c.speed1, -1.0)
	}
	assert.Equal(t, speedCall{}, m.calls[len(m.calls)-1])
}

func TestSweep_Cancelled(t *testing.T) {
	m := &speedRecorder{}

	ctx, cancel := context.WithCancel(testContext())
	cancel()

	err := Sweep(ctx, m, 10*time.Second, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, m.calls, 2)
	assert.Equal(t, speedCall{}, m.calls[1])
	assert.GreaterOrEqual(t, m.at[1].Sub(m.at[0]), 50*time.Millisecond, "stop spaced from the last command")
}

func TestSweep_Failure(t *testing.T) {
	cause := errors.New("nack")
	m := &speedRecorder{
		fail: func(n int) error {
			if n == 0 {
				return cause
			}
			return nil
		},
	}

	err := Sweep(testContext(), m, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, err, cause)

	require.Len(t, m.calls, 2)
	assert.Equal(t, speedCall{}, m.calls[1], "motors stopped after the failure")
	assert.GreaterOrEqual(t, m.at[1].Sub(m.at[0]), 10*time.Millisecond)
}

func TestSweep_StopFailure(t *testing.T) {
	cause := errors.New("nack")
	m := &speedRecorder{
		fail: func(int) error { return cause },
	}

	err := Sweep(testContext(), m, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "stop: nack")
	assert.Len(t, m.calls, 2)
}
