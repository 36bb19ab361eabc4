package grovepwmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mdouchement/logger"
)

type Sample struct {
	Offset time.Duration
	Speed  float64
}

// SineSpeed returns the speed of a single sine period of length duration at elapsed.
func SineSpeed(elapsed, duration time.Duration) float64 {
	return math.Sin(float64(elapsed) / float64(duration) * math.Pi * 2)
}

// SineSweep samples one sine period from -1 to +1 every interval over [0, duration).
func SineSweep(duration, interval time.Duration) []Sample {
	if duration <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	samples := make([]Sample, 0, duration/interval+1)
	for t := time.Duration(0); t < duration; t += interval {
		samples = append(samples, Sample{
			Offset: t,
			Speed:  SineSpeed(t, duration),
		})
	}

	return samples
}

// Sweep cycles both channels through one sine period in real time, one
// command per interval, then forces zero speed. The motors are stopped even
// when ctx is cancelled or a command fails, the stop being sent at least
// interval after the previous command.
func Sweep(ctx context.Context, m SpeedSetter, duration, interval time.Duration) (err error) {
	log := logger.LogWith(ctx)

	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	var last time.Time
	defer func() {
		if wait := interval - time.Since(last); wait > 0 {
			time.Sleep(wait)
		}
		if serr := m.SetSpeed(0, 0); serr != nil {
			err = errors.Join(err, fmt.Errorf("stop: %w", serr))
			return
		}
		log.Info("Done - stopped motor")
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		elapsed := time.Since(start)
		if elapsed >= duration {
			return nil
		}

		speed := SineSpeed(elapsed, duration)
		log.Debugf("Speed %g", speed)
		err = m.SetSpeed(speed, speed)
		last = time.Now()
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
