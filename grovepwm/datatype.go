package grovepwm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type (
	Frequency uint8
	register  uint8
)

var frequencies = map[Frequency]int{
	F31372Hz: 31372,
	F3921Hz:  3921,
	F490Hz:   490,
	F122Hz:   122,
	F30Hz:    30,
}

// Frequencies returns the PWM frequencies supported by the board, ordered by code.
func Frequencies() []Frequency {
	return []Frequency{F31372Hz, F3921Hz, F490Hz, F122Hz, F30Hz}
}

func (f Frequency) Valid() bool {
	_, ok := frequencies[f]
	return ok
}

// Hz returns the nominal carrier frequency, 0 for an unknown code.
func (f Frequency) Hz() int {
	return frequencies[f]
}

func (f Frequency) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Frequency(0x%02x)", uint8(f))
	}
	return strconv.Itoa(f.Hz()) + "Hz"
}

// ParseFrequency parses values like "3921Hz" or "3921".
func ParseFrequency(s string) (Frequency, error) {
	v := strings.TrimSpace(strings.ToLower(s))
	v = strings.TrimSuffix(v, "hz")

	hz, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", strconv.Quote(s), ErrInvalidFrequency)
	}

	for _, f := range Frequencies() {
		if f.Hz() == hz {
			return f, nil
		}
	}

	return 0, fmt.Errorf("%s: %w", strconv.Quote(s), ErrInvalidFrequency)
}

func (r register) String() string {
	switch r {
	case registerFrequency:
		return "Frequency"
	case registerDirection:
		return "Direction"
	case registerSpeed:
		return "Speed"
	}
	return fmt.Sprintf("register(0x%02x)", uint8(r))
}

// Direction packs the sign of both channels into the direction register value.
// The result is always one of 5, 6, 9 or 10.
func Direction(speed1, speed2 float64) byte {
	var dir byte

	if speed1 < 0 {
		dir += dir1Reverse
	} else {
		dir += dir1Forward
	}

	if speed2 < 0 {
		dir += dir2Reverse
	} else {
		dir += dir2Forward
	}

	return dir
}

// Magnitude converts a speed to a duty byte. The sign is dropped (it lives in
// the direction register) and anything beyond 1.0 saturates at 255.
func Magnitude(speed float64) byte {
	v := math.Round(math.Abs(speed) * 255)
	switch {
	case math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}

	return byte(v)
}
