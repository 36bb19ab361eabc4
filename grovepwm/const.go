package grovepwm

import "time"

const (
	// DefaultAddress is the factory I2C address of the board (all address switches off).
	DefaultAddress uint16 = 0x0F

	DefaultFrequency = F3921Hz

	// StartupDelay is the time the board needs after power-up before accepting register writes.
	StartupDelay = 10 * time.Millisecond

	// framing is the trailing byte expected by the Frequency and Direction registers.
	framing byte = 0x01
)

const (
	F31372Hz Frequency = 0x01
	F3921Hz  Frequency = 0x02
	F490Hz   Frequency = 0x03
	F122Hz   Frequency = 0x04
	F30Hz    Frequency = 0x05
)

const (
	registerSpeed     register = 0x82
	registerFrequency register = 0x84
	registerDirection register = 0xAA
)

// Direction bits, two per channel.
const (
	dir1Reverse byte = 1
	dir1Forward byte = 2
	dir2Reverse byte = 4
	dir2Forward byte = 8
)
