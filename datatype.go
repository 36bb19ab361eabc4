package grovepwmd

import (
	"time"

	"github.com/mdouchement/grovepwmd/grovepwm"
)

type SpeedSetter interface {
	SetSpeed(speed1, speed2 float64) error
}

type Motor interface {
	SpeedSetter
	SetFrequency(f grovepwm.Frequency) error
	Close() error
}

// State is the last command successfully sent to the board.
type State struct {
	Frequency  string    `json:"frequency"`
	Speed1     float64   `json:"speed_1"`
	Speed2     float64   `json:"speed_2"`
	Direction  byte      `json:"direction"`
	Magnitude1 byte      `json:"magnitude_1"`
	Magnitude2 byte      `json:"magnitude_2"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SpeedRequest struct {
	Speed1 float64 `json:"speed_1"`
	Speed2 float64 `json:"speed_2"`
}

type FrequencyRequest struct {
	Frequency string `json:"frequency"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func ToPtr[T any](v T) *T {
	return &v
}

const (
	eventSetSpeed     = "set-speed"
	eventSetFrequency = "set-frequency"
	eventState        = "state"
	eventWatch        = "watch"
	eventUnwatch      = "unwatch"
)

type event struct {
	name      string
	speed1    float64
	speed2    float64
	frequency grovepwm.Frequency
	reply     chan reply
	monitorID int64
	monitor   chan<- []byte
}

// reply carries the State of the loop iteration that handled the event.
type reply struct {
	state State
	err   error
}

func genID() int64 {
	time.Sleep(time.Nanosecond)
	return time.Now().UnixNano()
}
