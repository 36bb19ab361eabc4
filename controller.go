package grovepwmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mdouchement/grovepwmd/grovepwm"
	"github.com/mdouchement/logger"
)

var ErrShutdown = errors.New("controller is shutting down")

// A Controller is the single owner of a Motor. Every command goes through its
// event loop so a direction write is never interleaved with another caller's
// speed write, and consecutive bus commands are spaced by Config.MinInterval.
type Controller struct {
	motor       Motor
	minInterval time.Duration
	events      chan event
	done        chan struct{}
	listener    net.Listener
	state       State
}

func New(cfg Config, motor Motor) (*Controller, error) {
	c := &Controller{
		motor:       motor,
		minInterval: cfg.MinInterval.Duration,
		events:      make(chan event, 10),
		done:        make(chan struct{}),
		state: State{
			Frequency: cfg.Frequency.String(),
			UpdatedAt: time.Now(),
		},
	}

	err := os.MkdirAll(filepath.Dir(cfg.Socket), 0o755)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	if _, err := os.Stat(cfg.Socket); err == nil {
		fmt.Printf("Removing existing %s\n", cfg.Socket)
		os.Remove(cfg.Socket)
	}
	c.listener, err = net.Listen("unix", cfg.Socket)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	return c, nil
}

// Launch starts the event loop and the HTTP server. Cancelling ctx stops the
// server and closes the motor; Wait returns once the motor is closed.
func (c *Controller) Launch(ctx context.Context) {
	log := logger.LogWith(ctx)

	go c.eventLoop(ctx)

	server := &http.Server{
		Handler:     c.Handler(log),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info("Starting HTTP server on", c.listener.Addr().String())
		err := server.Serve(c.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Could not serve HTTP")
		}
	}()

	go func() {
		<-ctx.Done()

		if err := server.Close(); err != nil {
			log.WithError(err).Error("Could not close HTTP server")
		}
		if err := os.Remove(c.listener.Addr().String()); err != nil && !errors.Is(err, os.ErrNotExist) {
			// Closing the listener should remove the socket but ceinture et bretelles!
			log.WithError(err).Errorf("Could not remove socket %s", c.listener.Addr().String())
		}
	}()
}

// Wait blocks until the event loop has stopped the motor.
func (c *Controller) Wait() {
	<-c.done
}

func (c *Controller) eventLoop(ctx context.Context) {
	log := logger.LogWith(ctx)
	watchers := map[int64]chan<- []byte{}

	// Spacing is measured from the end of the previous bus command.
	var last time.Time
	throttle := func() {
		if wait := c.minInterval - time.Since(last); wait > 0 {
			time.Sleep(wait)
		}
	}

	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping motors")
			throttle()
			if err := c.motor.Close(); err != nil {
				log.WithError(err).Error("Could not close motor driver")
			}

			for _, watcher := range watchers {
				close(watcher)
			}
			return
		case e := <-c.events:
			switch e.name {
			case eventSetSpeed:
				throttle()
				err := c.motor.SetSpeed(e.speed1, e.speed2)
				last = time.Now()
				if err != nil {
					e.reply <- reply{err: err}
					log.WithError(err).Errorf("Could not set speed %g %g", e.speed1, e.speed2)
					continue
				}

				log.Debugf("Set speed %g %g", e.speed1, e.speed2)
				c.state.Speed1 = e.speed1
				c.state.Speed2 = e.speed2
				c.state.Direction = grovepwm.Direction(e.speed1, e.speed2)
				c.state.Magnitude1 = grovepwm.Magnitude(e.speed1)
				c.state.Magnitude2 = grovepwm.Magnitude(e.speed2)
				c.state.UpdatedAt = time.Now()
				e.reply <- reply{state: c.state}
				c.broadcast(log, watchers)
			case eventSetFrequency:
				throttle()
				err := c.motor.SetFrequency(e.frequency)
				last = time.Now()
				if err != nil {
					e.reply <- reply{err: err}
					log.WithError(err).Errorf("Could not set frequency %s", e.frequency)
					continue
				}

				log.Infof("Set frequency %s", e.frequency)
				c.state.Frequency = e.frequency.String()
				c.state.UpdatedAt = time.Now()
				e.reply <- reply{state: c.state}
				c.broadcast(log, watchers)
			case eventState:
				e.reply <- reply{state: c.state}
			case eventWatch:
				watchers[e.monitorID] = e.monitor
				c.broadcast(log, map[int64]chan<- []byte{e.monitorID: e.monitor})
			case eventUnwatch:
				if watcher, ok := watchers[e.monitorID]; ok {
					close(watcher)
					delete(watchers, e.monitorID)
				}
			}
		}
	}
}

func (c *Controller) broadcast(log logger.Logger, watchers map[int64]chan<- []byte) {
	payload, err := json.Marshal(c.state)
	if err != nil {
		log.WithError(err).Error("Could not serialize state") // Should never happen
		return
	}

	for id, watcher := range watchers {
		select {
		case watcher <- payload:
		default:
			log.Warnf("Monitor %d is too slow, dropping state", id)
		}
	}
}

// send forwards e to the event loop and waits for its reply.
func (c *Controller) send(ctx context.Context, e event) (State, error) {
	e.reply = make(chan reply, 1)

	select {
	case c.events <- e:
	case <-c.done:
		return State{}, ErrShutdown
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	select {
	case r := <-e.reply:
		return r.state, r.err
	case <-c.done:
		return State{}, ErrShutdown
	}
}

// SetSpeed returns the State resulting from this command, whatever the
// commands sent concurrently by other callers.
func (c *Controller) SetSpeed(ctx context.Context, speed1, speed2 float64) (State, error) {
	return c.send(ctx, event{name: eventSetSpeed, speed1: speed1, speed2: speed2})
}

func (c *Controller) SetFrequency(ctx context.Context, f grovepwm.Frequency) (State, error) {
	return c.send(ctx, event{name: eventSetFrequency, frequency: f})
}

func (c *Controller) State(ctx context.Context) (State, error) {
	return c.send(ctx, event{name: eventState})
}

//
// HTTP
//

func (c *Controller) Handler(log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /speed", c.setSpeed(log))
	mux.HandleFunc("POST /frequency", c.setFrequency(log))
	mux.HandleFunc("POST /stop", c.stop(log))
	mux.HandleFunc("GET /state", c.getState(log))
	mux.HandleFunc("GET /monitor", c.monitor(log))
	return mux
}

func (c *Controller) setSpeed(log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SpeedRequest
		if err := decode(r.Body, &req); err != nil {
			writeError(log, w, err)
			return
		}

		state, err := c.SetSpeed(r.Context(), req.Speed1, req.Speed2)
		writeState(log, w, state, err)
	}
}

func (c *Controller) setFrequency(log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FrequencyRequest
		if err := decode(r.Body, &req); err != nil {
			writeError(log, w, err)
			return
		}

		f, err := grovepwm.ParseFrequency(req.Frequency)
		if err != nil {
			writeError(log, w, err)
			return
		}

		state, err := c.SetFrequency(r.Context(), f)
		writeState(log, w, state, err)
	}
}

func (c *Controller) stop(log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := c.SetSpeed(r.Context(), 0, 0)
		writeState(log, w, state, err)
	}
}

func (c *Controller) getState(log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := c.State(r.Context())
		writeState(log, w, state, err)
	}
}

func writeState(log logger.Logger, w http.ResponseWriter, state State, err error) {
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(log, w, http.StatusOK, state)
}

func (c *Controller) monitor(log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Client connected")

		// Set http headers required for SSE.
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		id := genID()
		ch := make(chan []byte, 20)
		select {
		case c.events <- event{name: eventWatch, monitorID: id, monitor: ch}:
		case <-c.done:
			writeError(log, w, ErrShutdown)
			return
		}

		rc := http.NewResponseController(w)
		for {
			select {
			case <-r.Context().Done():
				log.Info("Client disconnected")
				select {
				case c.events <- event{name: eventUnwatch, monitorID: id}:
				case <-c.done:
				}
				return
			case payload, ok := <-ch:
				if !ok {
					return
				}

				err := WriteSSE(w, payload)
				if err != nil {
					log.WithError(err).Error("Could not write monitor SSE payload")
					return
				}

				err = rc.Flush()
				if err != nil {
					log.WithError(err).Error("Could not flush monitor SSE payload")
					return
				}
			}
		}
	}
}

func decode(r io.Reader, v any) error {
	err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(v)
	if err != nil {
		return &requestError{err: err}
	}
	return nil
}

type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return "invalid request: " + e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func writeError(log logger.Logger, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var terr *grovepwm.TransportError
	var rerr *requestError
	switch {
	case errors.As(err, &terr):
		status = http.StatusBadGateway
	case errors.As(err, &rerr), errors.Is(err, grovepwm.ErrInvalidFrequency):
		status = http.StatusBadRequest
	case errors.Is(err, ErrShutdown), errors.Is(err, grovepwm.ErrClosed):
		status = http.StatusServiceUnavailable
	}

	writeJSON(log, w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(log logger.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Could not write response")
	}
}
