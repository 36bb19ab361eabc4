package grovepwmd

import (
	"fmt"

	"github.com/mdouchement/grovepwmd/grovepwm"
	"github.com/mdouchement/logger"
)

// OpenDriver opens the board described by cfg. With dummy, the board is
// emulated by a DummyBus and no hardware is touched.
func OpenDriver(cfg Config, dummy bool, log logger.Logger) (*grovepwm.Driver, error) {
	if dummy {
		bus := NewDummyBus()
		bus.SetLogger(log)

		log.Infof("Using dummy I2C bus `%s`", bus)
		return newDriver(cfg, bus, log)
	}

	d, err := grovepwm.Open(cfg.Bus, driverOptions(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("open driver: %w", err)
	}

	log.Infof("Motor driver on I2C bus `%s` at 0x%02x - PWM %s", busName(cfg.Bus), d.Address(), cfg.Frequency)
	return d, nil
}

func newDriver(cfg Config, bus grovepwm.Bus, log logger.Logger) (*grovepwm.Driver, error) {
	return grovepwm.New(bus, driverOptions(cfg, log))
}

// driverOptions always injects log: register writes are filtered out by its
// level but a failed stop on Close must be reported.
func driverOptions(cfg Config, log logger.Logger) grovepwm.Options {
	opts := cfg.Options()
	opts.Logger = log
	return opts
}

func busName(name string) string {
	if name == "" {
		return "default"
	}
	return name
}
