package grovepwmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mdouchement/grovepwmd/grovepwm"
	"go.yaml.in/yaml/v4"
)

const (
	DefaultConfigPath    = "/etc/grovepwmd/grovepwmd.yml"
	DefaultSocket        = "/run/grovepwmd/grovepwmd.sock"
	DefaultMinInterval   = 15 * time.Millisecond
	DefaultSweepDuration = 4 * time.Second
	DefaultSweepInterval = 15 * time.Millisecond
)

type Config struct {
	Debug         bool               `yaml:"debug"`
	Socket        string             `yaml:"socket"`
	Bus           string             `yaml:"bus"`
	Address       uint16             `yaml:"address"`
	FrequencyYAML string             `yaml:"frequency"`
	Frequency     grovepwm.Frequency `yaml:"-"`
	MinInterval   Duration           `yaml:"min_interval"`
	Sweep         SweepSettings      `yaml:"sweep"`
}

type SweepSettings struct {
	Duration Duration `yaml:"duration"`
	Interval Duration `yaml:"interval"`
}

// Default returns the configuration used for omitted keys.
func Default() Config {
	return Config{
		Socket:        DefaultSocket,
		Address:       grovepwm.DefaultAddress,
		FrequencyYAML: grovepwm.DefaultFrequency.String(),
		Frequency:     grovepwm.DefaultFrequency,
		MinInterval:   Duration{DefaultMinInterval},
		Sweep: SweepSettings{
			Duration: Duration{DefaultSweepDuration},
			Interval: Duration{DefaultSweepInterval},
		},
	}
}

func Load(path string) (Config, error) {
	c := Default()

	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	codec := yaml.NewDecoder(f)
	err = codec.Decode(&c)
	if err != nil && !errors.Is(err, io.EOF) { // io.EOF: empty file
		return c, err
	}

	return c, c.validate()
}

func (c *Config) validate() error {
	// 0x00-0x02 and 0x78-0x7F are reserved by the I2C specification.
	if c.Address < 0x03 || c.Address > 0x77 {
		return fmt.Errorf("address: 0x%02x: out of 7-bit range [0x03,0x77]", c.Address)
	}

	var err error
	c.Frequency, err = grovepwm.ParseFrequency(c.FrequencyYAML)
	if err != nil {
		return fmt.Errorf("frequency: %w", err)
	}

	if c.Socket == "" {
		return errors.New("socket: empty path")
	}

	if c.MinInterval.Duration < 0 {
		return fmt.Errorf("min_interval: %s: must not be negative", c.MinInterval)
	}

	if c.Sweep.Duration.Duration <= 0 {
		return fmt.Errorf("sweep.duration: %s: must be greater than 0", c.Sweep.Duration)
	}

	if c.Sweep.Interval.Duration <= 0 {
		return fmt.Errorf("sweep.interval: %s: must be greater than 0", c.Sweep.Interval)
	}

	return nil
}

// Options returns the driver options described by the configuration.
func (c Config) Options() grovepwm.Options {
	return grovepwm.Options{
		Address:   c.Address,
		Frequency: c.Frequency,
	}
}
