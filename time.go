package grovepwmd

import (
	"encoding/json"
	"time"

	"go.yaml.in/yaml/v4"
)

// Duration is a time.Duration written as a string ("15ms") in YAML and JSON.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	var str string
	err := json.Unmarshal(data, &str)
	if err != nil {
		return err
	}

	return d.parse(str)
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	err := value.Decode(&str)
	if err != nil {
		return err
	}

	return d.parse(str)
}

func (d *Duration) parse(str string) (err error) {
	if str == "" {
		return nil
	}

	d.Duration, err = time.ParseDuration(str)
	return err
}
