// Package config has types shared by JSON5 configuration files.
package config

import (
	"encoding/json"
	"time"

	"github.com/lwz9103/conbench/go/skerr"
)

// Duration allows a duration to be written as a human readable string such
// as "2m" or "1h30m".
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return skerr.Wrapf(err, "duration must be a string like \"2m\"")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return skerr.Wrap(err)
	}
	d.Duration = parsed
	return nil
}
