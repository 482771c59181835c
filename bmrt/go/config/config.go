// Package config is the configuration of a bmrtserver instance.
package config

import (
	"os"
	"reflect"
	"time"

	"github.com/flynn/json5"

	"github.com/lwz9103/conbench/bmrt/go/baseline"
	"github.com/lwz9103/conbench/bmrt/go/refresher"
	"github.com/lwz9103/conbench/bmrt/go/regression"
	"github.com/lwz9103/conbench/bmrt/go/snapshot"
	"github.com/lwz9103/conbench/go/config"
	"github.com/lwz9103/conbench/go/skerr"
)

// Duration is a duration written as a string, e.g. "2m".
type Duration = config.Duration

// CacheConfig controls the snapshot and how often it is rebuilt.
type CacheConfig struct {
	// InitialDelay before the first build.
	InitialDelay Duration `json:"initial_delay"`

	// MinDelay between builds. The actual delay is the larger of this and
	// five times the duration of the last build.
	MinDelay Duration `json:"min_delay"`

	// RefreshTimeout bounds a single build.
	RefreshTimeout Duration `json:"refresh_timeout" optional:"true"`

	// Limit is the maximum number of newest results held.
	Limit int `json:"limit"`

	// PageSize is the number of rows read per query.
	PageSize int `json:"page_size"`

	YieldEvery int `json:"yield_every" optional:"true"`
}

// BaselineConfig controls the baseline resolver.
type BaselineConfig struct {
	MaxAncestorDepth int `json:"max_ancestor_depth"`
}

// RegressionConfig holds the default thresholds used when a caller doesn't
// supply them.
type RegressionConfig struct {
	Threshold      float64 `json:"threshold"`
	ThresholdZ     float64 `json:"threshold_z"`
	LookbackWindow int     `json:"lookback_window"`
}

// InstanceConfig is the full configuration of an instance.
type InstanceConfig struct {
	// DatabaseConnection is a CockroachDB connection string, e.g.
	// "postgresql://root@localhost:26257/conbench?sslmode=disable". Empty
	// means the demo fixture is served from memory.
	DatabaseConnection string `json:"database_connection" optional:"true"`

	// Repository is the repository the demo fixture is generated for.
	Repository string `json:"repository" optional:"true"`

	// PromPort is where Prometheus metrics are served, e.g. ":20000".
	PromPort string `json:"prom_port" optional:"true"`

	Cache      CacheConfig      `json:"cache"`
	Baseline   BaselineConfig   `json:"baseline"`
	Regression RegressionConfig `json:"regression"`
}

// DefaultInstanceConfig returns the production defaults.
func DefaultInstanceConfig() *InstanceConfig {
	return &InstanceConfig{
		Repository: "https://github.com/apache/arrow",
		PromPort:   ":20000",
		Cache: CacheConfig{
			InitialDelay: Duration{Duration: 3 * time.Second},
			MinDelay:     Duration{Duration: 120 * time.Second},
			Limit:        snapshot.DefaultLimit,
			PageSize:     snapshot.DefaultPageSize,
		},
		Baseline: BaselineConfig{
			MaxAncestorDepth: baseline.DefaultMaxAncestorDepth,
		},
		Regression: RegressionConfig{
			Threshold:      regression.DefaultThreshold,
			ThresholdZ:     regression.DefaultThresholdZ,
			LookbackWindow: regression.DefaultLookbackWindow,
		},
	}
}

// TestingInstanceConfig returns the defaults used when testing, with a
// shorter refresh cadence and a smaller cache.
func TestingInstanceConfig() *InstanceConfig {
	ret := DefaultInstanceConfig()
	ret.Cache.InitialDelay.Duration = 2 * time.Second
	ret.Cache.MinDelay.Duration = 20 * time.Second
	ret.Cache.Limit = 50000
	return ret
}

// LoadFromJSON5 reads the config at path on top of the defaults in dst and
// validates the result.
func LoadFromJSON5(dst *InstanceConfig, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return skerr.Wrap(err)
	}
	defer f.Close()
	if err := json5.NewDecoder(f).Decode(dst); err != nil {
		return skerr.Wrapf(err, "decoding config at %s", path)
	}
	return dst.Validate()
}

// Validate returns an error if a required field is zero or a value is out
// of range.
func (c *InstanceConfig) Validate() error {
	if err := checkRequired(reflect.ValueOf(c).Elem()); err != nil {
		return err
	}
	if c.Cache.PageSize > c.Cache.Limit {
		return skerr.Fmt("cache.page_size (%d) must not exceed cache.limit (%d)", c.Cache.PageSize, c.Cache.Limit)
	}
	for name, v := range map[string]int{
		"cache.limit":                 c.Cache.Limit,
		"cache.page_size":             c.Cache.PageSize,
		"baseline.max_ancestor_depth": c.Baseline.MaxAncestorDepth,
		"regression.lookback_window":  c.Regression.LookbackWindow,
	} {
		if v < 0 {
			return skerr.Fmt("%s must be positive, got %d", name, v)
		}
	}
	if c.Regression.Threshold < 0 || c.Regression.ThresholdZ < 0 {
		return skerr.Fmt("regression thresholds must not be negative")
	}
	return nil
}

// checkRequired returns an error if any non-struct, non-bool field of
// rValue is its zero value, unless it is tagged `optional:"true"`.
func checkRequired(rValue reflect.Value) error {
	rType := rValue.Type()
	for i := 0; i < rValue.NumField(); i++ {
		field := rType.Field(i)
		if field.Tag.Get("json") == "" {
			continue
		}
		if field.Tag.Get("optional") == "true" {
			continue
		}
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(Duration{}) {
			if err := checkRequired(rValue.Field(i)); err != nil {
				return err
			}
			continue
		}
		if field.Type.Kind() == reflect.Bool {
			continue
		}
		if rValue.Field(i).IsZero() {
			return skerr.Fmt("Required %s to be non-zero", field.Name)
		}
	}
	return nil
}

// RefresherOptions converts the cache section into refresher.Options.
func (c *InstanceConfig) RefresherOptions() refresher.Options {
	return refresher.Options{
		InitialDelay:   c.Cache.InitialDelay.Duration,
		MinDelay:       c.Cache.MinDelay.Duration,
		RefreshTimeout: c.Cache.RefreshTimeout.Duration,
		Build: snapshot.Options{
			Limit:      c.Cache.Limit,
			PageSize:   c.Cache.PageSize,
			YieldEvery: c.Cache.YieldEvery,
		},
	}
}
