package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/regression"
)

func TestDefaultInstanceConfig_IsValid(t *testing.T) {
	c := DefaultInstanceConfig()
	require.NoError(t, c.Validate())
	opts := c.RefresherOptions()
	assert.Equal(t, 3*time.Second, opts.InitialDelay)
	assert.Equal(t, 120*time.Second, opts.MinDelay)
	assert.Equal(t, 800000, opts.Build.Limit)
	assert.Equal(t, 2000, opts.Build.PageSize)
}

func TestTestingInstanceConfig_ShorterCadence(t *testing.T) {
	c := TestingInstanceConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 2*time.Second, c.Cache.InitialDelay.Duration)
	assert.Equal(t, 20*time.Second, c.Cache.MinDelay.Duration)
	assert.Equal(t, 50000, c.Cache.Limit)
}

func TestLoadFromJSON5_OverridesDefaults(t *testing.T) {
	c := DefaultInstanceConfig()
	require.NoError(t, LoadFromJSON5(c, filepath.Join("testdata", "instance.json5")))

	assert.Equal(t, "postgresql://root@localhost:26257/conbench?sslmode=disable", c.DatabaseConnection)
	assert.Equal(t, ":20001", c.PromPort)
	assert.Equal(t, 5*time.Second, c.Cache.InitialDelay.Duration)
	assert.Equal(t, 10*time.Minute, c.Cache.MinDelay.Duration)
	assert.Equal(t, 30*time.Minute, c.Cache.RefreshTimeout.Duration)
	assert.Equal(t, 100000, c.Cache.Limit)
	assert.Equal(t, 1000, c.Cache.PageSize)
	// Untouched sections keep their defaults.
	assert.Equal(t, regression.DefaultThreshold, c.Regression.Threshold)
}

func TestLoadFromJSON5_Invalid(t *testing.T) {
	c := DefaultInstanceConfig()
	assert.Error(t, LoadFromJSON5(c, filepath.Join("testdata", "invalid.json5")))
	assert.Error(t, LoadFromJSON5(DefaultInstanceConfig(), filepath.Join("testdata", "missing.json5")))
}

func TestValidate_RequiredFieldZero(t *testing.T) {
	c := DefaultInstanceConfig()
	c.Cache.MinDelay.Duration = 0
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MinDelay")

	c = DefaultInstanceConfig()
	c.Regression.Threshold = -1
	assert.Error(t, c.Validate())
}
