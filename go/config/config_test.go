package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/flynn/json5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type withDuration struct {
	Every Duration `json:"every"`
}

func TestDuration_JSON5RoundTrip(t *testing.T) {
	var w withDuration
	require.NoError(t, json5.NewDecoder(strings.NewReader(`{every: "1m30s", /* comment */}`)).Decode(&w))
	assert.Equal(t, 90*time.Second, w.Every.Duration)

	b, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Equal(t, `{"every":"1m30s"}`, string(b))
}

func TestDuration_Invalid(t *testing.T) {
	var w withDuration
	assert.Error(t, json.Unmarshal([]byte(`{"every": 90}`), &w))
	assert.Error(t, json.Unmarshal([]byte(`{"every": "soon"}`), &w))
}
