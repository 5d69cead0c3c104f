package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burenotti/runbox/pkg/models"
)

func TestDefaultLimits(t *testing.T) {
	l := models.DefaultLimits()
	assert.Equal(t, time.Second, l.Time)
	assert.Equal(t, 64, l.MemoryMB)
}

func TestLimits_MemoryBytes(t *testing.T) {
	l := models.Limits{MemoryMB: 128}
	assert.Equal(t, int64(128*1024*1024), l.MemoryBytes())
}

func TestLimits_UnmarshalJSON_AppliesDefaultsThenOverrides(t *testing.T) {
	var l models.Limits
	require.NoError(t, json.Unmarshal([]byte(`{"memory_mb":256}`), &l))
	assert.Equal(t, 256, l.MemoryMB)
	assert.Equal(t, time.Second, l.Time)
}

func TestLimits_UnmarshalJSON_ParsesISO8601Time(t *testing.T) {
	var l models.Limits
	require.NoError(t, json.Unmarshal([]byte(`{"time":"PT3S"}`), &l))
	assert.Equal(t, 3*time.Second, l.Time)
}

func TestLimits_JSONRoundTrip(t *testing.T) {
	l := models.Limits{Time: 5 * time.Second, MemoryMB: 32, CPUCount: 2, DiskSpaceMB: 100}
	data, err := json.Marshal(l)
	require.NoError(t, err)

	var decoded models.Limits
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, l, decoded)
}
