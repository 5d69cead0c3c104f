package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burenotti/runbox/pkg/models"
)

func TestParseDuration_GoStyle(t *testing.T) {
	d, err := models.ParseDuration("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)
}

func TestParseDuration_ISO8601(t *testing.T) {
	cases := map[string]time.Duration{
		"PT3S":    3 * time.Second,
		"PT1H":    time.Hour,
		"P1D":     24 * time.Hour,
		"P1DT2H":  26 * time.Hour,
		"PT0.5S":  500 * time.Millisecond,
		"PT1M30S": 90 * time.Second,
	}
	for in, want := range cases {
		got, err := models.ParseDuration(in)
		require.NoErrorf(t, err, "input %q", in)
		assert.Equalf(t, want, got, "input %q", in)
	}
}

func TestParseDuration_Empty(t *testing.T) {
	d, err := models.ParseDuration("")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestParseDuration_Invalid(t *testing.T) {
	_, err := models.ParseDuration("P")
	assert.Error(t, err)

	_, err = models.ParseDuration("not-a-duration")
	assert.Error(t, err)
}

func TestFormatISO8601(t *testing.T) {
	assert.Equal(t, "PT3S", models.FormatISO8601(3*time.Second))
	assert.Equal(t, "PT0S", models.FormatISO8601(0))
}
