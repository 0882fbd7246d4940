package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 16, cfg.CutoffHour)
	assert.Equal(t, 0, cfg.CutoffMinute)
	assert.Equal(t, "Local", cfg.Location.String())
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, ":9464", cfg.MetricsAddr)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		envLogLevel:    "debug",
		envCutoff:      "17:30",
		envTimezone:    "UTC",
		envMetrics:     "false",
		envMetricsAddr: "127.0.0.1:9100",
	}))
	require.NoError(t, err)

	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 17, cfg.CutoffHour)
	assert.Equal(t, 30, cfg.CutoffMinute)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"log level":                    {envLogLevel: "loud"},
		"cutoff":                       {envCutoff: "25:00"},
		"timezone":                     {envTimezone: "Mars/Olympus_Mons"},
		"metrics":                      {envMetrics: "maybe"},
		"metrics address without port": {envMetricsAddr: "localhost"},
		"metrics address bad port":     {envMetricsAddr: ":99999"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envOf(vars))
			assert.Error(t, err)
		})
	}
}
