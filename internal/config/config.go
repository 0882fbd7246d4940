package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	envLogLevel    = "MATCHBOOK_LOG_LEVEL"
	envCutoff      = "MATCHBOOK_GFD_CUTOFF"
	envTimezone    = "MATCHBOOK_TIMEZONE"
	envMetrics     = "MATCHBOOK_METRICS"
	envMetricsAddr = "MATCHBOOK_METRICS_ADDR"

	defaultCutoff      = "16:00"
	defaultMetricsAddr = ":9464"
)

type Config struct {
	LogLevel       zerolog.Level
	CutoffHour     int            `validate:"min=0,max=23"`
	CutoffMinute   int            `validate:"min=0,max=59"`
	Location       *time.Location `validate:"required"`
	MetricsEnabled bool
	MetricsAddr    string `validate:"hostname_port"`
}

var validate = validator.New()

// Load reads an optional .env file from the working directory and then the
// process environment. Unset variables take their defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
		log.Debug().Msg(".env file not found, using environment")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	level, err := zerolog.ParseLevel(get(envLogLevel, zerolog.InfoLevel.String()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envLogLevel, err)
	}

	cutoff, err := time.Parse("15:04", get(envCutoff, defaultCutoff))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envCutoff, err)
	}

	location, err := time.LoadLocation(get(envTimezone, "Local"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envTimezone, err)
	}

	metrics, err := strconv.ParseBool(get(envMetrics, "true"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envMetrics, err)
	}

	cfg := &Config{
		LogLevel:       level,
		CutoffHour:     cutoff.Hour(),
		CutoffMinute:   cutoff.Minute(),
		Location:       location,
		MetricsEnabled: metrics,
		MetricsAddr:    get(envMetricsAddr, defaultMetricsAddr),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
