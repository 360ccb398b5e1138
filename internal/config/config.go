// Package config loads the application configuration from the environment
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	Port        string
	Environment string

	DataPath  string
	ModelPath string

	LogLevel  slog.Level
	LogFormat string

	HolidayCalendar string

	MinForecastDays     int
	MaxForecastDays     int
	DefaultForecastDays int

	EvalPlotLimit int
	EDASampleRows int
}

// Load reads an optional .env file from the working directory and then loads the
// configuration from environment variables
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug(".env file not loaded", "error", err.Error())
	}
	return LoadConfig()
}

// LoadConfig loads configuration from environment variables, applying defaults to unset keys
func LoadConfig() (*Config, error) {
	var errs []error
	intEnv := func(key string, defaultValue int) int {
		v, err := getEnvInt(key, defaultValue)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		DataPath:            getEnv("DATA_PATH", "datasets/store_item_demand.csv"),
		ModelPath:           getEnv("MODEL_PATH", "models/xgb_demand_model.json"),
		LogLevel:            level,
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "text")),
		HolidayCalendar:     strings.ToLower(getEnv("HOLIDAY_CALENDAR", "us")),
		MinForecastDays:     intEnv("MIN_FORECAST_DAYS", 7),
		MaxForecastDays:     intEnv("MAX_FORECAST_DAYS", 365),
		DefaultForecastDays: intEnv("DEFAULT_FORECAST_DAYS", 30),
		EvalPlotLimit:       intEnv("EVAL_PLOT_LIMIT", 500),
		EDASampleRows:       intEnv("EDA_SAMPLE_ROWS", 5000),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the forecast bounds and output formats are consistent
func (c *Config) Validate() error {
	if c.MinForecastDays < 1 {
		return fmt.Errorf("MIN_FORECAST_DAYS must be at least 1, got %d, %w", c.MinForecastDays, ErrInvalidConfig)
	}
	if c.MaxForecastDays < c.MinForecastDays {
		return fmt.Errorf("MAX_FORECAST_DAYS %d is below MIN_FORECAST_DAYS %d, %w", c.MaxForecastDays, c.MinForecastDays, ErrInvalidConfig)
	}
	if c.DefaultForecastDays < c.MinForecastDays || c.DefaultForecastDays > c.MaxForecastDays {
		return fmt.Errorf("DEFAULT_FORECAST_DAYS %d outside of [%d, %d], %w",
			c.DefaultForecastDays, c.MinForecastDays, c.MaxForecastDays, ErrInvalidConfig)
	}
	if c.EvalPlotLimit < 1 {
		return fmt.Errorf("EVAL_PLOT_LIMIT must be positive, %w", ErrInvalidConfig)
	}
	if c.EDASampleRows < 1 {
		return fmt.Errorf("EDA_SAMPLE_ROWS must be positive, %w", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT %q, %w", c.LogFormat, ErrInvalidConfig)
	}
	return nil
}

// IsProduction reports whether the server should run gin in release mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds the structured logger described by the configuration
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s=%q is not an integer, %w", key, value, ErrInvalidConfig)
	}
	return v, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q, %w", s, ErrInvalidConfig)
	}
	return level, nil
}
