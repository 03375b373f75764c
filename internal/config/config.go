package config

import (
	"fmt"
	"os"
	"strconv"

	"labsolver/domain/lab"
	"labsolver/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Log      LogConfig
	Defaults DefaultsConfig
	Engine   EngineConfig
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// DefaultsConfig holds the settings applied when an input file omits them
type DefaultsConfig struct {
	ConfidenceLevel float64
	RoundingDigits  int
}

// EngineConfig holds evaluation settings
type EngineConfig struct {
	Workers int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	defaults, err := loadDefaultsConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load default settings")
	}

	config := &Config{
		Log:      *loadLogConfig(),
		Defaults: *defaults,
		Engine:   *loadEngineConfig(),
	}

	// Validate ranges
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Settings returns the run settings implied by the configured defaults
func (c *Config) Settings() lab.Settings {
	return lab.Settings{
		ConfidenceLevel: c.Defaults.ConfidenceLevel,
		RoundingDigits:  c.Defaults.RoundingDigits,
	}
}

func loadLogConfig() *LogConfig {
	return &LogConfig{
		Level: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}
}

func loadDefaultsConfig() (*DefaultsConfig, error) {
	confidence, err := getEnvFloat("LABSOLVER_CONFIDENCE", lab.DefaultConfidenceLevel)
	if err != nil {
		return nil, err
	}
	round, err := getEnvInt("LABSOLVER_ROUND", 0)
	if err != nil {
		return nil, err
	}
	if os.Getenv("LABSOLVER_ROUND") != "" && round < 1 {
		return nil, errors.ConfigInvalid(fmt.Sprintf("LABSOLVER_ROUND must be at least 1, got %d", round))
	}

	return &DefaultsConfig{
		ConfidenceLevel: confidence,
		RoundingDigits:  round,
	}, nil
}

func loadEngineConfig() *EngineConfig {
	return &EngineConfig{
		Workers: getEnvIntOrDefault("LABSOLVER_WORKERS", 4),
	}
}

// Validate checks the configuration again after command line overrides
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	if !(config.Defaults.ConfidenceLevel > 0 && config.Defaults.ConfidenceLevel <= 1) {
		return errors.ConfigInvalid(fmt.Sprintf("LABSOLVER_CONFIDENCE must be in (0, 1], got %v", config.Defaults.ConfidenceLevel))
	}
	if config.Defaults.RoundingDigits < 0 {
		return errors.ConfigInvalid("LABSOLVER_ROUND must be positive")
	}
	if config.Engine.Workers < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("workers must be at least 1, got %d", config.Engine.Workers))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat and getEnvInt reject malformed values instead of silently
// falling back, since they change computed numbers
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s is not a number: %q", key, value))
	}
	return floatValue, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s is not an integer: %q", key, value))
	}
	return intValue, nil
}
