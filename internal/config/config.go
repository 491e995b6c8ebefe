package config

import (
	"os"
	"strconv"
	"time"

	"ephysval/adapters/stats/datacond"
	"ephysval/domain/stats"
	"ephysval/internal"
	"ephysval/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Log      LogConfig
	Judgment JudgmentConfig
	Batch    BatchConfig
	Server   ServerConfig
	Datacond datacond.Options
}

// LogConfig holds logging settings
type LogConfig struct {
	Level internal.LogLevel
}

// JudgmentConfig holds hypothesis-test settings
type JudgmentConfig struct {
	Confidence   stats.ConfidenceLevel
	ModelTimeout time.Duration // 0 means no timeout
}

// BatchConfig holds settings for running many judgments
type BatchConfig struct {
	Concurrency int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	level, ok := internal.ParseLogLevel(getEnvOrDefault("LOG_LEVEL", "INFO"))
	if !ok {
		return nil, errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG, TRACE")
	}
	config.Log = LogConfig{Level: level}

	judgmentConfig, err := loadJudgmentConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load judgment configuration")
	}
	config.Judgment = *judgmentConfig

	config.Datacond = loadDatacondConfig()
	config.Batch = BatchConfig{Concurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 4)}
	config.Server = ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadJudgmentConfig() (*JudgmentConfig, error) {
	confidence := stats.DefaultConfidence
	if value := os.Getenv("CONFIDENCE_LEVEL"); value != "" {
		c, err := stats.ParseConfidenceLevel(value)
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
		confidence = c
	}

	return &JudgmentConfig{
		Confidence:   confidence,
		ModelTimeout: getEnvDurationOrDefault("MODEL_TIMEOUT", 0),
	}, nil
}

func loadDatacondConfig() datacond.Options {
	def := datacond.DefaultOptions()
	return datacond.Options{
		MinSampleSizeForMeans:     getEnvIntOrDefault("MIN_SAMPLE_SIZE_FOR_MEANS", def.MinSampleSizeForMeans),
		MinSampleSizeForNormality: getEnvIntOrDefault("MIN_SAMPLE_SIZE_FOR_NORMALITY", def.MinSampleSizeForNormality),
		NormalityAlpha:            getEnvFloatOrDefault("NORMALITY_ALPHA", def.NormalityAlpha),
	}
}

func validateConfig(config *Config) error {
	if config.Batch.Concurrency < 1 {
		return errors.ConfigInvalid("BATCH_CONCURRENCY must be at least 1")
	}
	if config.Datacond.MinSampleSizeForMeans < 2 {
		return errors.ConfigInvalid("MIN_SAMPLE_SIZE_FOR_MEANS must be at least 2")
	}
	if config.Datacond.MinSampleSizeForNormality < 3 {
		return errors.ConfigInvalid("MIN_SAMPLE_SIZE_FOR_NORMALITY must be at least 3")
	}
	if a := config.Datacond.NormalityAlpha; a <= 0 || a >= 1 {
		return errors.ConfigInvalid("NORMALITY_ALPHA must be in (0, 1)")
	}
	if config.Judgment.ModelTimeout < 0 {
		return errors.ConfigInvalid("MODEL_TIMEOUT must not be negative")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
