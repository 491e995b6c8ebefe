package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ephysval/domain/stats"
	"ephysval/internal"
	"ephysval/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "CONFIDENCE_LEVEL", "BATCH_CONCURRENCY", "PORT", "GIN_MODE",
		"MIN_SAMPLE_SIZE_FOR_MEANS", "MIN_SAMPLE_SIZE_FOR_NORMALITY", "NORMALITY_ALPHA", "MODEL_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, internal.LogLevelInfo, cfg.Log.Level)
	assert.Equal(t, stats.Confidence95, cfg.Judgment.Confidence)
	assert.Equal(t, time.Duration(0), cfg.Judgment.ModelTimeout)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Datacond.MinSampleSizeForMeans)
	assert.Equal(t, 0.05, cfg.Datacond.NormalityAlpha)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CONFIDENCE_LEVEL", "99%")
	t.Setenv("BATCH_CONCURRENCY", "8")
	t.Setenv("MIN_SAMPLE_SIZE_FOR_MEANS", "20")
	t.Setenv("NORMALITY_ALPHA", "0.01")
	t.Setenv("MODEL_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, internal.LogLevelDebug, cfg.Log.Level)
	assert.Equal(t, stats.Confidence99, cfg.Judgment.Confidence)
	assert.Equal(t, 90*time.Second, cfg.Judgment.ModelTimeout)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, 20, cfg.Datacond.MinSampleSizeForMeans)
	assert.Equal(t, 0.01, cfg.Datacond.NormalityAlpha)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LOG_LEVEL", "chatty"},
		{"CONFIDENCE_LEVEL", "80"},
		{"BATCH_CONCURRENCY", "0"},
		{"NORMALITY_ALPHA", "1.5"},
		{"MIN_SAMPLE_SIZE_FOR_MEANS", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
