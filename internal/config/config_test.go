package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendFFmpeg, cfg.Backend)
	assert.Equal(t, "temp_files", cfg.TempDir)
	assert.Equal(t, "animations", cfg.OutputDir)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "python", cfg.PythonPath)
	assert.Equal(t, "inference.py", cfg.InferenceScript)
	assert.Equal(t, "assets/examples/driving/video.pkl", cfg.DrivingAssetPath)
	assert.Equal(t, 2, cfg.MaxConcurrentGenerations)
	assert.Equal(t, 300, cfg.GenerationTimeoutSec)
	assert.Equal(t, RetentionKeep, cfg.OutputRetention)
	assert.Equal(t, 600, cfg.OutputRetentionDelaySec)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("GENERATION_BACKEND", "liveportrait")
	t.Setenv("TEMP_DIR", "/custom/temp")
	t.Setenv("OUTPUT_DIR", "/custom/out")
	t.Setenv("MAX_CONCURRENT_GENERATIONS", "5")
	t.Setenv("GENERATION_TIMEOUT_SEC", "60")
	t.Setenv("OUTPUT_RETENTION", "delayed")
	t.Setenv("OUTPUT_RETENTION_DELAY_SEC", "30")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, BackendLivePortrait, cfg.Backend)
	assert.Equal(t, "/custom/temp", cfg.TempDir)
	assert.Equal(t, "/custom/out", cfg.OutputDir)
	assert.Equal(t, 5, cfg.MaxConcurrentGenerations)
	assert.Equal(t, 60, cfg.GenerationTimeoutSec)
	assert.Equal(t, RetentionDelayed, cfg.OutputRetention)
	assert.Equal(t, 30, cfg.OutputRetentionDelaySec)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("GENERATION_BACKEND", "davinci")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownBackend)
	})

	t.Run("unknown retention", func(t *testing.T) {
		t.Setenv("OUTPUT_RETENTION", "forever")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownRetention)
	})

	t.Run("non-positive concurrency", func(t *testing.T) {
		t.Setenv("MAX_CONCURRENT_GENERATIONS", "0")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNonPositiveLimit)
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		t.Setenv("GENERATION_TIMEOUT_SEC", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNonPositiveLimit)
	})
}

func TestS3Enabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.S3Enabled())

	cfg.S3Bucket = "my-bucket"
	assert.False(t, cfg.S3Enabled())

	cfg.S3Region = "us-east-1"
	assert.True(t, cfg.S3Enabled())
}

func TestNewLogger(t *testing.T) {
	t.Run("text format", func(t *testing.T) {
		cfg := &Config{LogFormat: "text", LogLevel: "info"}
		logger := cfg.NewLogger()
		require.NotNil(t, logger)
	})

	t.Run("json format", func(t *testing.T) {
		cfg := &Config{LogFormat: "json", LogLevel: "debug"}
		logger := cfg.NewLogger()
		require.NotNil(t, logger)
	})
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := &Config{
		Port:               8080,
		Backend:            BackendFFmpeg,
		AWSAccessKeyID:     "AKIA-secret",
		AWSSecretAccessKey: "very-secret",
	}

	s := cfg.String()
	assert.NotContains(t, s, "AKIA-secret")
	assert.NotContains(t, s, "very-secret")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), "level %q", tt.input)
	}
}
