// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Backend names selectable via GENERATION_BACKEND.
const (
	// BackendFFmpeg renders a static-image video with the ffmpeg CLI.
	BackendFFmpeg = "ffmpeg"
	// BackendLivePortrait animates the image through the LivePortrait
	// inference script.
	BackendLivePortrait = "liveportrait"
)

// Output retention policies selectable via OUTPUT_RETENTION.
const (
	// RetentionKeep leaves generated videos on disk for external harvesting.
	RetentionKeep = "keep"
	// RetentionDelete removes the video right after the response is sent.
	RetentionDelete = "delete"
	// RetentionDelayed removes the video OUTPUT_RETENTION_DELAY_SEC after
	// the response is sent.
	RetentionDelayed = "delayed"
)

// Static errors for configuration validation.
var (
	// ErrUnknownBackend is returned when GENERATION_BACKEND is not recognized.
	ErrUnknownBackend = errors.New("config: unknown GENERATION_BACKEND")
	// ErrUnknownRetention is returned when OUTPUT_RETENTION is not recognized.
	ErrUnknownRetention = errors.New("config: unknown OUTPUT_RETENTION")
	// ErrNonPositiveLimit is returned when a numeric limit is zero or negative.
	ErrNonPositiveLimit = errors.New("config: limit must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Generation settings
	Backend          string `env:"GENERATION_BACKEND, default=ffmpeg" json:"backend"`
	FFmpegPath       string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	PythonPath       string `env:"PYTHON_PATH, default=python" json:"python_path"`
	InferenceScript  string `env:"INFERENCE_SCRIPT, default=inference.py" json:"inference_script"`
	DrivingAssetPath string `env:"DRIVING_ASSET_PATH, default=assets/examples/driving/video.pkl" json:"driving_asset_path"`

	// Storage settings
	TempDir   string `env:"TEMP_DIR, default=temp_files" json:"temp_dir"`
	OutputDir string `env:"OUTPUT_DIR, default=animations" json:"output_dir"`

	// Processing settings
	MaxConcurrentGenerations int `env:"MAX_CONCURRENT_GENERATIONS, default=2" json:"max_concurrent_generations"`
	GenerationTimeoutSec     int `env:"GENERATION_TIMEOUT_SEC, default=300" json:"generation_timeout_sec"`

	// Output retention settings
	OutputRetention         string `env:"OUTPUT_RETENTION, default=keep" json:"output_retention"`
	OutputRetentionDelaySec int    `env:"OUTPUT_RETENTION_DELAY_SEC, default=600" json:"output_retention_delay_sec"`

	// Optional S3 settings (object-store transfers and upload=true responses)
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if any value fails validation.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all configuration values are coherent.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendFFmpeg, BackendLivePortrait:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}

	switch strings.ToLower(c.OutputRetention) {
	case RetentionKeep, RetentionDelete, RetentionDelayed:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRetention, c.OutputRetention)
	}

	if c.MaxConcurrentGenerations <= 0 {
		return fmt.Errorf("%w: MAX_CONCURRENT_GENERATIONS=%d", ErrNonPositiveLimit, c.MaxConcurrentGenerations)
	}
	if c.GenerationTimeoutSec <= 0 {
		return fmt.Errorf("%w: GENERATION_TIMEOUT_SEC=%d", ErrNonPositiveLimit, c.GenerationTimeoutSec)
	}
	if c.OutputRetentionDelaySec <= 0 {
		return fmt.Errorf("%w: OUTPUT_RETENTION_DELAY_SEC=%d", ErrNonPositiveLimit, c.OutputRetentionDelaySec)
	}

	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, Backend: %s, TempDir: %s, OutputDir: %s, MaxConcurrentGenerations: %d, GenerationTimeoutSec: %d, OutputRetention: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.Backend,
		c.TempDir,
		c.OutputDir,
		c.MaxConcurrentGenerations,
		c.GenerationTimeoutSec,
		c.OutputRetention,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
