// Package bootstrap provides dependency initialization for the LivePortrait API.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jasonliu0704/LivePortrait/internal/config"
	"github.com/jasonliu0704/LivePortrait/internal/generator"
	"github.com/jasonliu0704/LivePortrait/internal/job"
	"github.com/jasonliu0704/LivePortrait/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	GenerateService *job.GenerateService
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	temp, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create temp storage: %w", err)
	}

	backend, err := initBackend(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("generation backend configured",
		slog.String("backend", backend.Name()),
		slog.String("output_dir", cfg.OutputDir),
	)

	repo := job.NewMemoryRepository()

	opts := []job.ServiceOption{
		job.WithMaxConcurrent(cfg.MaxConcurrentGenerations),
		job.WithTimeout(time.Duration(cfg.GenerationTimeoutSec) * time.Second),
		job.WithRetention(
			job.RetentionPolicy(strings.ToLower(cfg.OutputRetention)),
			time.Duration(cfg.OutputRetentionDelaySec)*time.Second,
		),
	}

	if cfg.S3Enabled() {
		objects, err := storage.NewS3Store(storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create object store: %w", err)
		}
		opts = append(opts, job.WithObjectStore(objects))
		logger.Info("object store configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
	}

	svc := job.NewGenerateService(repo, temp, backend, logger, opts...)

	return &Dependencies{
		GenerateService: svc,
	}, nil
}

// initBackend creates the generation backend selected by configuration.
func initBackend(cfg *config.Config) (generator.Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendFFmpeg:
		backend, err := generator.NewFFmpegBackend(cfg.FFmpegPath, cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("create ffmpeg backend: %w", err)
		}
		return backend, nil
	case config.BackendLivePortrait:
		return generator.NewLivePortraitBackend(
			cfg.PythonPath,
			cfg.InferenceScript,
			cfg.DrivingAssetPath,
			cfg.OutputDir,
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}
