package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jasonliu0704/LivePortrait/internal/generator"
	"github.com/jasonliu0704/LivePortrait/internal/storage"
)

// ErrUploadNotConfigured is returned when a request asks for an object-store
// upload but no object store is configured.
var ErrUploadNotConfigured = errors.New("object store upload requested but not configured")

// RetentionPolicy controls what happens to the output video after the
// response has been sent.
type RetentionPolicy string

const (
	// RetentionKeep leaves outputs on disk for a separate harvesting process.
	RetentionKeep RetentionPolicy = "keep"
	// RetentionDelete removes the output immediately after the response.
	RetentionDelete RetentionPolicy = "delete"
	// RetentionDelayed removes the output after a configurable delay.
	RetentionDelayed RetentionPolicy = "delayed"
)

// GenerateInput contains the input for one generation request.
type GenerateInput struct {
	// Filename is the original uploaded filename.
	Filename string
	// Image is the uploaded image payload.
	Image io.Reader
	// DurationSec is the requested video duration in seconds.
	DurationSec int
	// FPS is the requested frame rate.
	FPS int
	// Upload requests pushing the result to the object store instead of
	// streaming it back.
	Upload bool
}

// GenerateResult contains the outcome of a successful generation.
type GenerateResult struct {
	// Job is a clone of the finished work item.
	Job *Job
	// OutputPath is the local path of the generated video.
	OutputPath string
	// VideoURL is the object-store URL when Upload was requested.
	VideoURL string
}

// GenerateService orchestrates the request-scoped file lifecycle:
// store the upload, invoke the generation backend under a concurrency cap
// and timeout, locate the output, and guarantee input cleanup on every exit
// path. One failed request never affects subsequent ones.
type GenerateService struct {
	repo    Repository
	temp    storage.TempStore
	backend generator.Backend
	objects storage.Uploader
	logger  *slog.Logger

	// sem bounds concurrent external-process launches.
	sem            chan struct{}
	timeout        time.Duration
	retention      RetentionPolicy
	retentionDelay time.Duration
}

// ServiceOption configures a GenerateService.
type ServiceOption func(*GenerateService)

// WithObjectStore enables upload=true requests against the given store.
func WithObjectStore(objects storage.Uploader) ServiceOption {
	return func(s *GenerateService) {
		s.objects = objects
	}
}

// WithMaxConcurrent caps the number of concurrent backend invocations.
func WithMaxConcurrent(n int) ServiceOption {
	return func(s *GenerateService) {
		if n > 0 {
			s.sem = make(chan struct{}, n)
		}
	}
}

// WithTimeout sets the per-generation wall-clock limit.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *GenerateService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetention sets the output retention policy. The delay only applies to
// RetentionDelayed.
func WithRetention(policy RetentionPolicy, delay time.Duration) ServiceOption {
	return func(s *GenerateService) {
		s.retention = policy
		s.retentionDelay = delay
	}
}

// NewGenerateService creates a new GenerateService.
func NewGenerateService(repo Repository, temp storage.TempStore, backend generator.Backend, logger *slog.Logger, opts ...ServiceOption) *GenerateService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &GenerateService{
		repo:      repo,
		temp:      temp,
		backend:   backend,
		logger:    logger,
		sem:       make(chan struct{}, 2),
		timeout:   5 * time.Minute,
		retention: RetentionKeep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate runs one request through the full lifecycle:
// RECEIVED -> INPUT_STORED -> PROCESSING -> SUCCEEDED or FAILED.
// The temporary input file is removed exactly once before Generate returns,
// on every path including backend failure and cancellation.
func (s *GenerateService) Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error) {
	item := New(input.Filename, input.DurationSec, input.FPS)
	item.Upload = input.Upload

	s.logger.Info("generation request received",
		slog.String("job_id", item.ID),
		slog.String("filename", input.Filename),
		slog.Int("duration_sec", input.DurationSec),
		slog.Int("fps", input.FPS),
		slog.String("backend", s.backend.Name()),
	)

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save work item: %w", err)
	}

	inputPath, err := s.temp.SaveTemp(ctx, input.Filename, input.Image)
	if err != nil {
		s.fail(ctx, item, fmt.Errorf("store upload: %w", err))
		return nil, fmt.Errorf("store upload: %w", err)
	}

	// The one ordering guarantee: the input file outlives the backend call
	// and is gone before control returns, success or failure. WithoutCancel
	// keeps cleanup working when the request context is already dead.
	defer func() {
		if cleanupErr := s.temp.CleanupTemp(context.WithoutCancel(ctx), []string{inputPath}); cleanupErr != nil {
			s.logger.Error("failed to remove temp input",
				slog.String("job_id", item.ID),
				slog.String("path", inputPath),
				slog.String("error", cleanupErr.Error()),
			)
		}
	}()

	if err := item.MarkInputStored(inputPath); err != nil {
		return nil, err
	}
	_ = s.repo.Save(ctx, item)

	// Bounded admission for heavy subprocess launches.
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		s.fail(ctx, item, fmt.Errorf("wait for worker slot: %w", ctx.Err()))
		return nil, fmt.Errorf("wait for worker slot: %w", ctx.Err())
	}

	if err := item.Start(); err != nil {
		return nil, err
	}
	_ = s.repo.Save(ctx, item)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outputPath, err := s.backend.Generate(genCtx, inputPath, generator.Params{
		DurationSec: input.DurationSec,
		FPS:         input.FPS,
	})
	if err != nil {
		s.fail(ctx, item, err)
		return nil, fmt.Errorf("generate video: %w", err)
	}

	var videoURL string
	if input.Upload {
		videoURL, err = s.uploadOutput(ctx, item, outputPath)
		if err != nil {
			s.fail(ctx, item, err)
			return nil, err
		}
		item.SetVideoURL(videoURL)
	}

	if err := item.Succeed(outputPath); err != nil {
		return nil, err
	}
	_ = s.repo.Save(ctx, item)

	s.logger.Info("generation succeeded",
		slog.String("job_id", item.ID),
		slog.String("output", outputPath),
	)

	return &GenerateResult{
		Job:        item.Clone(),
		OutputPath: outputPath,
		VideoURL:   videoURL,
	}, nil
}

// uploadOutput pushes the generated video to the object store.
func (s *GenerateService) uploadOutput(ctx context.Context, item *Job, outputPath string) (string, error) {
	if s.objects == nil {
		return "", ErrUploadNotConfigured
	}

	f, err := os.Open(outputPath) // #nosec G304 - path produced by the backend, not user input
	if err != nil {
		return "", fmt.Errorf("open output video: %w", err)
	}
	defer func() { _ = f.Close() }()

	url, err := s.objects.Upload(ctx, "videos/"+filepath.Base(outputPath), f)
	if err != nil {
		return "", fmt.Errorf("upload output video: %w", err)
	}

	s.logger.Info("output uploaded",
		slog.String("job_id", item.ID),
		slog.String("video_url", url),
	)
	return url, nil
}

// ReleaseOutput applies the configured retention policy to an output file
// after the response has been sent. With RetentionKeep this is a no-op; the
// file is left for a separate harvesting process.
func (s *GenerateService) ReleaseOutput(outputPath string) {
	switch s.retention {
	case RetentionDelete:
		s.removeOutput(outputPath)
	case RetentionDelayed:
		time.AfterFunc(s.retentionDelay, func() {
			s.removeOutput(outputPath)
		})
	case RetentionKeep:
	}
}

func (s *GenerateService) removeOutput(outputPath string) {
	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error("failed to remove output video",
			slog.String("path", outputPath),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("output video removed",
		slog.String("path", outputPath),
	)
}

// fail marks the work item FAILED and persists it. The original request
// error is what propagates; persistence problems are only logged.
func (s *GenerateService) fail(ctx context.Context, item *Job, cause error) {
	if err := item.Fail(cause.Error()); err != nil {
		s.logger.Error("failed to transition work item",
			slog.String("job_id", item.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.repo.Save(context.WithoutCancel(ctx), item); err != nil {
		s.logger.Error("failed to persist failed work item",
			slog.String("job_id", item.ID),
			slog.String("error", err.Error()),
		)
	}
	s.logger.Error("generation failed",
		slog.String("job_id", item.ID),
		slog.String("error", cause.Error()),
	)
}

// GetJob retrieves a work item by ID.
func (s *GenerateService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all recorded work items.
func (s *GenerateService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}
