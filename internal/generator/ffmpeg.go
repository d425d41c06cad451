package generator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// Compile-time check that FFmpegBackend implements Backend.
var _ Backend = (*FFmpegBackend)(nil)

// FFmpegBackend renders a static-image video using the ffmpeg CLI.
// The output path is chosen up front under outputDir, so it is known
// before the process runs.
type FFmpegBackend struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// outputDir is where generated videos are written.
	outputDir string
}

// NewFFmpegBackend creates a new FFmpegBackend.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
// The output directory is created if it doesn't exist.
func NewFFmpegBackend(ffmpegPath, outputDir string) (*FFmpegBackend, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &FFmpegBackend{ffmpegPath: ffmpegPath, outputDir: outputDir}, nil
}

// Name returns the backend identifier.
func (b *FFmpegBackend) Name() string { return "ffmpeg" }

// Generate loops the input image for the requested duration at the requested
// frame rate and encodes it with libx264.
func (b *FFmpegBackend) Generate(ctx context.Context, inputPath string, p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	outputPath := filepath.Join(b.outputDir, uuid.NewString()+".mp4")

	args := []string{
		"-loop", "1", // Loop the single input image
		"-i", inputPath, // Input image
		"-c:v", "libx264", // Video codec
		"-t", fmt.Sprintf("%d", p.DurationSec), // Duration in seconds
		"-pix_fmt", "yuv420p", // Pixel format for player compatibility
		"-vf", fmt.Sprintf("fps=%d", p.FPS), // Output frame rate
		"-y", // Overwrite output file without asking
		outputPath,
	}

	if err := b.run(ctx, args); err != nil {
		return "", err
	}

	if err := checkOutput(outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// run executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (b *FFmpegBackend) run(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, b.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &CommandError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// checkOutput verifies that the external process actually produced a
// non-empty file at path. A zero exit with no output is still a failure.
func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrOutputMissing, path)
		}
		return fmt.Errorf("stat output file: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrOutputMissing, path)
	}
	return nil
}
