// Package generator provides the pluggable generation backends that turn an
// uploaded image into a video. Backends wrap external programs (the ffmpeg
// CLI or the LivePortrait inference script) invoked as subprocesses with a
// file-path contract; arguments are always passed as a discrete argv, never
// through a shell.
package generator

import (
	"context"
	"errors"
	"fmt"
)

// Static errors for generation operations.
var (
	// ErrInvalidDuration is returned when duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	// ErrInvalidFPS is returned when the frame rate is not positive.
	ErrInvalidFPS = errors.New("invalid fps: must be positive")
	// ErrOutputMissing is returned when the external process exited zero but
	// the expected output file is absent or empty. This is surfaced as a
	// distinct failure, never as success.
	ErrOutputMissing = errors.New("generation process produced no output file")
)

// Params contains the per-request generation parameters.
type Params struct {
	// DurationSec is the output video duration in seconds.
	DurationSec int
	// FPS is the output frame rate.
	FPS int
}

// Validate checks that the parameters are usable by a backend.
// Range bounds are enforced at the HTTP layer; backends only reject
// values that would make the invocation nonsensical.
func (p Params) Validate() error {
	if p.DurationSec <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDuration, p.DurationSec)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidFPS, p.FPS)
	}
	return nil
}

// Backend defines the interface for video generation providers.
// Generate blocks until the external process finishes and returns the path
// of the produced video. Implementations must verify the output exists
// before reporting success and must honor ctx cancellation by killing the
// child process.
type Backend interface {
	// Name returns a short identifier for logging.
	Name() string

	// Generate turns the image at inputPath into a video and returns the
	// output path.
	Generate(ctx context.Context, inputPath string, p Params) (outputPath string, err error)
}

// CommandError represents a failed external process invocation,
// including the stderr output.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
