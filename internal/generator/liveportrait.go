package generator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Compile-time check that LivePortraitBackend implements Backend.
var _ Backend = (*LivePortraitBackend)(nil)

// LivePortraitBackend animates the uploaded image through the LivePortrait
// inference script. Unlike FFmpegBackend, the script chooses its own output
// name: the path is derived after the fact by convention,
// <outputDir>/<stem>--video.mp4, where stem is the input filename up to the
// first dot.
type LivePortraitBackend struct {
	// pythonPath is the interpreter used to run the script. Defaults to "python".
	pythonPath string
	// scriptPath is the inference entry point, e.g. "inference.py".
	scriptPath string
	// drivingAssetPath is the fixed driving template passed with -d.
	drivingAssetPath string
	// outputDir is where the script writes its animations.
	outputDir string
}

// NewLivePortraitBackend creates a new LivePortraitBackend.
func NewLivePortraitBackend(pythonPath, scriptPath, drivingAssetPath, outputDir string) *LivePortraitBackend {
	if pythonPath == "" {
		pythonPath = "python"
	}
	return &LivePortraitBackend{
		pythonPath:       pythonPath,
		scriptPath:       scriptPath,
		drivingAssetPath: drivingAssetPath,
		outputDir:        outputDir,
	}
}

// Name returns the backend identifier.
func (b *LivePortraitBackend) Name() string { return "liveportrait" }

// OutputPathFor returns the conventional output path for a given input file.
// The inference script names its result after the source image stem.
func (b *LivePortraitBackend) OutputPathFor(inputPath string) string {
	stem, _, _ := strings.Cut(filepath.Base(inputPath), ".")
	return filepath.Join(b.outputDir, stem+"--video.mp4")
}

// Generate runs the inference script against the input image and the fixed
// driving asset. The script ignores duration and fps; they are validated for
// consistency with the request contract but not forwarded.
func (b *LivePortraitBackend) Generate(ctx context.Context, inputPath string, p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	args := []string{
		b.scriptPath,
		"-s", inputPath,
		"-d", b.drivingAssetPath,
	}

	// #nosec G204 - pythonPath and scriptPath are set by the application, not user input
	cmd := exec.CommandContext(ctx, b.pythonPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("inference cancelled: %w", ctx.Err())
		}
		return "", &CommandError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	outputPath := b.OutputPathFor(inputPath)
	if err := checkOutput(outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}
