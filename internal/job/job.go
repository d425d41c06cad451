// Package job provides the request work item aggregate for image-to-video
// generation. A work item tracks one in-flight request's input and output
// files through a small state machine, and the package includes repository
// interfaces for keeping a process-lifetime registry of recent items.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/jasonliu0704/LivePortrait/internal/job/id"
)

// Status represents the current state of a work item.
type Status string

const (
	// StatusReceived indicates the request has been accepted but the upload
	// has not been written to disk yet.
	StatusReceived Status = "RECEIVED"
	// StatusInputStored indicates the uploaded image has been written to a
	// temporary file.
	StatusInputStored Status = "INPUT_STORED"
	// StatusProcessing indicates the generation backend is running.
	StatusProcessing Status = "PROCESSING"
	// StatusSucceeded indicates the backend produced an output video.
	StatusSucceeded Status = "SUCCEEDED"
	// StatusFailed indicates the request failed at any stage.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusReceived:    {StatusInputStored, StatusFailed},
	StatusInputStored: {StatusProcessing, StatusFailed},
	StatusProcessing:  {StatusSucceeded, StatusFailed},
	StatusSucceeded:   {},
	StatusFailed:      {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents one image-to-video request work item.
// It owns exactly one input file on disk for its lifetime and references
// (but does not own) the output file produced by the generation backend.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this work item.
	ID string
	// Filename is the original uploaded filename, as sent by the client.
	Filename string
	// Status is the current state.
	Status Status
	// DurationSec is the requested video duration in seconds.
	DurationSec int
	// FPS is the requested frame rate.
	FPS int
	// InputPath is the temporary file holding the uploaded image.
	InputPath string
	// OutputPath is the video file produced by the backend.
	OutputPath string
	// Upload indicates the result should be pushed to the object store.
	Upload bool
	// VideoURL is the object-store URL when Upload was requested.
	VideoURL string
	// Error contains the failure reason when Status is FAILED.
	Error string
	// CreatedAt is when the request was received.
	CreatedAt time.Time
	// UpdatedAt is when the work item was last updated.
	UpdatedAt time.Time
	// StartedAt is when backend processing started.
	StartedAt time.Time
	// CompletedAt is when the work item reached a terminal state.
	CompletedAt time.Time
}

// New creates a new work item with a generated ID and initial RECEIVED status.
func New(filename string, durationSec, fps int) *Job {
	now := time.Now()
	return &Job{
		ID:          id.Generate(),
		Filename:    filename,
		Status:      StatusReceived,
		DurationSec: durationSec,
		FPS:         fps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TransitionTo attempts to change the work item status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusProcessing:
		j.StartedAt = j.UpdatedAt
	case StatusSucceeded, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// MarkInputStored records the temporary input path and transitions the work
// item from RECEIVED to INPUT_STORED.
func (j *Job) MarkInputStored(inputPath string) error {
	j.mu.Lock()
	j.InputPath = inputPath
	j.mu.Unlock()
	return j.TransitionTo(StatusInputStored)
}

// Start transitions the work item from INPUT_STORED to PROCESSING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusProcessing)
}

// Succeed records the output path and transitions the work item to SUCCEEDED.
func (j *Job) Succeed(outputPath string) error {
	j.mu.Lock()
	j.OutputPath = outputPath
	j.mu.Unlock()
	return j.TransitionTo(StatusSucceeded)
}

// Fail transitions the work item to FAILED with an error message.
// Failing is allowed from any non-terminal state.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// SetVideoURL records the object-store URL of the uploaded result.
func (j *Job) SetVideoURL(url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.VideoURL = url
	j.UpdatedAt = time.Now()
}

// GetStatus returns the current status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the work item is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusSucceeded || j.Status == StatusFailed
}

// Clone creates a deep copy of the work item for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Filename:    j.Filename,
		Status:      j.Status,
		DurationSec: j.DurationSec,
		FPS:         j.FPS,
		InputPath:   j.InputPath,
		OutputPath:  j.OutputPath,
		Upload:      j.Upload,
		VideoURL:    j.VideoURL,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
