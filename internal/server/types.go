// Package server provides the HTTP server for the LivePortrait API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// GenerateParams carries the validated numeric parameters of a generation
// request. Bounds keep the external encoder invocation sane: duration in
// [1,600] seconds, fps in [1,120].
type GenerateParams struct {
	// DurationSec is the output video duration in seconds.
	DurationSec int `validate:"min=1,max=600"`
	// FPS is the output frame rate.
	FPS int `validate:"min=1,max=120"`
}

// UploadResponse is returned when the client requested an object-store
// upload instead of a streamed video.
type UploadResponse struct {
	// VideoURL is the object-store URL of the generated video.
	VideoURL string `json:"video_url"`
}

// JobResponse describes one work item in the registry.
type JobResponse struct {
	// ID is the unique identifier for the work item.
	ID string `json:"id"`
	// Status is the current state.
	Status string `json:"status"`
	// Filename is the original uploaded filename.
	Filename string `json:"filename"`
	// DurationSec is the requested video duration in seconds.
	DurationSec int `json:"duration_sec"`
	// FPS is the requested frame rate.
	FPS int `json:"fps"`
	// Error contains the failure reason if the work item failed.
	Error string `json:"error,omitempty"`
	// VideoURL is the object-store URL when an upload was requested.
	VideoURL string `json:"video_url,omitempty"`
	// CreatedAt is when the request was received.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the work item reached a terminal state.
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// JobListResponse is the HTTP response for listing work items.
type JobListResponse struct {
	// Jobs contains the recorded work items.
	Jobs []JobResponse `json:"jobs"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
