package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/jasonliu0704/LivePortrait/internal/generator"
	"github.com/jasonliu0704/LivePortrait/internal/job"
)

// Request defaults and limits for the generation endpoint.
const (
	defaultDurationSec = 5
	defaultFPS         = 30
	// maxUploadBytes caps the multipart memory buffer; larger uploads spill
	// to disk via the multipart reader.
	maxUploadBytes = 32 << 20
	// downloadFilename is the suggested filename for every generated video,
	// regardless of the server-side name.
	downloadFilename = "generated_video.mp4"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *job.GenerateService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.GenerateService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GenerateVideo handles POST /image-video (and its /generate-video alias).
// It accepts a multipart form with an "image" file and optional "duration"
// and "fps" integer fields, runs the configured generation backend, and
// streams the resulting video back.
func (h *Handlers) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart body", "INVALID_MULTIPART")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required", "MISSING_IMAGE")
		return
	}
	defer func() { _ = file.Close() }()

	var params GenerateParams
	if params.DurationSec, err = formInt(r, "duration", defaultDurationSec); err != nil {
		writeError(w, http.StatusBadRequest, "duration must be an integer", "INVALID_PARAMETER")
		return
	}
	if params.FPS, err = formInt(r, "fps", defaultFPS); err != nil {
		writeError(w, http.StatusBadRequest, "fps must be an integer", "INVALID_PARAMETER")
		return
	}

	if err := h.validator.Struct(params); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	upload := formBool(r, "upload")

	result, err := h.service.Generate(r.Context(), job.GenerateInput{
		Filename:    header.Filename,
		Image:       file,
		DurationSec: params.DurationSec,
		FPS:         params.FPS,
		Upload:      upload,
	})
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}

	if upload {
		writeJSON(w, http.StatusOK, UploadResponse{VideoURL: result.VideoURL})
		return
	}

	h.streamVideo(w, result)
}

// streamVideo sends the generated file as the response body and then applies
// the output retention policy.
func (h *Handlers) streamVideo(w http.ResponseWriter, result *job.GenerateResult) {
	defer h.service.ReleaseOutput(result.OutputPath)

	f, err := os.Open(result.OutputPath) // #nosec G304 - path produced by the backend, not user input
	if err != nil {
		h.logger.Error("failed to open output video",
			slog.String("job_id", result.Job.ID),
			slog.String("path", result.OutputPath),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read generated video", "OUTPUT_READ_FAILED")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read generated video", "OUTPUT_READ_FAILED")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadFilename))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))

	if _, err := io.Copy(w, f); err != nil {
		// Headers are already out; all we can do is log the broken stream.
		h.logger.Warn("video stream interrupted",
			slog.String("job_id", result.Job.ID),
			slog.String("error", err.Error()),
		)
	}
}

// writeGenerateError maps generation failures to response codes.
// Validation problems are the client's fault; a backend that failed or lied
// about its output is a bad gateway; everything else is internal.
func (h *Handlers) writeGenerateError(w http.ResponseWriter, err error) {
	var cmdErr *generator.CommandError
	switch {
	case errors.Is(err, job.ErrUploadNotConfigured):
		writeError(w, http.StatusBadRequest, "object store upload is not configured", "UPLOAD_NOT_CONFIGURED")
	case errors.Is(err, generator.ErrInvalidDuration), errors.Is(err, generator.ErrInvalidFPS):
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, generator.ErrOutputMissing):
		writeError(w, http.StatusBadGateway, "generation process produced no output", "OUTPUT_MISSING")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "video generation timed out", "GENERATION_TIMEOUT")
	case errors.As(err, &cmdErr):
		writeError(w, http.StatusBadGateway, "video generation failed", "GENERATION_FAILED")
	default:
		writeError(w, http.StatusInternalServerError, "video generation failed", "INTERNAL_ERROR")
	}
}

// ListJobs handles GET /jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list work items",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	resp := JobListResponse{Jobs: make([]JobResponse, 0, len(items))}
	for _, item := range items {
		resp.Jobs = append(resp.Jobs, toJobResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	item, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get work item",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(item))
}

// toJobResponse converts a work item to its DTO.
func toJobResponse(item *job.Job) JobResponse {
	return JobResponse{
		ID:          item.ID,
		Status:      string(item.Status),
		Filename:    item.Filename,
		DurationSec: item.DurationSec,
		FPS:         item.FPS,
		Error:       item.Error,
		VideoURL:    item.VideoURL,
		CreatedAt:   item.CreatedAt,
		CompletedAt: item.CompletedAt,
	}
}

// formInt reads an optional integer form field, falling back to def when the
// field is absent or blank.
func formInt(r *http.Request, field string, def int) (int, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// formBool reads an optional boolean form field; absent or unparsable means false.
func formBool(r *http.Request, field string) bool {
	v, err := strconv.ParseBool(r.FormValue(field))
	return err == nil && v
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
