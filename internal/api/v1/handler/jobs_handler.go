package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// JobsHandler handles Pub/Sub push deliveries for background jobs.
type JobsHandler struct {
	pageSvc service.PageService
	logger  zerolog.Logger
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(pageSvc service.PageService, logger zerolog.Logger) *JobsHandler {
	return &JobsHandler{pageSvc: pageSvc, logger: logger}
}

// RegisterRoutes mounts the job endpoints behind the push auth middleware.
func (h *JobsHandler) RegisterRoutes(mux *http.ServeMux, pushAuthMw func(http.Handler) http.Handler) {
	mux.Handle("/jobs/generate-pages", pushAuthMw(http.HandlerFunc(h.generatePages)))
}

// generatePages godoc
// @Summary Page generation push worker
// @Description Consumes a page generation job delivered by Pub/Sub push and fills in the story's missing pages. Idempotent; redelivered jobs generate nothing new.
// @Tags jobs
// @Accept json
// @Success 200 {string} string "Job processed"
// @Success 204 {string} string "Malformed job acknowledged and dropped"
// @Failure 400 {string} string "Invalid push envelope"
// @Failure 500 {string} string "Generation failed; Pub/Sub will redeliver"
// @Router /jobs/generate-pages [post]
func (h *JobsHandler) generatePages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.PubSubPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid push envelope: "+err.Error(), http.StatusBadRequest)
		return
	}
	payload, err := base64.StdEncoding.DecodeString(req.Message.Data)
	if err != nil {
		// Redelivery cannot fix a malformed payload, so acknowledge it
		// and drop the job.
		h.logger.Warn().Err(err).Str("message_id", req.Message.MessageID).Msg("Dropping job with undecodable payload")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var job service.PageJob
	if err := json.Unmarshal(payload, &job); err != nil || job.StoryID == "" {
		h.logger.Warn().Err(err).Str("message_id", req.Message.MessageID).Msg("Dropping job with invalid payload")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	generated, total, err := h.pageSvc.GenerateMissingPages(r.Context(), job.StoryID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			// The story is gone; acknowledge so the job is not redelivered.
			h.logger.Warn().Str("story_id", job.StoryID).Msg("Dropping job for missing story")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		// Non-2xx makes Pub/Sub redeliver; generation is idempotent so
		// retries are safe.
		h.logger.Error().Err(err).Str("story_id", job.StoryID).Msg("Page generation job failed")
		http.Error(w, "Generation failed", http.StatusInternalServerError)
		return
	}
	h.logger.Info().Str("story_id", job.StoryID).Int("generated", generated).Int("total", total).Msg("Page generation job processed")
	w.WriteHeader(http.StatusOK)
}
