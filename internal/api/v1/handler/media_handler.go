package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// MediaHandler handles signed image URL endpoints.
type MediaHandler struct {
	mediaSvc service.MediaService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaSvc service.MediaService, validate *validator.Validate, logger zerolog.Logger) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc, validate: validate, logger: logger}
}

// RegisterRoutes mounts media routes.
func (h *MediaHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/media/url", authMw(http.HandlerFunc(h.imageURL)))
}

// imageURL godoc
// @Summary Get signed image URLs
// @Description Returns short-lived signed URLs for a hero portrait, a batch of hero portraits, or a story page illustration. In batch mode, ids the user does not own are omitted without error.
// @Tags media
// @Accept json
// @Produce json
// @Param request body dto.ImageURLRequestDTO true "Image URL request"
// @Success 200 {object} dto.ImageURLResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Image not found"
// @Failure 500 {string} string "Failed to sign image URL"
// @Router /media/url [post]
func (h *MediaHandler) imageURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.ImageURLRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case len(req.HeroIDs) > 0:
		urls, err := h.mediaSvc.GetHeroImageURLs(r.Context(), userID, req.HeroIDs)
		if err != nil {
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to sign hero image URLs")
			http.Error(w, "Failed to sign image URL", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, dto.ImageURLBatchResponseDTO{URLs: urls})
	case req.HeroID != "":
		url, err := h.mediaSvc.GetHeroImageURL(r.Context(), userID, req.HeroID)
		h.writeSingle(w, url, err)
	case req.StoryID != "":
		if req.PageNumber < 1 {
			http.Error(w, "Validation failed: pageNumber is required with storyId", http.StatusBadRequest)
			return
		}
		url, err := h.mediaSvc.GetStoryPageImageURL(r.Context(), userID, req.StoryID, req.PageNumber)
		h.writeSingle(w, url, err)
	default:
		http.Error(w, "Validation failed: one of heroId, heroIds or storyId is required", http.StatusBadRequest)
	}
}

func (h *MediaHandler) writeSingle(w http.ResponseWriter, url string, err error) {
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrForbidden) {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("Failed to sign image URL")
		http.Error(w, "Failed to sign image URL", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.ImageURLResponseDTO{URL: url})
}
