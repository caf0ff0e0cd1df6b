package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// HeroHandler handles hero creation and retrieval endpoints.
type HeroHandler struct {
	charSvc  service.CharacterService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHeroHandler creates a new HeroHandler.
func NewHeroHandler(charSvc service.CharacterService, validate *validator.Validate, logger zerolog.Logger) *HeroHandler {
	return &HeroHandler{charSvc: charSvc, validate: validate, logger: logger}
}

// RegisterRoutes mounts hero routes.
func (h *HeroHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/heroes", authMw(http.HandlerFunc(h.createHero)))
	mux.Handle("/heroes/", authMw(http.HandlerFunc(h.getHero)))
}

// createHero godoc
// @Summary Create a new hero
// @Description Creates a hero for the authenticated user, charging credits and counting against the trailing-window creation limit.
// @Tags heroes
// @Accept json
// @Produce json
// @Param hero body dto.HeroCreateDTO true "Hero creation request"
// @Success 200 {object} dto.HeroResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 402 {object} dto.InsufficientCreditsDTO
// @Failure 429 {object} dto.CreationLimitDTO
// @Failure 500 {string} string "Failed to create hero"
// @Router /heroes [post]
func (h *HeroHandler) createHero(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/heroes" {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.HeroCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	ageBand := req.AgeBand
	if ageBand == "" {
		ageBand = model.AgeBandPreschool
	}
	character := &model.Character{
		UserID:            userID,
		Name:              req.Name,
		Archetype:         req.Archetype,
		AgeBand:           ageBand,
		Traits:            req.Traits,
		Icon:              req.Icon,
		SidekickName:      req.SidekickName,
		SidekickArchetype: req.SidekickArchetype,
		PreferredLanguage: req.PreferredLanguage,
	}
	created, remaining, err := h.charSvc.CreateCharacter(r.Context(), character)
	if err != nil {
		var creditsErr *service.InsufficientCreditsError
		if errors.As(err, &creditsErr) {
			writeJSON(w, http.StatusPaymentRequired, dto.InsufficientCreditsDTO{
				Error:           "insufficient_credits",
				CurrentCredits:  creditsErr.CurrentCredits,
				RequiredCredits: creditsErr.RequiredCredits,
			})
			return
		}
		var limitErr *service.CreationLimitError
		if errors.As(err, &limitErr) {
			writeJSON(w, http.StatusTooManyRequests, dto.CreationLimitDTO{
				Error:        "creation_limit_reached",
				CurrentCount: limitErr.CurrentCount,
				MaxAllowed:   limitErr.MaxAllowed,
				ResetsInDays: limitErr.ResetsInDays,
			})
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create hero")
		http.Error(w, "Failed to create hero", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, heroResponse(created, remaining))
}

// getHero godoc
// @Summary Get a hero
// @Description Retrieves a hero owned by the authenticated user.
// @Tags heroes
// @Produce json
// @Param heroId path string true "Hero ID"
// @Success 200 {object} dto.HeroResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Hero not found"
// @Failure 500 {string} string "Failed to retrieve hero"
// @Router /heroes/{heroId} [get]
func (h *HeroHandler) getHero(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	heroID := pathSuffix(r.URL.Path, "/heroes/")
	if heroID == "" {
		http.NotFound(w, r)
		return
	}
	character, err := h.charSvc.GetOwnedCharacter(r.Context(), userID, heroID)
	if err != nil {
		// Ownership failures are reported as not-found so hero ids are
		// not probeable across accounts.
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrForbidden) {
			http.Error(w, "Hero not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("character_id", heroID).Msg("Failed to retrieve hero")
		http.Error(w, "Failed to retrieve hero", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, heroResponse(character, -1))
}

func heroResponse(c *model.Character, remaining int) dto.HeroResponseDTO {
	resp := dto.HeroResponseDTO{
		ID:                c.ID,
		Name:              c.Name,
		Archetype:         c.Archetype,
		AgeBand:           c.AgeBand,
		Traits:            c.Traits,
		Icon:              c.Icon,
		SidekickName:      c.SidekickName,
		SidekickArchetype: c.SidekickArchetype,
		PreferredLanguage: c.PreferredLanguage,
		CreatedAt:         c.CreatedAt,
	}
	if remaining >= 0 {
		resp.RemainingCreations = remaining
	}
	return resp
}
