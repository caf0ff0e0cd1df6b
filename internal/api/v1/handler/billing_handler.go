package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// BillingHandler handles checkout, webhook and balance endpoints.
type BillingHandler struct {
	stripeSvc *service.StripeService
	creditSvc service.CreditService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(stripeSvc *service.StripeService, creditSvc service.CreditService, validate *validator.Validate, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{stripeSvc: stripeSvc, creditSvc: creditSvc, validate: validate, logger: logger}
}

// RegisterRoutes mounts billing routes. The webhook endpoint takes no auth
// middleware; it is authenticated by the Stripe signature instead.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/billing/checkout", authMw(http.HandlerFunc(h.checkout)))
	mux.Handle("/billing/credits", authMw(http.HandlerFunc(h.credits)))
	mux.HandleFunc("/billing/webhook", h.webhook)
}

// checkout godoc
// @Summary Create a Stripe Checkout session
// @Description Creates a Checkout session for a subscription plan or a credit package and returns its URL.
// @Tags billing
// @Accept json
// @Produce json
// @Param request body dto.CheckoutRequestDTO true "Checkout request"
// @Success 200 {object} dto.CheckoutResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to create checkout session"
// @Router /billing/checkout [post]
func (h *BillingHandler) checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	sessionID, url, err := h.stripeSvc.CreateCheckoutSession(r.Context(), userID, req.Type, req.Plan, req.PackageID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Str("type", req.Type).Msg("Failed to create checkout session")
		http.Error(w, "Failed to create checkout session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.CheckoutResponseDTO{SessionID: sessionID, URL: url})
}

// webhook godoc
// @Summary Stripe webhook receiver
// @Description Verifies the Stripe signature and reconciles billing state from the event.
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {string} string "Signature verification failed"
// @Router /billing/webhook [post]
func (h *BillingHandler) webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.stripeSvc.HandleWebhook(w, r)
}

// credits godoc
// @Summary Get credit balance and subscription state
// @Description Returns the user's current credit balance and, when present, a summary of the cached subscription.
// @Tags billing
// @Produce json
// @Success 200 {object} dto.CreditsResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to retrieve credits"
// @Router /billing/credits [get]
func (h *BillingHandler) credits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	balance, err := h.creditSvc.GetBalance(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to retrieve credit balance")
		http.Error(w, "Failed to retrieve credits", http.StatusInternalServerError)
		return
	}
	resp := dto.CreditsResponseDTO{Credits: balance}
	sub, err := h.creditSvc.GetSubscription(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to retrieve subscription")
		http.Error(w, "Failed to retrieve credits", http.StatusInternalServerError)
		return
	}
	if sub != nil {
		resp.Subscription = &dto.SubscriptionSummary{
			Status:            sub.Status,
			PlanID:            sub.PlanID,
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			Active:            sub.IsCurrentlyActive(time.Now()),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
