package handler

import (
	"errors"
	"html/template"
	"net/http"

	"app/internal/service"

	"github.com/rs/zerolog"
)

// reminderPage is the confirmation card shown to users following the
// opt-out link from a reminder email. It must render standalone; there is
// no app shell around it.
var reminderPage = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; background: #f6f4fb; margin: 0; display: flex; justify-content: center; align-items: center; min-height: 100vh; }
.card { background: #fff; border-radius: 12px; box-shadow: 0 2px 12px rgba(0,0,0,.08); padding: 2.5rem; max-width: 22rem; text-align: center; }
h1 { font-size: 1.25rem; margin: 0 0 .75rem; }
p { color: #555; margin: 0; }
</style>
</head>
<body>
<div class="card">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</div>
</body>
</html>
`))

type reminderPageData struct {
	Title   string
	Message string
}

// ReminderHandler handles the public reminder opt-out endpoint.
type ReminderHandler struct {
	reminderSvc service.ReminderService
	logger      zerolog.Logger
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(reminderSvc service.ReminderService, logger zerolog.Logger) *ReminderHandler {
	return &ReminderHandler{reminderSvc: reminderSvc, logger: logger}
}

// RegisterRoutes mounts the opt-out route behind the IP rate limiter. The
// endpoint is unauthenticated; the token itself is the credential.
func (h *ReminderHandler) RegisterRoutes(mux *http.ServeMux, rateLimitMw func(http.Handler) http.Handler) {
	mux.Handle("/reminders/disable", rateLimitMw(http.HandlerFunc(h.disable)))
}

// disable godoc
// @Summary Disable reminder emails
// @Description Consumes a single-use opt-out token from a reminder email and turns off the user's reminders. Responds with a human-readable HTML card in every case.
// @Tags reminders
// @Produce html
// @Param token query string true "Opt-out token"
// @Success 200 {string} string "Reminders disabled"
// @Failure 400 {string} string "Missing or malformed token"
// @Failure 404 {string} string "Unknown token"
// @Failure 409 {string} string "Token already used"
// @Failure 410 {string} string "Token expired"
// @Router /reminders/disable [get]
func (h *ReminderHandler) disable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	token := r.URL.Query().Get("token")
	if !service.TokenPattern.MatchString(token) {
		h.renderCard(w, http.StatusBadRequest, "Invalid link", "This link is not valid. Please use the link from your most recent reminder email.")
		return
	}

	err := h.reminderSvc.DisableReminders(r.Context(), token)
	switch {
	case err == nil:
		h.renderCard(w, http.StatusOK, "Reminders disabled", "You will no longer receive bedtime story reminders. You can turn them back on any time in the app settings.")
	case errors.Is(err, service.ErrTokenUsed):
		h.renderCard(w, http.StatusConflict, "Link already used", "This link was already used. Reminders stay off until you re-enable them in the app settings.")
	case errors.Is(err, service.ErrTokenExpired):
		h.renderCard(w, http.StatusGone, "Link expired", "This link has expired. You can manage reminders in the app settings.")
	case errors.Is(err, service.ErrNotFound):
		h.renderCard(w, http.StatusNotFound, "Invalid link", "This link is not valid. Please use the link from your most recent reminder email.")
	default:
		h.logger.Error().Err(err).Msg("Failed to disable reminders")
		h.renderCard(w, http.StatusInternalServerError, "Something went wrong", "We could not update your reminder settings. Please try again later.")
	}
}

func (h *ReminderHandler) renderCard(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := reminderPage.Execute(w, reminderPageData{Title: title, Message: message}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render reminder page")
	}
}
