package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/jobscout-api/internal/api/shared"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/service"
)

// UnsubscribeHandler serves the unsubscribe link sent in every digest.
type UnsubscribeHandler struct {
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewUnsubscribeHandler creates an UnsubscribeHandler.
func NewUnsubscribeHandler(subscriptions service.SubscriptionService, log *slog.Logger) *UnsubscribeHandler {
	return &UnsubscribeHandler{
		subscriptions: subscriptions,
		logger:        log.With("component", "unsubscribe_handler"),
	}
}

// Unsubscribe serves GET /unsubscribe?token=.
func (h *UnsubscribeHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email, err := h.subscriptions.Unsubscribe(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if shared.WantsJSON(r) {
			HandleAPIError(w, r, err)
			return
		}
		status := MapErrorToStatusCode(err)
		shared.LogError(r, status, "unsubscribe failed", err)
		renderPage(w, r, status, "unsubscribe.html", pageData{Title: "Unsubscribe"})
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).InfoContext(r.Context(), "user unsubscribed")
	if shared.WantsJSON(r) {
		shared.RespondWithJSON(w, r, http.StatusOK, UnsubscribeResponse{Email: email, Unsubscribed: true})
		return
	}
	renderPage(w, r, http.StatusOK, "unsubscribe.html", pageData{Title: "Unsubscribed", Email: email})
}
