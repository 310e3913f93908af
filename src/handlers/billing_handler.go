package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/username/dealfolio/backend/src/database"
	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/model"
	"github.com/username/dealfolio/backend/src/services"
)

const maxWebhookBodyBytes = 65536

type BillingHandler struct {
	billingService services.BillingService
}

func NewBillingHandler(billingService services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to load user for checkout", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create checkout session", http.StatusInternalServerError)
		return
	}

	checkoutURL, err := h.billingService.CreateCheckoutSession(userID, user.Email)
	if err != nil {
		if errors.Is(err, services.ErrBillingDisabled) {
			sendJSONError(w, "Billing is not enabled on this server", http.StatusServiceUnavailable)
			return
		}
		logger.L.Error("Failed to create checkout session", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create checkout session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": checkoutURL})
}

func (h *BillingHandler) CreatePortalSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	portalURL, err := h.billingService.CreatePortalSession(userID)
	if err != nil {
		if errors.Is(err, services.ErrBillingDisabled) {
			sendJSONError(w, "Billing is not enabled on this server", http.StatusServiceUnavailable)
			return
		}
		logger.L.Error("Failed to create portal session", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create portal session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": portalURL})
}

// HandleStripeWebhook receives subscription lifecycle events from Stripe. It is
// authenticated by signature verification, not by user session, so it must be
// mounted outside the auth and CSRF middleware.
func (h *BillingHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.L.Warn("Failed to read webhook body", "error", err)
		sendJSONError(w, "Failed to read request body", http.StatusServiceUnavailable)
		return
	}

	if err := h.billingService.HandleWebhookEvent(payload, r.Header.Get("Stripe-Signature")); err != nil {
		logger.L.Warn("Webhook event rejected", "error", err)
		sendJSONError(w, "Webhook verification failed", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *BillingHandler) GetBillingStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	subscription, err := h.billingService.Status(userID)
	if err != nil {
		logger.L.Error("Failed to load billing status", "userID", userID, "error", err)
		sendJSONError(w, "Failed to load billing status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subscription)
}
