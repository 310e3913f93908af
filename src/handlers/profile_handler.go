package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/dealfolio/backend/src/database"
	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/model"
	"github.com/username/dealfolio/backend/src/models"
	"github.com/username/dealfolio/backend/src/security/validation"
	"github.com/username/dealfolio/backend/src/services"
)

// ProfileHandler serves the per-user commission settings singleton.
type ProfileHandler struct {
	dealService services.DealService
}

func NewProfileHandler(dealService services.DealService) *ProfileHandler {
	return &ProfileHandler{dealService: dealService}
}

func (h *ProfileHandler) GetCommissionProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	profile, err := model.GetCommissionProfile(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to load commission profile", "userID", userID, "error", err)
		sendJSONError(w, "Failed to load commission profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

func (h *ProfileHandler) UpdateCommissionProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var profile models.CommissionProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	profile.UserID = userID

	if err := validation.ValidateStruct(profile); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if profile.CommissionYearStart == "" {
		profile.CommissionYearStart = "01-01"
	} else if err := validation.ValidateAnchorDate(profile.CommissionYearStart); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := model.UpsertCommissionProfile(database.DB, profile); err != nil {
		logger.L.Error("Failed to save commission profile", "userID", userID, "error", err)
		sendJSONError(w, "Failed to save commission profile", http.StatusInternalServerError)
		return
	}

	// Profile changes shift the summary's cap math for future deals.
	h.dealService.InvalidateUserCache(userID)

	saved, err := model.GetCommissionProfile(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to reload commission profile", "userID", userID, "error", err)
		sendJSONError(w, "Failed to reload commission profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(saved)
}
