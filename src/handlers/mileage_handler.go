package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/dealfolio/backend/src/database"
	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/model"
	"github.com/username/dealfolio/backend/src/models"
	"github.com/username/dealfolio/backend/src/security/validation"
	"github.com/username/dealfolio/backend/src/services"
)

type MileageHandler struct {
	distanceService services.DistanceService
	dealService     services.DealService
}

func NewMileageHandler(distanceService services.DistanceService, dealService services.DealService) *MileageHandler {
	return &MileageHandler{
		distanceService: distanceService,
		dealService:     dealService,
	}
}

type mileageRequest struct {
	Date        string `json:"date" validate:"required"`
	FromAddress string `json:"from_address" validate:"required,max=300"`
	ToAddress   string `json:"to_address" validate:"required,max=300"`
	Purpose     string `json:"purpose" validate:"max=300"`
	// Fallback distance used when the directions lookup is unavailable or fails.
	DistanceMiles float64 `json:"distance_miles" validate:"gte=0"`
}

func decodeMileageRequest(r *http.Request) (mileageRequest, error) {
	var req mileageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return mileageRequest{}, errors.New("invalid request body")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return mileageRequest{}, err
	}
	if err := validation.ValidateISODate(req.Date); err != nil {
		return mileageRequest{}, err
	}
	req.FromAddress = validation.StripUnprintable(req.FromAddress)
	req.ToAddress = validation.StripUnprintable(req.ToAddress)
	req.Purpose = validation.StripUnprintable(req.Purpose)
	return req, nil
}

// resolveDistance prefers the directions lookup and falls back to the
// user-supplied miles when the lookup is unconfigured or errors out.
func (h *MileageHandler) resolveDistance(r *http.Request, req mileageRequest) (miles float64, lookedUp bool) {
	if h.distanceService == nil {
		return req.DistanceMiles, false
	}
	miles, err := h.distanceService.DrivingDistanceMiles(r.Context(), req.FromAddress, req.ToAddress)
	if err != nil {
		logger.L.Warn("Distance lookup failed, using supplied distance", "error", err)
		return req.DistanceMiles, false
	}
	return miles, true
}

func (h *MileageHandler) CreateMileageEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	req, err := decodeMileageRequest(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	miles, lookedUp := h.resolveDistance(r, req)

	entry := &models.MileageEntry{
		UserID:           userID,
		Date:             req.Date,
		FromAddress:      req.FromAddress,
		ToAddress:        req.ToAddress,
		Purpose:          req.Purpose,
		DistanceMiles:    miles,
		DistanceLookedUp: lookedUp,
	}
	if err := model.CreateMileageEntry(database.DB, entry); err != nil {
		logger.L.Error("Failed to create mileage entry", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create mileage entry", http.StatusInternalServerError)
		return
	}

	h.dealService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

func (h *MileageHandler) ListMileageEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	entries, err := model.ListMileageEntries(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list mileage entries", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list mileage entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.MileageEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (h *MileageHandler) UpdateMileageEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	entryID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "invalid mileage entry id", http.StatusBadRequest)
		return
	}

	req, err := decodeMileageRequest(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	miles, lookedUp := h.resolveDistance(r, req)

	entry := &models.MileageEntry{
		ID:               entryID,
		UserID:           userID,
		Date:             req.Date,
		FromAddress:      req.FromAddress,
		ToAddress:        req.ToAddress,
		Purpose:          req.Purpose,
		DistanceMiles:    miles,
		DistanceLookedUp: lookedUp,
	}
	if err := model.UpdateMileageEntry(database.DB, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Mileage entry not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update mileage entry", "userID", userID, "entryID", entryID, "error", err)
		sendJSONError(w, "Failed to update mileage entry", http.StatusInternalServerError)
		return
	}

	h.dealService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

func (h *MileageHandler) DeleteMileageEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	entryID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "invalid mileage entry id", http.StatusBadRequest)
		return
	}

	if err := model.DeleteMileageEntry(database.DB, userID, entryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Mileage entry not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete mileage entry", "userID", userID, "entryID", entryID, "error", err)
		sendJSONError(w, "Failed to delete mileage entry", http.StatusInternalServerError)
		return
	}

	h.dealService.InvalidateUserCache(userID)
	w.WriteHeader(http.StatusNoContent)
}
