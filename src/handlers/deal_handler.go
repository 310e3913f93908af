package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/security/validation"
	"github.com/username/dealfolio/backend/src/services"
)

type DealHandler struct {
	dealService services.DealService
}

func NewDealHandler(dealService services.DealService) *DealHandler {
	return &DealHandler{dealService: dealService}
}

func decodeDealInput(r *http.Request) (services.DealInput, error) {
	var input services.DealInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return services.DealInput{}, errors.New("invalid request body")
	}
	if input.CloseDate != "" {
		if err := validation.ValidateISODate(input.CloseDate); err != nil {
			return services.DealInput{}, err
		}
	}
	input.Address = validation.StripUnprintable(input.Address)
	input.Client = validation.StripUnprintable(input.Client)
	input.Notes = validation.StripUnprintable(input.Notes)
	return input, nil
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// PreviewDealBreakdown runs the calculator without persisting anything, so the
// deal-entry form can show live numbers as the user types.
func (h *DealHandler) PreviewDealBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	input, err := decodeDealInput(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	breakdown, err := h.dealService.PreviewBreakdown(userID, input)
	if err != nil {
		logger.L.Error("Failed to compute deal preview", "userID", userID, "error", err)
		sendJSONError(w, "Failed to compute deal preview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(breakdown)
}

func (h *DealHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	input, err := decodeDealInput(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.CloseDate == "" {
		sendJSONError(w, "close_date is required", http.StatusBadRequest)
		return
	}

	deal, err := h.dealService.CreateDeal(userID, input)
	if err != nil {
		logger.L.Error("Failed to create deal", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create deal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(deal)
}

func (h *DealHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	deals, err := h.dealService.ListDeals(userID)
	if err != nil {
		logger.L.Error("Failed to list deals", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list deals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deals)
}

func (h *DealHandler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	dealID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "invalid deal id", http.StatusBadRequest)
		return
	}

	input, err := decodeDealInput(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.dealService.UpdateDeal(userID, dealID, input); err != nil {
		if errors.Is(err, services.ErrDealNotFound) {
			sendJSONError(w, "Deal not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update deal", "userID", userID, "dealID", dealID, "error", err)
		sendJSONError(w, "Failed to update deal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Deal updated"})
}

func (h *DealHandler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	dealID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "invalid deal id", http.StatusBadRequest)
		return
	}

	if err := h.dealService.DeleteDeal(userID, dealID); err != nil {
		if errors.Is(err, services.ErrDealNotFound) {
			sendJSONError(w, "Deal not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete deal", "userID", userID, "dealID", dealID, "error", err)
		sendJSONError(w, "Failed to delete deal", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DealHandler) GetDashboardSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	summary, err := h.dealService.Summary(userID)
	if err != nil {
		logger.L.Error("Failed to build dashboard summary", "userID", userID, "error", err)
		sendJSONError(w, "Failed to build dashboard summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
