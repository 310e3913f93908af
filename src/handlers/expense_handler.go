package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/username/dealfolio/backend/src/config"
	"github.com/username/dealfolio/backend/src/database"
	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/model"
	"github.com/username/dealfolio/backend/src/models"
	"github.com/username/dealfolio/backend/src/security/validation"
	"github.com/username/dealfolio/backend/src/services"
)

type ExpenseHandler struct {
	dealService services.DealService
}

func NewExpenseHandler(dealService services.DealService) *ExpenseHandler {
	return &ExpenseHandler{dealService: dealService}
}

type expenseRequest struct {
	Date        string  `json:"date" validate:"required"`
	Category    string  `json:"category" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Deductible  bool    `json:"deductible"`
}

func decodeExpenseRequest(r *http.Request) (expenseRequest, error) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return expenseRequest{}, errors.New("invalid request body")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return expenseRequest{}, err
	}
	if err := validation.ValidateISODate(req.Date); err != nil {
		return expenseRequest{}, err
	}
	req.Category = validation.StripUnprintable(req.Category)
	req.Description = validation.StripUnprintable(req.Description)
	return req, nil
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	req, err := decodeExpenseRequest(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	expense := &models.Expense{
		UserID:      userID,
		Date:        req.Date,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Deductible:  req.Deductible,
	}
	if err := model.CreateExpense(database.DB, expense); err != nil {
		logger.L.Error("Failed to create expense", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create expense", http.StatusInternalServerError)
		return
	}

	h.dealService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(expense)
}

func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	expenses, err := model.ListExpenses(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list expenses", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list expenses", http.StatusInternalServerError)
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(expenses)
}

func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	expenseID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "invalid expense id", http.StatusBadRequest)
		return
	}

	req, err := decodeExpenseRequest(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	expense := &models.Expense{
		ID:          expenseID,
		UserID:      userID,
		Date:        req.Date,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Deductible:  req.Deductible,
	}
	if err := model.UpdateExpense(database.DB, expense); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Expense not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update expense", "userID", userID, "expenseID", expenseID, "error", err)
		sendJSONError(w, "Failed to update expense", http.StatusInternalServerError)
		return
	}

	h.dealService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(expense)
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	expenseID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "invalid expense id", http.StatusBadRequest)
		return
	}

	// Remove the stored receipt alongside the row.
	if expense, err := model.GetExpenseByID(database.DB, userID, expenseID); err == nil && expense.ReceiptPath != "" {
		if err := os.Remove(expense.ReceiptPath); err != nil && !os.IsNotExist(err) {
			logger.L.Warn("Failed to remove receipt file", "path", expense.ReceiptPath, "error", err)
		}
	}

	if err := model.DeleteExpense(database.DB, userID, expenseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Expense not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete expense", "userID", userID, "expenseID", expenseID, "error", err)
		sendJSONError(w, "Failed to delete expense", http.StatusInternalServerError)
		return
	}

	h.dealService.InvalidateUserCache(userID)
	w.WriteHeader(http.StatusNoContent)
}

// UploadReceipt attaches a receipt image or PDF to an existing expense. The
// file is validated by declared type and by magic bytes before it is stored.
func (h *ExpenseHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	expenseID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "invalid expense id", http.StatusBadRequest)
		return
	}

	expense, err := model.GetExpenseByID(database.DB, userID, expenseID)
	if err != nil {
		sendJSONError(w, "Expense not found", http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		sendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("receipt")
	if err != nil {
		sendJSONError(w, "Failed to retrieve file from request. Ensure 'receipt' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		sendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateReceiptContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared receipt type", "userID", userID, "contentType", clientContentType, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateReceiptContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Receipt content validation failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(config.Cfg.ReceiptStoragePath, 0o755); err != nil {
		logger.L.Error("Failed to create receipt storage directory", "error", err)
		sendJSONError(w, "Failed to store receipt", http.StatusInternalServerError)
		return
	}

	ext := filepath.Ext(fileHeader.Filename)
	storedName := fmt.Sprintf("%d_%d_%s%s", userID, expenseID, uuid.NewString(), ext)
	storedPath := filepath.Join(config.Cfg.ReceiptStoragePath, storedName)

	dst, err := os.Create(storedPath)
	if err != nil {
		logger.L.Error("Failed to create receipt file", "path", storedPath, "error", err)
		sendJSONError(w, "Failed to store receipt", http.StatusInternalServerError)
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		logger.L.Error("Failed to write receipt file", "path", storedPath, "error", err)
		sendJSONError(w, "Failed to store receipt", http.StatusInternalServerError)
		return
	}

	// Replace a previously uploaded receipt.
	if expense.ReceiptPath != "" {
		if err := os.Remove(expense.ReceiptPath); err != nil && !os.IsNotExist(err) {
			logger.L.Warn("Failed to remove old receipt file", "path", expense.ReceiptPath, "error", err)
		}
	}

	if err := model.SetExpenseReceiptPath(database.DB, userID, expenseID, storedPath); err != nil {
		logger.L.Error("Failed to record receipt path", "userID", userID, "expenseID", expenseID, "error", err)
		sendJSONError(w, "Failed to store receipt", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Receipt stored", "userID", userID, "expenseID", expenseID, "detectedType", detectedContentType)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"receipt_path": storedPath})
}
