package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/username/dealfolio/backend/src/database"
	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/model"
	"github.com/username/dealfolio/backend/src/security/validation"
	"github.com/username/dealfolio/backend/src/services"
)

// ExportHandler streams the user's records as CSV downloads. Text columns are
// sanitized against spreadsheet formula injection before they are written.
type ExportHandler struct {
	dealService services.DealService
}

func NewExportHandler(dealService services.DealService) *ExportHandler {
	return &ExportHandler{dealService: dealService}
}

func csvMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func startCSVDownload(w http.ResponseWriter, name string) *csv.Writer {
	filename := fmt.Sprintf("%s_%s.csv", name, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return csv.NewWriter(w)
}

func (h *ExportHandler) ExportDeals(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	deals, err := h.dealService.ListDeals(userID)
	if err != nil {
		logger.L.Error("Failed to load deals for export", "userID", userID, "error", err)
		sendJSONError(w, "Failed to export deals", http.StatusInternalServerError)
		return
	}

	writer := startCSVDownload(w, "deals")
	defer writer.Flush()

	header := []string{
		"close_date", "address", "client", "notes",
		"total_deal_amount", "commission_percent_override", "referral_fee", "transaction_fee",
		"agent_commission", "company_split", "royalty_used",
		"gross_income", "estimated_taxes", "net_income",
	}
	if err := writer.Write(header); err != nil {
		logger.L.Error("Failed to write CSV header", "userID", userID, "error", err)
		return
	}

	for _, d := range deals {
		override := ""
		if d.CommissionPercentOverride != nil {
			override = strconv.FormatFloat(*d.CommissionPercentOverride, 'f', -1, 64)
		}
		record := []string{
			d.CloseDate,
			validation.SanitizeForFormulaInjection(d.Address),
			validation.SanitizeForFormulaInjection(d.Client),
			validation.SanitizeForFormulaInjection(d.Notes),
			csvMoney(d.TotalDealAmount),
			override,
			csvMoney(d.ReferralFee),
			csvMoney(d.TransactionFee),
			csvMoney(d.AgentCommission),
			csvMoney(d.CompanySplit),
			csvMoney(d.RoyaltyUsed),
			csvMoney(d.GrossIncome),
			csvMoney(d.EstimatedTaxes),
			csvMoney(d.NetIncome),
		}
		if err := writer.Write(record); err != nil {
			logger.L.Error("Failed to write CSV record", "userID", userID, "dealID", d.ID, "error", err)
			return
		}
	}
}

func (h *ExportHandler) ExportExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	expenses, err := model.ListExpenses(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to load expenses for export", "userID", userID, "error", err)
		sendJSONError(w, "Failed to export expenses", http.StatusInternalServerError)
		return
	}

	writer := startCSVDownload(w, "expenses")
	defer writer.Flush()

	header := []string{"date", "category", "description", "amount", "deductible", "has_receipt"}
	if err := writer.Write(header); err != nil {
		logger.L.Error("Failed to write CSV header", "userID", userID, "error", err)
		return
	}

	for _, e := range expenses {
		record := []string{
			e.Date,
			validation.SanitizeForFormulaInjection(e.Category),
			validation.SanitizeForFormulaInjection(e.Description),
			csvMoney(e.Amount),
			strconv.FormatBool(e.Deductible),
			strconv.FormatBool(e.ReceiptPath != ""),
		}
		if err := writer.Write(record); err != nil {
			logger.L.Error("Failed to write CSV record", "userID", userID, "expenseID", e.ID, "error", err)
			return
		}
	}
}
