package models

// DashboardSummary aggregates a user's activity inside the active commission
// year. Cap-remaining figures saturate at zero.
type DashboardSummary struct {
	CommissionYearStart string `json:"commission_year_start"` // ISO date of the active year's start

	DealCount      int     `json:"deal_count"`
	YTDGrossIncome float64 `json:"ytd_gross_income"`
	YTDTaxes       float64 `json:"ytd_taxes"`
	YTDNetIncome   float64 `json:"ytd_net_income"`

	YTDCompanySplitUsed       float64 `json:"ytd_company_split_used"`
	CompanySplitCapRemaining  float64 `json:"company_split_cap_remaining"`
	YTDRoyaltyUsed            float64 `json:"ytd_royalty_used"`
	RoyaltyCapRemaining       float64 `json:"royalty_cap_remaining"`

	YTDExpenses         float64 `json:"ytd_expenses"`
	YTDMileageMiles     float64 `json:"ytd_mileage_miles"`
	YTDMileageDeduction float64 `json:"ytd_mileage_deduction"`
}
