package models

// BreakdownStep is one display row of the deal-entry breakdown.
type BreakdownStep struct {
	Label       string  `json:"label"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Breakdown is the full result of a commission computation: the five derived
// values persisted with a deal plus the ordered display steps shown to the
// user. Every amount is already rounded to cents.
type Breakdown struct {
	AgentCommission float64 `json:"agent_commission"`
	CompanySplit    float64 `json:"company_split"`
	RoyaltyUsed     float64 `json:"royalty_used"`
	GrossIncome     float64 `json:"gross_income"`
	EstimatedTaxes  float64 `json:"estimated_taxes"`
	NetIncome       float64 `json:"net_income"`

	Steps []BreakdownStep `json:"steps"`
}
