package models

// Deal represents a single closed transaction for an agent. The five derived
// fields are computed once when the deal is committed and are never recomputed,
// even when the raw inputs are edited later. Year-to-date cap sums are taken
// from these frozen values, not from a re-derivation.
type Deal struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	CloseDate string `json:"close_date"` // ISO date, decides which commission year the deal counts toward
	Address   string `json:"address"`
	Client    string `json:"client"`
	Notes     string `json:"notes"`

	TotalDealAmount           float64  `json:"total_deal_amount"`
	CommissionPercentOverride *float64 `json:"commission_percent_override,omitempty"`
	ReferralFee               float64  `json:"referral_fee"`
	TransactionFee            float64  `json:"transaction_fee"`

	// Derived fields, frozen at creation time.
	AgentCommission float64 `json:"agent_commission"`
	CompanySplit    float64 `json:"company_split"`
	RoyaltyUsed     float64 `json:"royalty_used"`
	GrossIncome     float64 `json:"gross_income"`
	EstimatedTaxes  float64 `json:"estimated_taxes"`
	NetIncome       float64 `json:"net_income"`

	CreatedAt string `json:"created_at"`
}
