package models

// Commission modes. Percentage derives the agent commission from the deal
// amount; Fixed pays a flat amount per deal and never touches the caps.
const (
	CommissionModePercentage = "percentage"
	CommissionModeFixed      = "fixed"
)

// CommissionProfile is the per-user commission configuration, a singleton
// mutated only through an explicit settings update (last write wins).
// Percent fields are 0-100; cap and amount fields are >= 0.
type CommissionProfile struct {
	UserID                int64   `json:"user_id"`
	CommissionMode        string  `json:"commission_mode" validate:"oneof=percentage fixed"`
	CommissionPercent     float64 `json:"commission_percent" validate:"gte=0,lte=100"`
	FixedCommissionAmount float64 `json:"fixed_commission_amount" validate:"gte=0"`
	CompanySplitPercent   float64 `json:"company_split_percent" validate:"gte=0,lte=100"`
	CompanySplitCap       float64 `json:"company_split_cap" validate:"gte=0"`
	RoyaltyPercent        float64 `json:"royalty_percent" validate:"gte=0,lte=100"`
	RoyaltyCap            float64 `json:"royalty_cap" validate:"gte=0"`
	EstimatedTaxPercent   float64 `json:"estimated_tax_percent" validate:"gte=0,lte=100"`
	// Month/day anchor ("MM-DD") of the rolling commission year. The active
	// year runs from the most recent occurrence of this anchor up to now.
	CommissionYearStart string `json:"commission_year_start"`
	UpdatedAt           string `json:"updated_at"`
}

// DefaultCommissionProfile returns the profile applied before a user has
// saved settings: percentage mode with everything at zero and a calendar-year
// anchor, so the calculator still always produces a number.
func DefaultCommissionProfile(userID int64) CommissionProfile {
	return CommissionProfile{
		UserID:              userID,
		CommissionMode:      CommissionModePercentage,
		CommissionPercent:   3,
		CommissionYearStart: "01-01",
	}
}
