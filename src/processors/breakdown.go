package processors

import (
	"fmt"

	"github.com/username/dealfolio/backend/src/models"
	"github.com/username/dealfolio/backend/src/utils"
)

// BreakdownInput carries everything one breakdown computation needs: the new
// deal's raw inputs, the user's commission profile, and the year-to-date cap
// consumption already frozen into previously persisted deals.
type BreakdownInput struct {
	TotalDealAmount           float64
	Profile                   models.CommissionProfile
	YTDRoyaltyUsage           float64
	YTDCompanySplitUsage      float64
	ReferralFee               float64
	TransactionFee            float64
	CommissionPercentOverride *float64
}

// ComputeBreakdown turns a gross deal amount into the full step-by-step
// commission breakdown. It is pure and total: inputs are coerced to sane
// numbers, cap arithmetic saturates at zero, and every monetary value is
// rounded to cents immediately after it is computed so the displayed steps
// stay internally consistent and re-summable.
func ComputeBreakdown(in BreakdownInput) models.Breakdown {
	amount := utils.SafeNumber(in.TotalDealAmount)
	referralFee := utils.SafeNumber(in.ReferralFee)
	transactionFee := utils.SafeNumber(in.TransactionFee)
	taxPercent := utils.SafeNumber(in.Profile.EstimatedTaxPercent)

	if in.Profile.CommissionMode == models.CommissionModeFixed {
		return fixedBreakdown(amount, in.Profile, taxPercent)
	}
	return percentageBreakdown(amount, in, referralFee, transactionFee, taxPercent)
}

// Fixed mode: a flat commission per deal. Split and royalty never apply, and
// referral/transaction fees are not subtracted either. The fee asymmetry with
// percentage mode is intentional product behavior, kept as-is.
func fixedBreakdown(amount float64, profile models.CommissionProfile, taxPercent float64) models.Breakdown {
	agentCommission := utils.Round2(utils.SafeNumber(profile.FixedCommissionAmount))
	grossIncome := agentCommission
	estimatedTaxes := utils.Round2(grossIncome * taxPercent / 100)
	netIncome := utils.Round2(grossIncome - estimatedTaxes)

	return models.Breakdown{
		AgentCommission: agentCommission,
		CompanySplit:    0,
		RoyaltyUsed:     0,
		GrossIncome:     grossIncome,
		EstimatedTaxes:  estimatedTaxes,
		NetIncome:       netIncome,
		Steps: []models.BreakdownStep{
			{Label: "Sale Price", Amount: utils.Round2(amount), Description: "Total deal amount"},
			{Label: "Commission", Amount: agentCommission, Description: "Flat commission per deal"},
			{Label: "After Split & Royalty", Amount: grossIncome, Description: "Flat commission deals are not subject to split or royalty"},
			{Label: "Estimated Taxes", Amount: estimatedTaxes, Description: fmt.Sprintf("%.2f%% of gross income", taxPercent)},
			{Label: "Net Income", Amount: netIncome, Description: "Estimated take-home"},
		},
	}
}

func percentageBreakdown(amount float64, in BreakdownInput, referralFee, transactionFee, taxPercent float64) models.Breakdown {
	profile := in.Profile

	effectivePercent := utils.SafeNumber(profile.CommissionPercent)
	if in.CommissionPercentOverride != nil {
		effectivePercent = utils.SafeNumber(*in.CommissionPercentOverride)
	}

	totalCommission := utils.Round2(amount * effectivePercent / 100)

	companySplit := cappedDeduction(
		totalCommission,
		utils.SafeNumber(profile.CompanySplitPercent),
		utils.SafeNumber(profile.CompanySplitCap),
		utils.SafeNumber(in.YTDCompanySplitUsage),
	)
	royaltyUsed := cappedDeduction(
		totalCommission,
		utils.SafeNumber(profile.RoyaltyPercent),
		utils.SafeNumber(profile.RoyaltyCap),
		utils.SafeNumber(in.YTDRoyaltyUsage),
	)

	grossIncome := utils.Round2(totalCommission - companySplit - royaltyUsed - referralFee - transactionFee)
	estimatedTaxes := utils.Round2(grossIncome * taxPercent / 100)
	netIncome := utils.Round2(grossIncome - estimatedTaxes)

	return models.Breakdown{
		AgentCommission: totalCommission,
		CompanySplit:    companySplit,
		RoyaltyUsed:     royaltyUsed,
		GrossIncome:     grossIncome,
		EstimatedTaxes:  estimatedTaxes,
		NetIncome:       netIncome,
		Steps: []models.BreakdownStep{
			{Label: "Sale Price", Amount: utils.Round2(amount), Description: "Total deal amount"},
			{Label: "Commission", Amount: totalCommission, Description: fmt.Sprintf("%.2f%% of sale price", effectivePercent)},
			{Label: "After Split & Royalty", Amount: grossIncome, Description: "Commission minus company split, royalty, and fees"},
			{Label: "Estimated Taxes", Amount: estimatedTaxes, Description: fmt.Sprintf("%.2f%% of gross income", taxPercent)},
			{Label: "Net Income", Amount: netIncome, Description: "Estimated take-home"},
		},
	}
}

// cappedDeduction computes a percentage-based deduction limited by whatever
// remains of an annual cap. Once the cap is exhausted the deduction is exactly
// zero; otherwise it is the natural percentage amount, clipped to the
// remaining headroom. Never negative.
func cappedDeduction(totalCommission, percent, cap, ytdUsage float64) float64 {
	remaining := utils.Round2(cap - ytdUsage)
	if remaining <= 0 {
		return 0
	}
	natural := totalCommission * percent / 100
	if natural > remaining {
		return remaining
	}
	return utils.Round2(natural)
}
