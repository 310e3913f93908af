package model

import (
	"database/sql"

	"github.com/username/dealfolio/backend/src/models"
)

// GetCommissionProfile retrieves the user's commission configuration, applying
// defaults when the user has never saved settings. Callers never see
// sql.ErrNoRows: a missing row is not an error for the calculator.
func GetCommissionProfile(db *sql.DB, userID int64) (models.CommissionProfile, error) {
	query := `
	SELECT commission_mode, commission_percent, fixed_commission_amount,
		company_split_percent, company_split_cap, royalty_percent, royalty_cap,
		estimated_tax_percent, commission_year_start, updated_at
	FROM commission_profiles
	WHERE user_id = ?`

	profile := models.CommissionProfile{UserID: userID}
	err := db.QueryRow(query, userID).Scan(
		&profile.CommissionMode,
		&profile.CommissionPercent,
		&profile.FixedCommissionAmount,
		&profile.CompanySplitPercent,
		&profile.CompanySplitCap,
		&profile.RoyaltyPercent,
		&profile.RoyaltyCap,
		&profile.EstimatedTaxPercent,
		&profile.CommissionYearStart,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.DefaultCommissionProfile(userID), nil
	}
	if err != nil {
		return models.CommissionProfile{}, err
	}
	return profile, nil
}

// UpsertCommissionProfile writes the user's settings singleton. Last write
// wins; there are no merge semantics.
func UpsertCommissionProfile(db *sql.DB, profile models.CommissionProfile) error {
	query := `
	INSERT INTO commission_profiles (
		user_id, commission_mode, commission_percent, fixed_commission_amount,
		company_split_percent, company_split_cap, royalty_percent, royalty_cap,
		estimated_tax_percent, commission_year_start, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(user_id) DO UPDATE SET
		commission_mode = excluded.commission_mode,
		commission_percent = excluded.commission_percent,
		fixed_commission_amount = excluded.fixed_commission_amount,
		company_split_percent = excluded.company_split_percent,
		company_split_cap = excluded.company_split_cap,
		royalty_percent = excluded.royalty_percent,
		royalty_cap = excluded.royalty_cap,
		estimated_tax_percent = excluded.estimated_tax_percent,
		commission_year_start = excluded.commission_year_start,
		updated_at = CURRENT_TIMESTAMP`

	_, err := db.Exec(query,
		profile.UserID,
		profile.CommissionMode,
		profile.CommissionPercent,
		profile.FixedCommissionAmount,
		profile.CompanySplitPercent,
		profile.CompanySplitCap,
		profile.RoyaltyPercent,
		profile.RoyaltyCap,
		profile.EstimatedTaxPercent,
		profile.CommissionYearStart,
	)
	return err
}
