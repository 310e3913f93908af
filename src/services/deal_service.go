package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/dealfolio/backend/src/config"
	"github.com/username/dealfolio/backend/src/database"
	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/model"
	"github.com/username/dealfolio/backend/src/models"
	"github.com/username/dealfolio/backend/src/processors"
	"github.com/username/dealfolio/backend/src/utils"
)

const (
	ckDashboardSummary = "agg_dashboard_summary_user_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type dealServiceImpl struct {
	reportCache *cache.Cache
	now         Clock
}

func NewDealService(reportCache *cache.Cache, now Clock) DealService {
	if now == nil {
		now = time.Now
	}
	return &dealServiceImpl{
		reportCache: reportCache,
		now:         now,
	}
}

// buildBreakdown loads the profile and year-to-date cap usage, then runs the
// pure calculator on the coerced inputs. Shared by preview and create so both
// paths produce identical numbers.
func (s *dealServiceImpl) buildBreakdown(userID int64, input DealInput) (models.Breakdown, models.CommissionProfile, error) {
	profile, err := model.GetCommissionProfile(database.DB, userID)
	if err != nil {
		return models.Breakdown{}, models.CommissionProfile{}, fmt.Errorf("error loading commission profile: %w", err)
	}

	deals, err := s.ListDeals(userID)
	if err != nil {
		return models.Breakdown{}, models.CommissionProfile{}, err
	}

	now := s.now()
	calcInput := processors.BreakdownInput{
		TotalDealAmount:      utils.SafeNumber(input.TotalDealAmount),
		Profile:              profile,
		YTDRoyaltyUsage:      processors.YTDUsage(deals, profile.CommissionYearStart, processors.SelectRoyaltyUsed, now),
		YTDCompanySplitUsage: processors.YTDUsage(deals, profile.CommissionYearStart, processors.SelectCompanySplit, now),
		ReferralFee:          utils.SafeNumber(input.ReferralFee),
		TransactionFee:       utils.SafeNumber(input.TransactionFee),
	}
	if input.CommissionPercentOverride != nil {
		override := utils.SafeNumber(input.CommissionPercentOverride)
		calcInput.CommissionPercentOverride = &override
	}

	return processors.ComputeBreakdown(calcInput), profile, nil
}

func (s *dealServiceImpl) PreviewBreakdown(userID int64, input DealInput) (*models.Breakdown, error) {
	breakdown, _, err := s.buildBreakdown(userID, input)
	if err != nil {
		return nil, err
	}
	return &breakdown, nil
}

func (s *dealServiceImpl) CreateDeal(userID int64, input DealInput) (*models.Deal, error) {
	breakdown, _, err := s.buildBreakdown(userID, input)
	if err != nil {
		return nil, err
	}

	deal := models.Deal{
		UserID:          userID,
		CloseDate:       input.CloseDate,
		Address:         input.Address,
		Client:          input.Client,
		Notes:           input.Notes,
		TotalDealAmount: utils.SafeNumber(input.TotalDealAmount),
		ReferralFee:     utils.SafeNumber(input.ReferralFee),
		TransactionFee:  utils.SafeNumber(input.TransactionFee),
		AgentCommission: breakdown.AgentCommission,
		CompanySplit:    breakdown.CompanySplit,
		RoyaltyUsed:     breakdown.RoyaltyUsed,
		GrossIncome:     breakdown.GrossIncome,
		EstimatedTaxes:  breakdown.EstimatedTaxes,
		NetIncome:       breakdown.NetIncome,
	}
	if input.CommissionPercentOverride != nil {
		override := utils.SafeNumber(input.CommissionPercentOverride)
		deal.CommissionPercentOverride = &override
	}

	var overrideArg interface{}
	if deal.CommissionPercentOverride != nil {
		overrideArg = *deal.CommissionPercentOverride
	}

	res, err := database.DB.Exec(`
		INSERT INTO deals (user_id, close_date, address, client, notes,
			total_deal_amount, commission_percent_override, referral_fee, transaction_fee,
			agent_commission, company_split, royalty_used, gross_income, estimated_taxes, net_income)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deal.UserID, deal.CloseDate, deal.Address, deal.Client, deal.Notes,
		deal.TotalDealAmount, overrideArg, deal.ReferralFee, deal.TransactionFee,
		deal.AgentCommission, deal.CompanySplit, deal.RoyaltyUsed,
		deal.GrossIncome, deal.EstimatedTaxes, deal.NetIncome)
	if err != nil {
		return nil, fmt.Errorf("error inserting deal: %w", err)
	}
	deal.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("error reading inserted deal id: %w", err)
	}

	s.InvalidateUserCache(userID)
	logger.L.Info("Deal created", "userID", userID, "dealID", deal.ID, "netIncome", deal.NetIncome)
	return &deal, nil
}

func (s *dealServiceImpl) ListDeals(userID int64) ([]models.Deal, error) {
	rows, err := database.DB.Query(`
		SELECT id, user_id, close_date, address, client, notes,
			total_deal_amount, commission_percent_override, referral_fee, transaction_fee,
			agent_commission, company_split, royalty_used, gross_income, estimated_taxes, net_income,
			created_at
		FROM deals
		WHERE user_id = ?
		ORDER BY close_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying deals for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		var deal models.Deal
		var override sql.NullFloat64
		var address, client, notes sql.NullString
		if err := rows.Scan(
			&deal.ID, &deal.UserID, &deal.CloseDate, &address, &client, &notes,
			&deal.TotalDealAmount, &override, &deal.ReferralFee, &deal.TransactionFee,
			&deal.AgentCommission, &deal.CompanySplit, &deal.RoyaltyUsed,
			&deal.GrossIncome, &deal.EstimatedTaxes, &deal.NetIncome,
			&deal.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning deal for userID %d: %w", userID, err)
		}
		deal.Address = address.String
		deal.Client = client.String
		deal.Notes = notes.String
		if override.Valid {
			v := override.Float64
			deal.CommissionPercentOverride = &v
		}
		deals = append(deals, deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over deals for userID %d: %w", userID, err)
	}
	return deals, nil
}

// UpdateDeal rewrites the raw inputs of an existing deal. The derived
// commission fields are intentionally left at their creation-time values, so
// an edited amount no longer matches them; future YTD sums keep reading the
// frozen values.
func (s *dealServiceImpl) UpdateDeal(userID, dealID int64, input DealInput) error {
	var overrideArg interface{}
	if input.CommissionPercentOverride != nil {
		overrideArg = utils.SafeNumber(input.CommissionPercentOverride)
	}

	res, err := database.DB.Exec(`
		UPDATE deals SET close_date = ?, address = ?, client = ?, notes = ?,
			total_deal_amount = ?, commission_percent_override = ?, referral_fee = ?, transaction_fee = ?
		WHERE id = ? AND user_id = ?`,
		input.CloseDate, input.Address, input.Client, input.Notes,
		utils.SafeNumber(input.TotalDealAmount), overrideArg,
		utils.SafeNumber(input.ReferralFee), utils.SafeNumber(input.TransactionFee),
		dealID, userID)
	if err != nil {
		return fmt.Errorf("error updating deal %d: %w", dealID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDealNotFound
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *dealServiceImpl) DeleteDeal(userID, dealID int64) error {
	res, err := database.DB.Exec(`DELETE FROM deals WHERE id = ? AND user_id = ?`, dealID, userID)
	if err != nil {
		return fmt.Errorf("error deleting deal %d: %w", dealID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDealNotFound
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *dealServiceImpl) Summary(userID int64) (*models.DashboardSummary, error) {
	cacheKey := fmt.Sprintf(ckDashboardSummary, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		if summary, ok := cached.(*models.DashboardSummary); ok {
			logger.L.Debug("Dashboard summary served from cache", "userID", userID)
			return summary, nil
		}
	}

	profile, err := model.GetCommissionProfile(database.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading commission profile: %w", err)
	}
	deals, err := s.ListDeals(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	yearStart := processors.CommissionYearStart(profile.CommissionYearStart, now)
	anchor := profile.CommissionYearStart

	splitUsed := processors.YTDUsage(deals, anchor, processors.SelectCompanySplit, now)
	royaltyUsed := processors.YTDUsage(deals, anchor, processors.SelectRoyaltyUsed, now)

	summary := &models.DashboardSummary{
		CommissionYearStart:      yearStart.Format(utils.DefaultDateFormat),
		YTDGrossIncome:           utils.Round2(processors.YTDUsage(deals, anchor, processors.SelectGrossIncome, now)),
		YTDTaxes:                 utils.Round2(processors.YTDUsage(deals, anchor, processors.SelectTaxes, now)),
		YTDNetIncome:             utils.Round2(processors.YTDUsage(deals, anchor, processors.SelectNetIncome, now)),
		YTDCompanySplitUsed:      utils.Round2(splitUsed),
		CompanySplitCapRemaining: capRemaining(profile.CompanySplitCap, splitUsed),
		YTDRoyaltyUsed:           utils.Round2(royaltyUsed),
		RoyaltyCapRemaining:      capRemaining(profile.RoyaltyCap, royaltyUsed),
	}

	startStr := yearStart.Format(utils.DefaultDateFormat)
	nowStr := now.Format(utils.DefaultDateFormat)

	for _, deal := range deals {
		if deal.CloseDate >= startStr && deal.CloseDate <= nowStr {
			summary.DealCount++
		}
	}

	if err := database.DB.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, startStr, nowStr).Scan(&summary.YTDExpenses); err != nil {
		return nil, fmt.Errorf("error summing expenses: %w", err)
	}
	summary.YTDExpenses = utils.Round2(summary.YTDExpenses)

	if err := database.DB.QueryRow(`
		SELECT COALESCE(SUM(distance_miles), 0) FROM mileage_entries
		WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, startStr, nowStr).Scan(&summary.YTDMileageMiles); err != nil {
		return nil, fmt.Errorf("error summing mileage: %w", err)
	}
	summary.YTDMileageDeduction = utils.Round2(summary.YTDMileageMiles * config.Cfg.MileageRatePerMile)

	s.reportCache.Set(cacheKey, summary, cache.DefaultExpiration)
	return summary, nil
}

func (s *dealServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckDashboardSummary, userID))
	logger.L.Debug("Report cache invalidated", "userID", userID)
}

func capRemaining(cap, used float64) float64 {
	remaining := utils.Round2(cap - used)
	if remaining < 0 {
		return 0
	}
	return remaining
}
