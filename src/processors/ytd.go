package processors

import (
	"time"

	"github.com/username/dealfolio/backend/src/models"
	"github.com/username/dealfolio/backend/src/utils"
)

// Field selectors for YTDUsage.
var (
	SelectRoyaltyUsed  = func(d models.Deal) float64 { return d.RoyaltyUsed }
	SelectCompanySplit = func(d models.Deal) float64 { return d.CompanySplit }
	SelectGrossIncome  = func(d models.Deal) float64 { return d.GrossIncome }
	SelectTaxes        = func(d models.Deal) float64 { return d.EstimatedTaxes }
	SelectNetIncome    = func(d models.Deal) float64 { return d.NetIncome }
)

// CommissionYearStart resolves the start of the active commission year: the
// most recent occurrence of the profile's month/day anchor at or before now.
// Only month and day of the anchor are meaningful; the year is recomputed each
// call. An unparseable anchor falls back to January 1. A Feb 29 anchor
// normalizes to Mar 1 outside leap years.
func CommissionYearStart(anchor string, now time.Time) time.Time {
	month, day, ok := utils.ParseAnchor(anchor)
	if !ok {
		month, day = time.January, 1
	}
	start := time.Date(now.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if start.After(now) {
		start = time.Date(now.Year()-1, month, day, 0, 0, 0, 0, time.UTC)
	}
	return start
}

// YTDUsage sums one frozen derived field across the deals whose close date
// falls inside the active commission year, window [anchor anniversary, now]
// inclusive. Deals with a missing or unparseable close date are excluded: they
// do not contribute until they carry a valid date. Returns 0 for an empty set.
func YTDUsage(deals []models.Deal, anchor string, selector func(models.Deal) float64, now time.Time) float64 {
	if len(deals) == 0 {
		return 0
	}
	start := CommissionYearStart(anchor, now)

	var total float64
	for _, deal := range deals {
		closed, err := time.ParseInLocation(utils.DefaultDateFormat, deal.CloseDate, time.UTC)
		if err != nil {
			continue
		}
		if closed.Before(start) || closed.After(now) {
			continue
		}
		total += selector(deal)
	}
	return total
}
