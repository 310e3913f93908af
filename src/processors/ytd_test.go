package processors

import (
	"testing"
	"time"

	"github.com/username/dealfolio/backend/src/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCommissionYearStart(t *testing.T) {
	tests := []struct {
		name   string
		anchor string
		now    time.Time
		want   time.Time
	}{
		{"anniversary already passed this year", "03-15", date(2025, time.July, 1), date(2025, time.March, 15)},
		{"anniversary not yet reached", "03-15", date(2025, time.February, 1), date(2024, time.March, 15)},
		{"now exactly on the anchor", "03-15", date(2025, time.March, 15), date(2025, time.March, 15)},
		{"calendar year anchor", "01-01", date(2025, time.December, 31), date(2025, time.January, 1)},
		{"full ISO anchor, year ignored", "2020-06-30", date(2025, time.May, 1), date(2024, time.June, 30)},
		{"unparseable anchor falls back to Jan 1", "not-a-date", date(2025, time.August, 10), date(2025, time.January, 1)},
		{"Feb 29 anchor in a non-leap year normalizes to Mar 1", "02-29", date(2025, time.June, 1), date(2025, time.March, 1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CommissionYearStart(tc.anchor, tc.now)
			if !got.Equal(tc.want) {
				t.Errorf("CommissionYearStart(%q, %v) = %v, want %v", tc.anchor, tc.now, got, tc.want)
			}
		})
	}
}

func TestYTDUsageEmptySet(t *testing.T) {
	for _, anchor := range []string{"01-01", "07-04", "junk"} {
		if got := YTDUsage(nil, anchor, SelectRoyaltyUsed, date(2025, time.June, 15)); got != 0 {
			t.Errorf("YTDUsage(nil, %q) = %v, want 0", anchor, got)
		}
	}
}

func TestYTDUsageWindow(t *testing.T) {
	deals := []models.Deal{
		{CloseDate: "2024-03-14", RoyaltyUsed: 100, CompanySplit: 1000}, // day before last anniversary
		{CloseDate: "2024-03-15", RoyaltyUsed: 200, CompanySplit: 2000}, // anniversary day itself
		{CloseDate: "2024-09-01", RoyaltyUsed: 300, CompanySplit: 3000},
		{CloseDate: "2025-01-10", RoyaltyUsed: 400, CompanySplit: 4000}, // "now"
		{CloseDate: "2025-02-01", RoyaltyUsed: 500, CompanySplit: 5000}, // after now
		{CloseDate: "", RoyaltyUsed: 999},                               // missing date, excluded
		{CloseDate: "10/01/2025", RoyaltyUsed: 999},                     // wrong format, excluded
	}
	now := date(2025, time.January, 10)

	if got := YTDUsage(deals, "03-15", SelectRoyaltyUsed, now); got != 900 {
		t.Errorf("royalty YTD = %v, want 900 (200+300+400)", got)
	}
	if got := YTDUsage(deals, "03-15", SelectCompanySplit, now); got != 9000 {
		t.Errorf("company split YTD = %v, want 9000", got)
	}
}

func TestYTDUsageNowOnAnchorCountsSameDayOnly(t *testing.T) {
	deals := []models.Deal{
		{CloseDate: "2025-03-14", RoyaltyUsed: 50}, // previous year
		{CloseDate: "2025-03-15", RoyaltyUsed: 75}, // same-day deal
	}
	got := YTDUsage(deals, "03-15", SelectRoyaltyUsed, date(2025, time.March, 15))
	if got != 75 {
		t.Errorf("YTD on anchor day = %v, want 75", got)
	}
}

func TestYTDUsageDeletedDealNoLongerCounts(t *testing.T) {
	now := date(2025, time.June, 1)
	deals := []models.Deal{
		{CloseDate: "2025-02-01", RoyaltyUsed: 100},
		{CloseDate: "2025-03-01", RoyaltyUsed: 200},
	}
	before := YTDUsage(deals, "01-01", SelectRoyaltyUsed, now)
	after := YTDUsage(deals[:1], "01-01", SelectRoyaltyUsed, now)
	if before != 300 || after != 100 {
		t.Errorf("before delete = %v (want 300), after delete = %v (want 100)", before, after)
	}
}
