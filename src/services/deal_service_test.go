package services

import (
	"os"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/dealfolio/backend/src/config"
	"github.com/username/dealfolio/backend/src/database"
	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/model"
	"github.com/username/dealfolio/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	config.Cfg = &config.AppConfig{MileageRatePerMile: 0.67}
	database.InitDB(":memory:")
	// An in-memory sqlite database exists per connection; keep the pool at one.
	database.DB.SetMaxOpenConns(1)
	os.Exit(m.Run())
}

func newTestService() DealService {
	fixedNow := func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
	return NewDealService(cache.New(time.Minute, time.Minute), fixedNow)
}

func saveProfile(t *testing.T, userID int64, splitCap float64) {
	t.Helper()
	err := model.UpsertCommissionProfile(database.DB, models.CommissionProfile{
		UserID:              userID,
		CommissionMode:      models.CommissionModePercentage,
		CommissionPercent:   3,
		CompanySplitPercent: 30,
		CompanySplitCap:     splitCap,
		RoyaltyPercent:      6,
		RoyaltyCap:          3000,
		EstimatedTaxPercent: 25,
		CommissionYearStart: "01-01",
	})
	if err != nil {
		t.Fatalf("saving profile: %v", err)
	}
}

func TestDealLifecycleFreezesDerivedFields(t *testing.T) {
	const userID = int64(101)
	svc := newTestService()
	saveProfile(t, userID, 6000)

	// Numeric inputs arrive as JSON strings from the deal form.
	created, err := svc.CreateDeal(userID, DealInput{
		CloseDate:       "2025-03-01",
		Address:         "12 Oak Lane",
		Client:          "Jane Buyer",
		TotalDealAmount: "300000",
	})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}
	if created.AgentCommission != 9000 || created.CompanySplit != 2700 ||
		created.RoyaltyUsed != 540 || created.GrossIncome != 5760 ||
		created.EstimatedTaxes != 1440 || created.NetIncome != 4320 {
		t.Fatalf("unexpected derived fields on create: %+v", created)
	}

	deals, err := svc.ListDeals(userID)
	if err != nil {
		t.Fatalf("ListDeals: %v", err)
	}
	if len(deals) != 1 {
		t.Fatalf("deal count = %d, want 1", len(deals))
	}
	stored := deals[0]
	if stored.AgentCommission != created.AgentCommission ||
		stored.CompanySplit != created.CompanySplit ||
		stored.RoyaltyUsed != created.RoyaltyUsed ||
		stored.GrossIncome != created.GrossIncome ||
		stored.EstimatedTaxes != created.EstimatedTaxes ||
		stored.NetIncome != created.NetIncome {
		t.Errorf("stored derived fields differ from computed: stored %+v, created %+v", stored, created)
	}

	// Editing the amount leaves the derived fields at their creation values.
	if err := svc.UpdateDeal(userID, stored.ID, DealInput{
		CloseDate:       "2025-03-01",
		Address:         "12 Oak Lane",
		Client:          "Jane Buyer",
		TotalDealAmount: "100",
	}); err != nil {
		t.Fatalf("UpdateDeal: %v", err)
	}
	deals, err = svc.ListDeals(userID)
	if err != nil {
		t.Fatalf("ListDeals after update: %v", err)
	}
	edited := deals[0]
	if edited.TotalDealAmount != 100 {
		t.Errorf("TotalDealAmount = %v, want 100 after edit", edited.TotalDealAmount)
	}
	if edited.AgentCommission != 9000 || edited.NetIncome != 4320 {
		t.Errorf("derived fields changed on edit: %+v", edited)
	}

	if err := svc.UpdateDeal(userID, stored.ID+999, DealInput{CloseDate: "2025-03-01"}); err != ErrDealNotFound {
		t.Errorf("update of unknown deal = %v, want ErrDealNotFound", err)
	}

	if err := svc.DeleteDeal(userID, stored.ID); err != nil {
		t.Fatalf("DeleteDeal: %v", err)
	}
	if err := svc.DeleteDeal(userID, stored.ID); err != ErrDealNotFound {
		t.Errorf("second delete = %v, want ErrDealNotFound", err)
	}
}

func TestPreviewReflectsPersistedCapUsage(t *testing.T) {
	const userID = int64(102)
	svc := newTestService()
	saveProfile(t, userID, 3000)

	// First deal consumes 2700 of the 3000 split cap.
	first, err := svc.CreateDeal(userID, DealInput{
		CloseDate:       "2025-02-01",
		TotalDealAmount: "300000",
	})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}
	if first.CompanySplit != 2700 {
		t.Fatalf("first CompanySplit = %v, want 2700", first.CompanySplit)
	}

	// An identical second deal only gets the remaining 300 of headroom.
	preview, err := svc.PreviewBreakdown(userID, DealInput{
		CloseDate:       "2025-05-01",
		TotalDealAmount: "300000",
	})
	if err != nil {
		t.Fatalf("PreviewBreakdown: %v", err)
	}
	if preview.CompanySplit != 300 {
		t.Errorf("second deal CompanySplit = %v, want 300 (cap headroom)", preview.CompanySplit)
	}

	// Deleting the first deal frees the cap again.
	if err := svc.DeleteDeal(userID, first.ID); err != nil {
		t.Fatalf("DeleteDeal: %v", err)
	}
	preview, err = svc.PreviewBreakdown(userID, DealInput{
		CloseDate:       "2025-05-01",
		TotalDealAmount: "300000",
	})
	if err != nil {
		t.Fatalf("PreviewBreakdown after delete: %v", err)
	}
	if preview.CompanySplit != 2700 {
		t.Errorf("CompanySplit after delete = %v, want 2700", preview.CompanySplit)
	}
}

func TestSummaryAggregatesActiveYear(t *testing.T) {
	const userID = int64(103)
	svc := newTestService()
	saveProfile(t, userID, 6000)

	if _, err := svc.CreateDeal(userID, DealInput{CloseDate: "2025-01-20", TotalDealAmount: "200000"}); err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}
	// Closed before the Jan 1 anchor, outside the active year.
	if _, err := svc.CreateDeal(userID, DealInput{CloseDate: "2024-12-20", TotalDealAmount: "200000"}); err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}

	summary, err := svc.Summary(userID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.CommissionYearStart != "2025-01-01" {
		t.Errorf("CommissionYearStart = %q, want 2025-01-01", summary.CommissionYearStart)
	}
	if summary.DealCount != 1 {
		t.Errorf("DealCount = %d, want 1 (only the in-year deal)", summary.DealCount)
	}
	// In-year deal: commission 6000, split 1800, royalty 360.
	if summary.YTDCompanySplitUsed != 1800 {
		t.Errorf("YTDCompanySplitUsed = %v, want 1800", summary.YTDCompanySplitUsed)
	}
	if summary.CompanySplitCapRemaining != 4200 {
		t.Errorf("CompanySplitCapRemaining = %v, want 4200", summary.CompanySplitCapRemaining)
	}
	if summary.YTDRoyaltyUsed != 360 {
		t.Errorf("YTDRoyaltyUsed = %v, want 360", summary.YTDRoyaltyUsed)
	}
}
