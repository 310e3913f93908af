package processors

import (
	"math"
	"reflect"
	"testing"

	"github.com/username/dealfolio/backend/src/models"
)

func percentageProfile() models.CommissionProfile {
	return models.CommissionProfile{
		CommissionMode:      models.CommissionModePercentage,
		CommissionPercent:   3,
		CompanySplitPercent: 30,
		CompanySplitCap:     6000,
		RoyaltyPercent:      6,
		RoyaltyCap:          3000,
		EstimatedTaxPercent: 25,
		CommissionYearStart: "01-01",
	}
}

func TestComputeBreakdownPercentagePartialCap(t *testing.T) {
	// Company split cap nearly exhausted: only 100 of headroom left.
	got := ComputeBreakdown(BreakdownInput{
		TotalDealAmount:      300000,
		Profile:              percentageProfile(),
		YTDCompanySplitUsage: 5900,
		YTDRoyaltyUsage:      0,
	})

	want := models.Breakdown{
		AgentCommission: 9000.00,
		CompanySplit:    100.00, // natural 2700 clipped to remaining cap
		RoyaltyUsed:     540.00,
		GrossIncome:     8360.00,
		EstimatedTaxes:  2090.00,
		NetIncome:       6270.00,
	}
	assertDerived(t, got, want)
}

func TestComputeBreakdownPercentageNoCapsHit(t *testing.T) {
	profile := percentageProfile()
	profile.CompanySplitCap = 100000
	profile.RoyaltyCap = 100000

	got := ComputeBreakdown(BreakdownInput{
		TotalDealAmount: 500000,
		Profile:         profile,
		ReferralFee:     250,
		TransactionFee:  395,
	})

	// commission 15000, split 4500, royalty 900, gross 15000-4500-900-250-395
	want := models.Breakdown{
		AgentCommission: 15000.00,
		CompanySplit:    4500.00,
		RoyaltyUsed:     900.00,
		GrossIncome:     8955.00,
		EstimatedTaxes:  2238.75,
		NetIncome:       6716.25,
	}
	assertDerived(t, got, want)
}

func TestComputeBreakdownCapFullyExhausted(t *testing.T) {
	tests := []struct {
		name     string
		ytdUsage float64
	}{
		{"usage equals cap", 3000},
		{"usage exceeds cap", 9999},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeBreakdown(BreakdownInput{
				TotalDealAmount: 1000000,
				Profile:         percentageProfile(),
				YTDRoyaltyUsage: tc.ytdUsage,
			})
			if got.RoyaltyUsed != 0 {
				t.Errorf("RoyaltyUsed = %v, want 0 when ytd usage >= cap", got.RoyaltyUsed)
			}
		})
	}
}

func TestComputeBreakdownCapProperties(t *testing.T) {
	profile := percentageProfile()
	usages := []float64{0, 1000, 5999.99, 6000, 6000.01, 50000}
	for _, usage := range usages {
		got := ComputeBreakdown(BreakdownInput{
			TotalDealAmount:      400000,
			Profile:              profile,
			YTDCompanySplitUsage: usage,
		})
		maxAllowed := math.Max(0, profile.CompanySplitCap-usage)
		if got.CompanySplit > maxAllowed+1e-9 {
			t.Errorf("usage %v: CompanySplit = %v exceeds remaining cap %v", usage, got.CompanySplit, maxAllowed)
		}
		if usage >= profile.CompanySplitCap && got.CompanySplit != 0 {
			t.Errorf("usage %v: CompanySplit = %v, want 0 once cap exhausted", usage, got.CompanySplit)
		}
	}
}

func TestComputeBreakdownAccountingIdentities(t *testing.T) {
	tests := []struct {
		name   string
		input  BreakdownInput
	}{
		{"plain deal", BreakdownInput{TotalDealAmount: 325000, Profile: percentageProfile()}},
		{"with fees", BreakdownInput{TotalDealAmount: 199999.99, Profile: percentageProfile(), ReferralFee: 312.5, TransactionFee: 129.95}},
		{"partial caps", BreakdownInput{TotalDealAmount: 750000, Profile: percentageProfile(), YTDCompanySplitUsage: 4321.1, YTDRoyaltyUsage: 2888.88}},
		{"zero amount", BreakdownInput{TotalDealAmount: 0, Profile: percentageProfile()}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := ComputeBreakdown(tc.input)

			gross := round2(b.AgentCommission - b.CompanySplit - b.RoyaltyUsed - tc.input.ReferralFee - tc.input.TransactionFee)
			if b.GrossIncome != gross {
				t.Errorf("GrossIncome = %v, want commission-split-royalty-fees = %v", b.GrossIncome, gross)
			}
			if net := round2(b.GrossIncome - b.EstimatedTaxes); b.NetIncome != net {
				t.Errorf("NetIncome = %v, want gross-taxes = %v", b.NetIncome, net)
			}
			for _, v := range []float64{b.AgentCommission, b.CompanySplit, b.RoyaltyUsed, b.GrossIncome, b.EstimatedTaxes, b.NetIncome} {
				if v != round2(v) {
					t.Errorf("value %v carries more than 2 decimal digits", v)
				}
			}
		})
	}
}

func TestComputeBreakdownOverridePercent(t *testing.T) {
	override := 2.5
	got := ComputeBreakdown(BreakdownInput{
		TotalDealAmount:           200000,
		Profile:                   percentageProfile(),
		CommissionPercentOverride: &override,
	})
	if got.AgentCommission != 5000.00 {
		t.Errorf("AgentCommission = %v, want 5000.00 with 2.5%% override", got.AgentCommission)
	}
}

func TestComputeBreakdownFixedMode(t *testing.T) {
	profile := models.CommissionProfile{
		CommissionMode:        models.CommissionModeFixed,
		FixedCommissionAmount: 5000,
		CompanySplitPercent:   30,
		CompanySplitCap:       6000,
		RoyaltyPercent:        6,
		RoyaltyCap:            3000,
		EstimatedTaxPercent:   20,
	}

	// Flat commission is independent of the deal amount, and fixed-mode deals
	// never consume split or royalty caps. Fees are not subtracted either.
	for _, amount := range []float64{0, 100, 300000, 2500000} {
		got := ComputeBreakdown(BreakdownInput{
			TotalDealAmount: amount,
			Profile:         profile,
			ReferralFee:     500,
			TransactionFee:  250,
		})
		want := models.Breakdown{
			AgentCommission: 5000.00,
			CompanySplit:    0,
			RoyaltyUsed:     0,
			GrossIncome:     5000.00,
			EstimatedTaxes:  1000.00,
			NetIncome:       4000.00,
		}
		assertDerived(t, got, want)
	}
}

func TestComputeBreakdownIdempotent(t *testing.T) {
	input := BreakdownInput{
		TotalDealAmount:      423500,
		Profile:              percentageProfile(),
		YTDCompanySplitUsage: 1234.56,
		YTDRoyaltyUsage:      789.01,
		ReferralFee:          150,
	}
	first := ComputeBreakdown(input)
	second := ComputeBreakdown(input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ComputeBreakdown is not idempotent: %+v vs %+v", first, second)
	}
}

func TestComputeBreakdownStepsMatchDerivedValues(t *testing.T) {
	b := ComputeBreakdown(BreakdownInput{TotalDealAmount: 300000, Profile: percentageProfile()})
	if len(b.Steps) != 5 {
		t.Fatalf("expected 5 display steps, got %d", len(b.Steps))
	}
	if b.Steps[1].Amount != b.AgentCommission {
		t.Errorf("commission step %v != AgentCommission %v", b.Steps[1].Amount, b.AgentCommission)
	}
	if b.Steps[2].Amount != b.GrossIncome {
		t.Errorf("after-split step %v != GrossIncome %v", b.Steps[2].Amount, b.GrossIncome)
	}
	if b.Steps[3].Amount != b.EstimatedTaxes {
		t.Errorf("taxes step %v != EstimatedTaxes %v", b.Steps[3].Amount, b.EstimatedTaxes)
	}
	if b.Steps[4].Amount != b.NetIncome {
		t.Errorf("net step %v != NetIncome %v", b.Steps[4].Amount, b.NetIncome)
	}
}

func assertDerived(t *testing.T, got, want models.Breakdown) {
	t.Helper()
	if got.AgentCommission != want.AgentCommission {
		t.Errorf("AgentCommission = %v, want %v", got.AgentCommission, want.AgentCommission)
	}
	if got.CompanySplit != want.CompanySplit {
		t.Errorf("CompanySplit = %v, want %v", got.CompanySplit, want.CompanySplit)
	}
	if got.RoyaltyUsed != want.RoyaltyUsed {
		t.Errorf("RoyaltyUsed = %v, want %v", got.RoyaltyUsed, want.RoyaltyUsed)
	}
	if got.GrossIncome != want.GrossIncome {
		t.Errorf("GrossIncome = %v, want %v", got.GrossIncome, want.GrossIncome)
	}
	if got.EstimatedTaxes != want.EstimatedTaxes {
		t.Errorf("EstimatedTaxes = %v, want %v", got.EstimatedTaxes, want.EstimatedTaxes)
	}
	if got.NetIncome != want.NetIncome {
		t.Errorf("NetIncome = %v, want %v", got.NetIncome, want.NetIncome)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
