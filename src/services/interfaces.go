package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/dealfolio/backend/src/models"
)

var (
	ErrDealNotFound    = errors.New("deal not found")
	ErrBillingDisabled = errors.New("billing is not configured")
)

// DealInput carries a deal's raw inputs as submitted by the client. Numeric
// fields are deliberately untyped: the deal-entry form sends whatever the user
// typed, and the calculator boundary coerces it with SafeNumber (invalid -> 0)
// instead of failing.
type DealInput struct {
	CloseDate string `json:"close_date"`
	Address   string `json:"address"`
	Client    string `json:"client"`
	Notes     string `json:"notes"`

	TotalDealAmount           interface{} `json:"total_deal_amount"`
	CommissionPercentOverride interface{} `json:"commission_percent_override"`
	ReferralFee               interface{} `json:"referral_fee"`
	TransactionFee            interface{} `json:"transaction_fee"`
}

// DealService is the orchestration layer around the breakdown calculator: it
// loads the profile, derives year-to-date cap usage from persisted deals, runs
// the computation, and persists/serves deal records.
type DealService interface {
	PreviewBreakdown(userID int64, input DealInput) (*models.Breakdown, error)
	CreateDeal(userID int64, input DealInput) (*models.Deal, error)
	ListDeals(userID int64) ([]models.Deal, error)
	// UpdateDeal edits raw inputs only. The five derived fields stay frozen at
	// their creation-time values.
	UpdateDeal(userID, dealID int64, input DealInput) error
	DeleteDeal(userID, dealID int64) error
	Summary(userID int64) (*models.DashboardSummary, error)
	InvalidateUserCache(userID int64)
}

// EmailService sends account lifecycle email.
type EmailService interface {
	SendVerificationEmail(toEmail, username, token string) error
	SendPasswordResetEmail(toEmail, username, token string) error
}

// DistanceService resolves the driving distance between two addresses.
type DistanceService interface {
	DrivingDistanceMiles(ctx context.Context, fromAddress, toAddress string) (float64, error)
}

// BillingService wraps the Stripe subscription flows.
type BillingService interface {
	CreateCheckoutSession(userID int64, email string) (string, error)
	CreatePortalSession(userID int64) (string, error)
	HandleWebhookEvent(payload []byte, signatureHeader string) error
	Status(userID int64) (models.Subscription, error)
}

// Clock is injectable time, needed so commission-year windows are testable.
type Clock func() time.Time
