package models

// Subscription mirrors the user's Stripe subscription state as reported by
// webhooks. The backend treats it as informational: write routes are not
// gated on it.
type Subscription struct {
	UserID               int64  `json:"user_id"`
	StripeCustomerID     string `json:"stripe_customer_id"`
	StripeSubscriptionID string `json:"stripe_subscription_id"`
	Status               string `json:"status"` // e.g. "active", "past_due", "canceled", "none"
	CurrentPeriodEnd     string `json:"current_period_end"`
	UpdatedAt            string `json:"updated_at"`
}
