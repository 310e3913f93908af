package model

import (
	"database/sql"

	"github.com/username/dealfolio/backend/src/models"
)

// GetSubscription returns the user's billing state. Users without a Stripe
// subscription get a zero record with status "none".
func GetSubscription(db *sql.DB, userID int64) (models.Subscription, error) {
	query := `
	SELECT stripe_customer_id, stripe_subscription_id, status, current_period_end, updated_at
	FROM subscriptions
	WHERE user_id = ?`

	sub := models.Subscription{UserID: userID, Status: "none"}
	var customerID, subscriptionID, periodEnd, updatedAt sql.NullString
	err := db.QueryRow(query, userID).Scan(
		&customerID,
		&subscriptionID,
		&sub.Status,
		&periodEnd,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Subscription{UserID: userID, Status: "none"}, nil
	}
	if err != nil {
		return models.Subscription{}, err
	}
	sub.StripeCustomerID = customerID.String
	sub.StripeSubscriptionID = subscriptionID.String
	sub.CurrentPeriodEnd = periodEnd.String
	sub.UpdatedAt = updatedAt.String
	return sub, nil
}

// GetUserIDByStripeCustomer maps a Stripe customer back to a local user, used
// when processing webhooks.
func GetUserIDByStripeCustomer(db *sql.DB, customerID string) (int64, error) {
	var userID int64
	err := db.QueryRow(`SELECT user_id FROM subscriptions WHERE stripe_customer_id = ?`, customerID).Scan(&userID)
	return userID, err
}

// UpsertSubscription records the latest billing state reported by Stripe.
func UpsertSubscription(db *sql.DB, sub models.Subscription) error {
	query := `
	INSERT INTO subscriptions (user_id, stripe_customer_id, stripe_subscription_id, status, current_period_end, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(user_id) DO UPDATE SET
		stripe_customer_id = excluded.stripe_customer_id,
		stripe_subscription_id = excluded.stripe_subscription_id,
		status = excluded.status,
		current_period_end = excluded.current_period_end,
		updated_at = CURRENT_TIMESTAMP`

	_, err := db.Exec(query, sub.UserID, sub.StripeCustomerID, sub.StripeSubscriptionID, sub.Status, sub.CurrentPeriodEnd)
	return err
}
