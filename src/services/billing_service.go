package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v78"
	billingportalsession "github.com/stripe/stripe-go/v78/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/customer"
	"github.com/stripe/stripe-go/v78/webhook"
	"github.com/username/dealfolio/backend/src/config"
	"github.com/username/dealfolio/backend/src/database"
	"github.com/username/dealfolio/backend/src/logger"
	"github.com/username/dealfolio/backend/src/model"
	"github.com/username/dealfolio/backend/src/models"
	"github.com/username/dealfolio/backend/src/utils"
)

type billingServiceImpl struct {
	webhookSecret string
	priceID       string
}

// NewBillingService wires the Stripe client. The API key is process-global in
// stripe-go, set once here.
func NewBillingService() BillingService {
	if config.Cfg.StripeSecretKey != "" {
		stripe.Key = config.Cfg.StripeSecretKey
	}
	return &billingServiceImpl{
		webhookSecret: config.Cfg.StripeWebhookSecret,
		priceID:       config.Cfg.StripePriceID,
	}
}

func (s *billingServiceImpl) enabled() bool {
	return stripe.Key != "" && s.priceID != ""
}

// ensureCustomer returns the user's Stripe customer ID, creating the customer
// on first use and remembering it in the subscriptions table.
func (s *billingServiceImpl) ensureCustomer(userID int64, email string) (string, error) {
	sub, err := model.GetSubscription(database.DB, userID)
	if err != nil {
		return "", fmt.Errorf("error loading subscription record: %w", err)
	}
	if sub.StripeCustomerID != "" {
		return sub.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.AddMetadata("user_id", strconv.FormatInt(userID, 10))
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("error creating stripe customer: %w", err)
	}

	sub.StripeCustomerID = cust.ID
	if err := model.UpsertSubscription(database.DB, sub); err != nil {
		return "", fmt.Errorf("error persisting stripe customer id: %w", err)
	}
	logger.L.Info("Stripe customer created", "userID", userID, "customerID", cust.ID)
	return cust.ID, nil
}

func (s *billingServiceImpl) CreateCheckoutSession(userID int64, email string) (string, error) {
	if !s.enabled() {
		return "", ErrBillingDisabled
	}

	customerID, err := s.ensureCustomer(userID, email)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(config.Cfg.BillingSuccessURL),
		CancelURL:         stripe.String(config.Cfg.BillingCancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(userID, 10)),
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("error creating checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *billingServiceImpl) CreatePortalSession(userID int64) (string, error) {
	if stripe.Key == "" {
		return "", ErrBillingDisabled
	}

	sub, err := model.GetSubscription(database.DB, userID)
	if err != nil {
		return "", fmt.Errorf("error loading subscription record: %w", err)
	}
	if sub.StripeCustomerID == "" {
		return "", fmt.Errorf("user %d has no stripe customer yet", userID)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(config.Cfg.BillingPortalReturnURL),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("error creating billing portal session: %w", err)
	}
	return sess.URL, nil
}

// HandleWebhookEvent verifies the Stripe signature and folds subscription
// lifecycle events into the subscriptions table.
func (s *billingServiceImpl) HandleWebhookEvent(payload []byte, signatureHeader string) error {
	if s.webhookSecret == "" {
		return ErrBillingDisabled
	}

	event, err := webhook.ConstructEvent(payload, signatureHeader, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("error parsing checkout.session.completed payload: %w", err)
		}
		return s.applyCheckoutCompleted(&sess)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("error parsing subscription event payload: %w", err)
		}
		return s.applySubscriptionUpdate(&sub)

	default:
		logger.L.Debug("Ignoring unhandled stripe event", "type", event.Type)
		return nil
	}
}

func (s *billingServiceImpl) applyCheckoutCompleted(sess *stripe.CheckoutSession) error {
	userID, err := strconv.ParseInt(sess.ClientReferenceID, 10, 64)
	if err != nil {
		return fmt.Errorf("checkout session %s carries no usable client reference id: %w", sess.ID, err)
	}

	record := models.Subscription{
		UserID: userID,
		Status: "active",
	}
	if sess.Customer != nil {
		record.StripeCustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		record.StripeSubscriptionID = sess.Subscription.ID
	}
	if err := model.UpsertSubscription(database.DB, record); err != nil {
		return fmt.Errorf("error persisting completed checkout: %w", err)
	}
	logger.L.Info("Subscription activated via checkout", "userID", userID)
	return nil
}

func (s *billingServiceImpl) applySubscriptionUpdate(sub *stripe.Subscription) error {
	if sub.Customer == nil {
		return fmt.Errorf("subscription event %s carries no customer", sub.ID)
	}
	userID, err := model.GetUserIDByStripeCustomer(database.DB, sub.Customer.ID)
	if err != nil {
		return fmt.Errorf("no local user for stripe customer %s: %w", sub.Customer.ID, err)
	}

	record := models.Subscription{
		UserID:               userID,
		StripeCustomerID:     sub.Customer.ID,
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
	}
	if sub.CurrentPeriodEnd > 0 {
		record.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC().Format(utils.DefaultDateFormat)
	}
	if err := model.UpsertSubscription(database.DB, record); err != nil {
		return fmt.Errorf("error persisting subscription update: %w", err)
	}
	logger.L.Info("Subscription state updated", "userID", userID, "status", record.Status)
	return nil
}

func (s *billingServiceImpl) Status(userID int64) (models.Subscription, error) {
	return model.GetSubscription(database.DB, userID)
}
