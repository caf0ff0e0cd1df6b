package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Checkout types accepted by CreateCheckoutSession.
const (
	CheckoutTypeSubscription = "subscription"
	CheckoutTypeCredits      = "credits"
)

// StripeService manages Stripe integration: checkout session creation and
// webhook-driven reconciliation of the credit ledger and subscription cache.
type StripeService struct {
	cfg        *config.Config
	userRepo   repository.UserRepository
	subRepo    repository.SubscriptionRepository
	creditRepo repository.CreditRepository
	logger     zerolog.Logger
}

// NewStripeService initializes the Stripe key and returns the service with
// a scoped logger.
func NewStripeService(cfg *config.Config, userRepo repository.UserRepository, subRepo repository.SubscriptionRepository, creditRepo repository.CreditRepository, logger zerolog.Logger) *StripeService {
	stripe.Key = cfg.StripeSecretKey
	lg := logger.With().Str("service", "StripeService").Logger()
	return &StripeService{cfg: cfg, userRepo: userRepo, subRepo: subRepo, creditRepo: creditRepo, logger: lg}
}

// getOrCreateCustomer ensures a Stripe customer exists for the user.
func (s *StripeService) getOrCreateCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}
	params := &stripe.CustomerParams{
		Email:    stripe.String(user.Email),
		Name:     stripe.String(user.Name),
		Metadata: map[string]string{"user_id": user.UserID},
	}
	cust, err := customerpkg.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to create Stripe customer")
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	if err := s.userRepo.UpdateStripeCustomerID(ctx, user.UserID, cust.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to store stripe customer id")
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession creates a Stripe Checkout session for either a
// subscription plan or a one-time credit package.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, checkoutType, plan, packageID string) (sessionID, url string, err error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for checkout session")
		return "", "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", "", fmt.Errorf("user not found: %s", userID)
	}
	customerID, err := s.getOrCreateCustomer(ctx, user)
	if err != nil {
		return "", "", err
	}

	var priceID, mode string
	metadata := map[string]string{"user_id": userID, "type": checkoutType}
	switch checkoutType {
	case CheckoutTypeSubscription:
		mode = string(stripe.CheckoutSessionModeSubscription)
		switch plan {
		case "monthly":
			priceID = s.cfg.StripePriceMonthly
		case "annual":
			priceID = s.cfg.StripePriceAnnual
		default:
			return "", "", fmt.Errorf("invalid plan: %s", plan)
		}
	case CheckoutTypeCredits:
		mode = string(stripe.CheckoutSessionModePayment)
		credits, ok := s.cfg.CreditPackages[packageID]
		if !ok {
			return "", "", fmt.Errorf("invalid credit package: %s", packageID)
		}
		priceID, ok = s.cfg.CreditPackagePrices[packageID]
		if !ok || priceID == "" {
			return "", "", fmt.Errorf("no price configured for credit package: %s", packageID)
		}
		metadata["credits"] = strconv.Itoa(credits)
		metadata["package_id"] = packageID
	default:
		return "", "", fmt.Errorf("invalid checkout type: %s", checkoutType)
	}

	sessParams := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(mode),
		SuccessURL:         stripe.String(s.cfg.StripeCheckoutReturnURL + "?status=success"),
		CancelURL:          stripe.String(s.cfg.StripeCheckoutReturnURL + "?status=cancel"),
		Metadata:           metadata,
	}
	if mode == string(stripe.CheckoutSessionModeSubscription) {
		sessParams.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": userID},
		}
	}
	sess, err := checkoutsession.New(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("type", checkoutType).Msg("Failed to create Stripe checkout session")
		return "", "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.ID, sess.URL, nil
}

// HandleWebhook verifies the event signature and reconciles local state.
// Signature failure returns 400 with no mutation.
func (s *StripeService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}

	s.logger.Info().Str("event_type", string(event.Type)).Msg("Stripe webhook received")
	if err := s.ProcessEvent(r.Context(), event); err != nil {
		s.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to process Stripe webhook event")
		http.Error(w, "failed to process event", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

// ProcessEvent applies one verified Stripe event to local state. Every
// effect is a full overwrite keyed by stable Stripe ids, so replayed
// events are idempotent. Events without a resolvable user are dropped,
// not failed: Stripe will not retry on a 200.
func (s *StripeService) ProcessEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("invalid checkout.session payload: %w", err)
		}
		return s.handleCheckoutCompleted(ctx, &cs)
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("invalid subscription payload: %w", err)
		}
		return s.handleSubscriptionUpserted(ctx, &sub)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("invalid subscription payload: %w", err)
		}
		return s.subRepo.SetStatusBySubscriptionID(ctx, sub.ID, model.SubscriptionCanceled)
	case "invoice.payment_succeeded":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return fmt.Errorf("invalid invoice payload: %w", err)
		}
		return s.handleInvoice(ctx, &invoice, model.SubscriptionActive)
	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return fmt.Errorf("invalid invoice payload: %w", err)
		}
		return s.handleInvoice(ctx, &invoice, model.SubscriptionPastDue)
	default:
		s.logger.Warn().Str("event_type", string(event.Type)).Msg("Unhandled Stripe webhook event")
		return nil
	}
}

func (s *StripeService) handleCheckoutCompleted(ctx context.Context, cs *stripe.CheckoutSession) error {
	userID := cs.Metadata["user_id"]
	if userID == "" {
		s.logger.Warn().Str("session_id", cs.ID).Msg("Checkout session missing user_id metadata, dropping event")
		return nil
	}

	switch cs.Metadata["type"] {
	case CheckoutTypeCredits:
		credits, err := strconv.Atoi(cs.Metadata["credits"])
		if err != nil || credits <= 0 {
			s.logger.Warn().Str("session_id", cs.ID).Str("credits", cs.Metadata["credits"]).Msg("Checkout session has invalid credits metadata, dropping event")
			return nil
		}
		reference := cs.ID
		if cs.PaymentIntent != nil && cs.PaymentIntent.ID != "" {
			reference = cs.PaymentIntent.ID
		}
		if err := s.creditRepo.AddCredits(ctx, userID, credits, reference); err != nil {
			return fmt.Errorf("grant %d credits to user %s: %w", credits, userID, err)
		}
		s.logger.Info().Str("user_id", userID).Int("credits", credits).Str("reference", reference).Str("package_id", cs.Metadata["package_id"]).Msg("Credits granted from checkout")
		return nil
	case CheckoutTypeSubscription:
		// Subscription state lands through customer.subscription.* events,
		// which carry the full period and status detail.
		s.logger.Info().Str("user_id", userID).Str("session_id", cs.ID).Msg("Subscription checkout completed")
		return nil
	default:
		s.logger.Warn().Str("session_id", cs.ID).Str("type", cs.Metadata["type"]).Msg("Checkout session has unknown type metadata, dropping event")
		return nil
	}
}

func (s *StripeService) handleSubscriptionUpserted(ctx context.Context, sub *stripe.Subscription) error {
	userID, err := s.resolveUserID(ctx, sub.Metadata, customerIDOf(sub.Customer))
	if err != nil {
		s.logger.Warn().Err(err).Str("subscription_id", sub.ID).Msg("Cannot resolve user for subscription event, dropping")
		return nil
	}
	if len(sub.Items.Data) == 0 {
		return fmt.Errorf("subscription %s has no items", sub.ID)
	}
	item := sub.Items.Data[0]
	planID := ""
	if item.Price != nil {
		planID = item.Price.ID
	}

	cached := &model.Subscription{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		PlanID:               planID,
		Status:               mapSubscriptionStatus(sub.Status),
		CurrentPeriodStart:   time.Unix(item.CurrentPeriodStart, 0),
		CurrentPeriodEnd:     time.Unix(item.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if err := s.subRepo.UpsertSubscription(ctx, cached); err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.ID, err)
	}
	s.logger.Info().Str("user_id", userID).Str("subscription_id", sub.ID).Str("status", cached.Status).Msg("Subscription cache updated")
	return nil
}

func (s *StripeService) handleInvoice(ctx context.Context, invoice *stripe.Invoice, status string) error {
	subID := subscriptionIDFromInvoice(invoice)
	if subID == "" {
		// One-time invoices carry no subscription; nothing to reconcile.
		s.logger.Info().Str("invoice_id", invoice.ID).Msg("Invoice has no subscription, skipping")
		return nil
	}
	if status == model.SubscriptionActive {
		start := time.Unix(invoice.PeriodStart, 0)
		end := time.Unix(invoice.PeriodEnd, 0)
		return s.subRepo.SetStatusAndPeriodBySubscriptionID(ctx, subID, status, start, end)
	}
	return s.subRepo.SetStatusBySubscriptionID(ctx, subID, status)
}

// resolveUserID finds the user from event metadata, falling back to a
// lookup by Stripe customer id.
func (s *StripeService) resolveUserID(ctx context.Context, metadata map[string]string, customerID string) (string, error) {
	if userID := metadata["user_id"]; userID != "" {
		return userID, nil
	}
	if customerID == "" {
		return "", errors.New("missing user_id metadata and customer id")
	}
	u, err := s.userRepo.GetUserByStripeCustomerID(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("lookup user by stripe customer id: %w", err)
	}
	if u == nil {
		return "", fmt.Errorf("no user for customer id %s", customerID)
	}
	return u.UserID, nil
}

func customerIDOf(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func subscriptionIDFromInvoice(invoice *stripe.Invoice) string {
	if invoice.Lines == nil {
		return ""
	}
	for _, line := range invoice.Lines.Data {
		if line.Subscription != nil && line.Subscription.ID != "" {
			return line.Subscription.ID
		}
	}
	return ""
}

// mapSubscriptionStatus collapses Stripe's status vocabulary to the three
// states consumers care about.
func mapSubscriptionStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return model.SubscriptionActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusIncomplete, stripe.SubscriptionStatusUnpaid:
		return model.SubscriptionPastDue
	default:
		return model.SubscriptionCanceled
	}
}
