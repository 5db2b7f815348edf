package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/subscription"
	"github.com/stripe/stripe-go/v80/webhook"
)

// Stripe handles recurring donations through Stripe Billing checkout
// sessions. The session id is the correlation id; webhooks arrive signed with
// the endpoint secret and are verified through the official SDK.
type Stripe struct {
	secretKey     string
	webhookSecret string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

func NewStripe(cfg StripeConfig) *Stripe {
	// The SDK keys off a package-level variable; it is set once here at
	// construction and never mutated afterwards.
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &Stripe{secretKey: cfg.SecretKey, webhookSecret: cfg.WebhookSecret}
}

func (s *Stripe) Method() string { return "stripe" }

func (s *Stripe) StartCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error) {
	if s.secretKey == "" {
		return nil, ErrProviderUnavailable
	}

	interval := "month"
	if req.Metadata["frequency"] == "yearly" {
		interval = "year"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(req.CallbackURL),
		CancelURL:         stripe.String(req.CallbackURL),
		CustomerEmail:     stripe.String(req.DonorEmail),
		ClientReferenceID: stripe.String(req.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.Amount.Mul(decimal.NewFromInt(100)).IntPart()),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(interval),
					},
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Recurring donation"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	cs, err := session.New(params)
	if err != nil {
		return nil, &InitiationError{Provider: s.Method(), Err: err}
	}

	return &ChargeSession{
		PaymentLink: cs.URL,
		ProviderRef: cs.ID,
	}, nil
}

func (s *Stripe) VerifyCharge(ctx context.Context, providerRef string) (*ChargeResult, error) {
	if s.secretKey == "" {
		return nil, ErrProviderUnavailable
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	cs, err := session.Get(providerRef, params)
	if err != nil {
		return nil, &VerificationError{Provider: s.Method(), Err: err}
	}

	result := &ChargeResult{
		Succeeded: cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Pending:   cs.Status == stripe.CheckoutSessionStatusOpen,
		Amount:    decimal.NewFromInt(cs.AmountTotal).Div(decimal.NewFromInt(100)),
		Currency:  strings.ToUpper(string(cs.Currency)),
	}
	if cs.Subscription != nil {
		result.ProviderTransactionID = cs.Subscription.ID
	}
	return result, nil
}

func (s *Stripe) SignatureHeader() string { return "Stripe-Signature" }

func (s *Stripe) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.webhookSecret == "" {
		return false
	}
	_, err := webhook.ConstructEvent(body, signature, s.webhookSecret)
	return err == nil
}

func (s *Stripe) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("stripe: malformed webhook payload: %w", err)
	}

	out := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("stripe: parsing checkout session: %w", err)
		}
		out.ProviderRef = cs.ID
		out.Reference = cs.ClientReferenceID
		out.Amount = decimal.NewFromInt(cs.AmountTotal).Div(decimal.NewFromInt(100))
		out.Currency = strings.ToUpper(string(cs.Currency))
		out.Frequency = cs.Metadata["frequency"]
		if cs.Subscription != nil {
			out.SubscriptionCode = cs.Subscription.ID
			out.ProviderTransactionID = cs.Subscription.ID
		}
		if cs.Customer != nil {
			out.CustomerCode = cs.Customer.ID
		}
		if event.Type == "checkout.session.completed" {
			out.ChargeSuccess = cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
		} else {
			out.ChargeFailed = true
		}

	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("stripe: parsing invoice: %w", err)
		}
		if inv.Subscription != nil {
			out.SubscriptionCode = inv.Subscription.ID
		}
		out.Amount = decimal.NewFromInt(inv.AmountPaid).Div(decimal.NewFromInt(100))
		out.Currency = strings.ToUpper(string(inv.Currency))
		if inv.PeriodEnd > 0 {
			next := time.Unix(inv.PeriodEnd, 0)
			out.NextChargeDate = &next
		}
		out.SubscriptionStatus = "active"

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("stripe: parsing subscription: %w", err)
		}
		out.SubscriptionCode = sub.ID
		out.SubscriptionStatus = "cancelled"

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("stripe: parsing subscription: %w", err)
		}
		out.SubscriptionCode = sub.ID
		if sub.PauseCollection != nil && sub.PauseCollection.Behavior != "" {
			out.SubscriptionStatus = "paused"
		} else {
			out.SubscriptionStatus = "active"
		}
	}

	return out, nil
}

func (s *Stripe) CancelSubscription(ctx context.Context, code string) error {
	if s.secretKey == "" {
		return ErrProviderUnavailable
	}
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	_, err := subscription.Cancel(code, params)
	return err
}

func (s *Stripe) PauseSubscription(ctx context.Context, code string) error {
	if s.secretKey == "" {
		return ErrProviderUnavailable
	}
	params := &stripe.SubscriptionParams{
		PauseCollection: &stripe.SubscriptionPauseCollectionParams{
			Behavior: stripe.String("mark_uncollectible"),
		},
	}
	params.Context = ctx
	_, err := subscription.Update(code, params)
	return err
}

func (s *Stripe) ResumeSubscription(ctx context.Context, code string) error {
	if s.secretKey == "" {
		return ErrProviderUnavailable
	}
	// Clearing pause_collection resumes collection; the SDK has no typed
	// field for the empty value.
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExtra("pause_collection", "")
	_, err := subscription.Update(code, params)
	return err
}
