package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrProviderUnavailable is returned by an adapter whose credentials are not
// configured. The system degrades that one provider to a 503 instead of
// crashing or handing out a link that cannot be paid.
var ErrProviderUnavailable = errors.New("payment provider is not configured")

// InitiationError wraps a provider failure while starting a charge.
type InitiationError struct {
	Provider string
	Err      error
}

func (e *InitiationError) Error() string {
	return fmt.Sprintf("%s: failed to initiate payment: %v", e.Provider, e.Err)
}

func (e *InitiationError) Unwrap() error { return e.Err }

// VerificationError wraps a provider failure while verifying a charge. The
// caller may retry; no donation state is changed on this error.
type VerificationError struct {
	Provider string
	Err      error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: failed to verify payment: %v", e.Provider, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// ChargeRequest carries everything an adapter needs to start a charge.
type ChargeRequest struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	DonorEmail  string
	DonorName   string
	DonorPhone  string
	CallbackURL string
	WebhookURL  string
	Metadata    map[string]string
}

// ChargeSession is the provider's answer to a started charge.
type ChargeSession struct {
	// PaymentLink is the hosted checkout URL the donor is redirected to.
	// Empty for manual rails.
	PaymentLink string
	// ProviderRef is the correlation id later used to match confirmations
	// back to the donation.
	ProviderRef string
	// Instructions is human-readable payment guidance, set by manual rails
	// only.
	Instructions string
}

// ChargeResult is the provider's authoritative view of a charge.
type ChargeResult struct {
	Succeeded             bool
	Pending               bool
	Amount                decimal.Decimal
	Currency              string
	ProviderTransactionID string
}

// WebhookEvent is a provider webhook normalized into the fields reconciliation
// cares about. Subscription fields are only set by the recurring billing
// provider.
type WebhookEvent struct {
	ID                    string
	Type                  string
	ChargeSuccess         bool
	ChargeFailed          bool
	ProviderRef           string
	Reference             string
	Amount                decimal.Decimal
	Currency              string
	ProviderTransactionID string

	SubscriptionCode   string
	CustomerCode       string
	SubscriptionStatus string
	NextChargeDate     *time.Time
	Frequency          string
}

// Charger starts a charge with a provider. Every adapter implements this.
type Charger interface {
	Method() string
	StartCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error)
}

// Verifier pulls the authoritative outcome of a charge from the provider.
// Manual rails do not implement it; their outcome is an admin decision.
type Verifier interface {
	VerifyCharge(ctx context.Context, providerRef string) (*ChargeResult, error)
}

// WebhookHandler authenticates and parses provider-initiated confirmations.
type WebhookHandler interface {
	SignatureHeader() string
	VerifyWebhookSignature(body []byte, signature string) bool
	ParseWebhook(body []byte) (*WebhookEvent, error)
}

// SubscriptionController issues lifecycle commands against the recurring
// billing provider.
type SubscriptionController interface {
	CancelSubscription(ctx context.Context, code string) error
	PauseSubscription(ctx context.Context, code string) error
	ResumeSubscription(ctx context.Context, code string) error
}

// Registry holds the configured provider adapters, keyed by payment method
// tag. Adapters are constructed once at startup and are safe for concurrent
// use; they hold credentials only, no per-request state.
type Registry struct {
	chargers map[string]Charger
}

func NewRegistry(chargers ...Charger) *Registry {
	r := &Registry{chargers: make(map[string]Charger, len(chargers))}
	for _, c := range chargers {
		r.chargers[c.Method()] = c
	}
	return r
}

func (r *Registry) Charger(method string) (Charger, bool) {
	c, ok := r.chargers[method]
	return c, ok
}

// Verifier returns the adapter for method if it supports pull verification.
func (r *Registry) Verifier(method string) (Verifier, bool) {
	c, ok := r.chargers[method]
	if !ok {
		return nil, false
	}
	v, ok := c.(Verifier)
	return v, ok
}

// WebhookHandler returns the adapter for method if it receives webhooks.
func (r *Registry) WebhookHandler(method string) (WebhookHandler, bool) {
	c, ok := r.chargers[method]
	if !ok {
		return nil, false
	}
	w, ok := c.(WebhookHandler)
	return w, ok
}

func (r *Registry) Methods() []string {
	methods := make([]string, 0, len(r.chargers))
	for m := range r.chargers {
		methods = append(methods, m)
	}
	return methods
}
