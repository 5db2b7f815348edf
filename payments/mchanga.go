package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Mchanga runs mobile-money checkouts against an M-Changa fundraiser account.
// M-Changa sends no webhooks, so confirmation is pull-only: the client (or the
// redirect return) polls VerifyCharge until the contribution settles.
type Mchanga struct {
	apiKey      string
	fundraiser  string
	baseURL     string
	client      *http.Client
}

type MchangaConfig struct {
	APIKey     string
	Fundraiser string
	// BaseURL overrides the live API endpoint, used by tests.
	BaseURL string
}

func NewMchanga(cfg MchangaConfig) *Mchanga {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mchanga.africa"
	}
	return &Mchanga{
		apiKey:     cfg.APIKey,
		fundraiser: cfg.Fundraiser,
		baseURL:    cfg.BaseURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *Mchanga) Method() string { return "mchanga" }

func (m *Mchanga) StartCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error) {
	// A checkout is only offered once the fundraiser account is fully
	// configured; we never hand out a constructed link the API has not
	// acknowledged.
	if m.apiKey == "" || m.fundraiser == "" {
		return nil, ErrProviderUnavailable
	}

	body := map[string]interface{}{
		"fundraiser": m.fundraiser,
		"amount":     req.Amount.String(),
		"currency":   req.Currency,
		"phone":      req.DonorPhone,
		"email":      req.DonorEmail,
		"reference":  req.Reference,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &InitiationError{Provider: m.Method(), Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/checkout", bytes.NewBuffer(payload))
	if err != nil {
		return nil, &InitiationError{Provider: m.Method(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, &InitiationError{Provider: m.Method(), Err: err}
	}
	defer resp.Body.Close()

	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			CheckoutURL string `json:"checkout_url"`
			CheckoutID  string `json:"checkout_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &InitiationError{Provider: m.Method(), Err: err}
	}
	if resp.StatusCode != http.StatusOK || out.Status != "success" {
		return nil, &InitiationError{Provider: m.Method(), Err: fmt.Errorf("mchanga: %s", out.Message)}
	}

	return &ChargeSession{
		PaymentLink: out.Data.CheckoutURL,
		ProviderRef: out.Data.CheckoutID,
	}, nil
}

func (m *Mchanga) VerifyCharge(ctx context.Context, providerRef string) (*ChargeResult, error) {
	if m.apiKey == "" || m.fundraiser == "" {
		return nil, ErrProviderUnavailable
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/v1/checkout/"+providerRef, nil)
	if err != nil {
		return nil, &VerificationError{Provider: m.Method(), Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, &VerificationError{Provider: m.Method(), Err: err}
	}
	defer resp.Body.Close()

	var out struct {
		Status string `json:"status"`
		Data   struct {
			Status   string `json:"status"`
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &VerificationError{Provider: m.Method(), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &VerificationError{Provider: m.Method(), Err: fmt.Errorf("mchanga: received status code %d", resp.StatusCode)}
	}

	amount, err := decimal.NewFromString(out.Data.Amount)
	if err != nil {
		amount = decimal.Zero
	}

	return &ChargeResult{
		Succeeded:             out.Data.Status == "paid",
		Pending:               out.Data.Status == "pending",
		Amount:                amount,
		Currency:              out.Data.Currency,
		ProviderTransactionID: out.Data.Receipt,
	}, nil
}
