package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaystackStartCharge(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code":       "abc123",
				"reference":         "NRDC-1700000000-AB12CD",
			},
		})
	}))
	defer srv.Close()

	p := NewPaystack(PaystackConfig{SecretKey: "sk_test_xyz", BaseURL: srv.URL})
	session, err := p.StartCharge(context.Background(), ChargeRequest{
		Reference:  "NRDC-1700000000-AB12CD",
		Amount:     decimal.NewFromInt(50),
		Currency:   "KES",
		DonorEmail: "a@b.com",
	})
	if err != nil {
		t.Fatalf("StartCharge: %v", err)
	}

	if gotPath != "/transaction/initialize" {
		t.Errorf("path = %q, want /transaction/initialize", gotPath)
	}
	if gotAuth != "Bearer sk_test_xyz" {
		t.Errorf("auth header = %q", gotAuth)
	}
	// Amount must be converted to subunits.
	if amt, _ := gotBody["amount"].(float64); amt != 5000 {
		t.Errorf("amount sent = %v, want 5000", gotBody["amount"])
	}
	if session.PaymentLink != "https://checkout.paystack.com/abc123" {
		t.Errorf("payment link = %q", session.PaymentLink)
	}
	if session.ProviderRef != "NRDC-1700000000-AB12CD" {
		t.Errorf("provider ref = %q", session.ProviderRef)
	}
}

func TestPaystackStartChargeNoCredentials(t *testing.T) {
	p := NewPaystack(PaystackConfig{})
	_, err := p.StartCharge(context.Background(), ChargeRequest{
		Reference:  "NRDC-1-ABCDEF",
		Amount:     decimal.NewFromInt(50),
		DonorEmail: "a@b.com",
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestPaystackStartChargeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid currency",
		})
	}))
	defer srv.Close()

	p := NewPaystack(PaystackConfig{SecretKey: "sk_test_xyz", BaseURL: srv.URL})
	_, err := p.StartCharge(context.Background(), ChargeRequest{
		Reference:  "NRDC-1-ABCDEF",
		Amount:     decimal.NewFromInt(50),
		Currency:   "XXX",
		DonorEmail: "a@b.com",
	})

	var initErr *InitiationError
	if !errors.As(err, &initErr) {
		t.Fatalf("err = %v, want InitiationError", err)
	}
	if initErr.Provider != "paystack" {
		t.Errorf("provider = %q", initErr.Provider)
	}
}

func TestPaystackVerifyCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/NRDC-1-ABCDEF" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"id":       4099260516,
				"status":   "success",
				"amount":   5000,
				"currency": "KES",
			},
		})
	}))
	defer srv.Close()

	p := NewPaystack(PaystackConfig{SecretKey: "sk_test_xyz", BaseURL: srv.URL})
	result, err := p.VerifyCharge(context.Background(), "NRDC-1-ABCDEF")
	if err != nil {
		t.Fatalf("VerifyCharge: %v", err)
	}

	if !result.Succeeded {
		t.Error("expected Succeeded")
	}
	if !result.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("amount = %s, want 50", result.Amount)
	}
	if result.ProviderTransactionID != "4099260516" {
		t.Errorf("transaction id = %q", result.ProviderTransactionID)
	}
}

func TestPaystackWebhookSignature(t *testing.T) {
	p := NewPaystack(PaystackConfig{SecretKey: "sk_test_xyz"})
	body := []byte(`{"event":"charge.success","data":{"reference":"NRDC-1-ABCDEF"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_xyz"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !p.VerifyWebhookSignature(body, signature) {
		t.Error("valid signature rejected")
	}
	if p.VerifyWebhookSignature([]byte(`{"event":"charge.success","data":{"reference":"TAMPERED"}}`), signature) {
		t.Error("tampered body accepted")
	}
	if p.VerifyWebhookSignature(body, "deadbeef") {
		t.Error("wrong signature accepted")
	}
	if p.VerifyWebhookSignature(body, "") {
		t.Error("empty signature accepted")
	}
}

func TestPaystackParseWebhook(t *testing.T) {
	p := NewPaystack(PaystackConfig{SecretKey: "sk_test_xyz"})
	body := []byte(`{"event":"charge.success","data":{"id":302961,"reference":"NRDC-1-ABCDEF","status":"success","amount":5000,"currency":"KES"}}`)

	event, err := p.ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if !event.ChargeSuccess {
		t.Error("expected ChargeSuccess")
	}
	if event.ProviderRef != "NRDC-1-ABCDEF" {
		t.Errorf("provider ref = %q", event.ProviderRef)
	}
	if !event.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("amount = %s, want 50", event.Amount)
	}

	if _, err := p.ParseWebhook([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
