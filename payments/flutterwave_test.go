package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFlutterwaveStartCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/payments" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["tx_ref"] != "NRDC-1-ABCDEF" {
			t.Errorf("tx_ref = %v", body["tx_ref"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"link": "https://checkout.flutterwave.com/v3/hosted/pay/xyz",
			},
		})
	}))
	defer srv.Close()

	f := NewFlutterwave(FlutterwaveConfig{SecretKey: "FLWSECK_TEST", BaseURL: srv.URL})
	session, err := f.StartCharge(context.Background(), ChargeRequest{
		Reference:  "NRDC-1-ABCDEF",
		Amount:     decimal.NewFromInt(50),
		Currency:   "KES",
		DonorEmail: "a@b.com",
	})
	if err != nil {
		t.Fatalf("StartCharge: %v", err)
	}
	if session.PaymentLink != "https://checkout.flutterwave.com/v3/hosted/pay/xyz" {
		t.Errorf("payment link = %q", session.PaymentLink)
	}
	// Flutterwave correlates on our tx_ref.
	if session.ProviderRef != "NRDC-1-ABCDEF" {
		t.Errorf("provider ref = %q", session.ProviderRef)
	}
}

func TestFlutterwaveStartChargeNoCredentials(t *testing.T) {
	f := NewFlutterwave(FlutterwaveConfig{})
	_, err := f.StartCharge(context.Background(), ChargeRequest{
		Reference:  "NRDC-1-ABCDEF",
		Amount:     decimal.NewFromInt(50),
		DonorEmail: "a@b.com",
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestFlutterwaveVerifyCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tx_ref"); got != "NRDC-1-ABCDEF" {
			t.Errorf("tx_ref = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"id":       285959875,
				"status":   "successful",
				"amount":   50,
				"currency": "KES",
			},
		})
	}))
	defer srv.Close()

	f := NewFlutterwave(FlutterwaveConfig{SecretKey: "FLWSECK_TEST", BaseURL: srv.URL})
	result, err := f.VerifyCharge(context.Background(), "NRDC-1-ABCDEF")
	if err != nil {
		t.Fatalf("VerifyCharge: %v", err)
	}
	if !result.Succeeded {
		t.Error("expected Succeeded")
	}
	if result.ProviderTransactionID != "285959875" {
		t.Errorf("transaction id = %q", result.ProviderTransactionID)
	}
}

func TestFlutterwaveWebhookSignature(t *testing.T) {
	f := NewFlutterwave(FlutterwaveConfig{SecretKey: "FLWSECK_TEST", WebhookHash: "my-secret-hash"})
	body := []byte(`{"event":"charge.completed"}`)

	if !f.VerifyWebhookSignature(body, "my-secret-hash") {
		t.Error("valid hash rejected")
	}
	if f.VerifyWebhookSignature(body, "wrong-hash") {
		t.Error("wrong hash accepted")
	}
	if f.VerifyWebhookSignature(body, "") {
		t.Error("empty hash accepted")
	}

	unconfigured := NewFlutterwave(FlutterwaveConfig{SecretKey: "FLWSECK_TEST"})
	if unconfigured.VerifyWebhookSignature(body, "") {
		t.Error("unconfigured adapter accepted a webhook")
	}
}

func TestFlutterwaveParseWebhook(t *testing.T) {
	f := NewFlutterwave(FlutterwaveConfig{SecretKey: "FLWSECK_TEST", WebhookHash: "my-secret-hash"})
	body := []byte(`{"event":"charge.completed","data":{"id":285959875,"tx_ref":"NRDC-1-ABCDEF","status":"successful","amount":50,"currency":"KES"}}`)

	event, err := f.ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if !event.ChargeSuccess {
		t.Error("expected ChargeSuccess")
	}
	if event.ChargeFailed {
		t.Error("unexpected ChargeFailed")
	}
	if event.ProviderRef != "NRDC-1-ABCDEF" {
		t.Errorf("provider ref = %q", event.ProviderRef)
	}

	failed := []byte(`{"event":"charge.completed","data":{"id":1,"tx_ref":"NRDC-2-ABCDEF","status":"failed","amount":50,"currency":"KES"}}`)
	event, err = f.ParseWebhook(failed)
	if err != nil {
		t.Fatalf("ParseWebhook failed charge: %v", err)
	}
	if event.ChargeSuccess || !event.ChargeFailed {
		t.Errorf("failed charge parsed as success=%v failed=%v", event.ChargeSuccess, event.ChargeFailed)
	}
}
