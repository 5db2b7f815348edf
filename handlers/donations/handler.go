package donations

import (
	"encoding/json"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Evansgit254/NRDC-sub001/models"
	"github.com/Evansgit254/NRDC-sub001/payments"
)

// Mailer is the slice of the mail sender the donation flow needs. Sending is
// best-effort; implementations log failures rather than returning them.
type Mailer interface {
	SendDonationReceipt(email, name string, amount decimal.Decimal, currency, transactionID, method string, when time.Time)
	SendDonationAlert(d *models.Donation)
}

// Handler serves the donation checkout, verification and webhook endpoints.
// All dependencies are injected so tests can substitute fakes.
type Handler struct {
	DB        *gorm.DB
	Providers *payments.Registry
	Mailer    Mailer
	BaseURL   string
}

func NewHandler(db *gorm.DB, providers *payments.Registry, mailer Mailer, baseURL string) *Handler {
	return &Handler{DB: db, Providers: providers, Mailer: mailer, BaseURL: baseURL}
}

// completeDonation applies the pending→completed transition. The update is
// guarded by the current status, so out of any number of concurrent attempts for
// the same donation exactly one wins; emails fire only for the winner.
func (h *Handler) completeDonation(d *models.Donation, transactionID string, extra map[string]interface{}) bool {
	updates := map[string]interface{}{
		"payment_status": models.PaymentStatusCompleted,
		"metadata":       mergeMetadata(d.Metadata, extra),
	}

	res := h.DB.Model(&models.Donation{}).
		Where("id = ? AND payment_status = ?", d.ID, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		log.Printf("Failed to complete donation %s: %v", d.Reference, res.Error)
		return false
	}
	if res.RowsAffected == 0 {
		// Already settled; duplicate confirmation, nothing to do.
		return false
	}

	d.PaymentStatus = models.PaymentStatusCompleted
	if h.Mailer != nil {
		h.Mailer.SendDonationReceipt(d.DonorEmail, d.DonorName, d.Amount, d.Currency, transactionID, d.PaymentMethod, time.Now())
		h.Mailer.SendDonationAlert(d)
	}
	return true
}

// failDonation applies pending→failed under the same guard. No emails.
func (h *Handler) failDonation(d *models.Donation, extra map[string]interface{}) bool {
	res := h.DB.Model(&models.Donation{}).
		Where("id = ? AND payment_status = ?", d.ID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusFailed,
			"metadata":       mergeMetadata(d.Metadata, extra),
		})
	if res.Error != nil {
		log.Printf("Failed to mark donation %s as failed: %v", d.Reference, res.Error)
		return false
	}
	if res.RowsAffected == 0 {
		return false
	}
	d.PaymentStatus = models.PaymentStatusFailed
	return true
}

// findByCorrelation looks a donation up by the (method, correlation id) pair.
// Providers that echo our reference match on either column.
func (h *Handler) findByCorrelation(method, providerRef, reference string) (*models.Donation, error) {
	if reference == "" {
		reference = providerRef
	}
	var donation models.Donation
	err := h.DB.
		Where("payment_method = ? AND (provider_ref = ? OR reference = ?)", method, providerRef, reference).
		First(&donation).Error
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

func mergeMetadata(existing string, extra map[string]interface{}) string {
	meta := map[string]interface{}{}
	if existing != "" {
		if err := json.Unmarshal([]byte(existing), &meta); err != nil {
			meta = map[string]interface{}{"previous_metadata": existing}
		}
	}
	for k, v := range extra {
		meta[k] = v
	}
	merged, err := json.Marshal(meta)
	if err != nil {
		return existing
	}
	return string(merged)
}
