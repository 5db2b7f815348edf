package donations

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Evansgit254/NRDC-sub001/models"
	"github.com/Evansgit254/NRDC-sub001/payments"
)

const maxWebhookBytes = int64(65536)

// Webhook is the push side of reconciliation. The signature is checked before
// the payload is parsed; a bad signature changes nothing. Events referencing
// an unknown donation are logged and acknowledged with 200 so the provider
// does not retry forever over a mismatch that is not our error to fix.
func (h *Handler) Webhook(c *gin.Context) {
	method := c.Param("provider")
	wh, ok := h.Providers.WebhookHandler(method)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown webhook provider"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader(wh.SignatureHeader())
	if !wh.VerifyWebhookSignature(payload, signature) {
		log.Printf("Webhook signature verification failed for %s", method)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	event, err := wh.ParseWebhook(payload)
	if err != nil {
		log.Printf("Malformed %s webhook: %v", method, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed payload"})
		return
	}

	// Store the event keyed by provider + event id. A re-delivered event hits
	// the unique index and is acknowledged without reprocessing.
	row := models.WebhookEvent{
		Provider:        method,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		Payload:         string(payload),
		SignatureValid:  true,
	}
	res := h.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		log.Printf("Failed to record %s webhook event %s: %v", method, event.ID, res.Error)
	} else if res.RowsAffected == 0 {
		log.Printf("Duplicate %s webhook event %s, skipping", method, event.ID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	switch {
	case event.ChargeSuccess:
		h.handleChargeSuccess(method, event)
	case event.ChargeFailed:
		h.handleChargeFailure(method, event)
	case event.SubscriptionCode != "" && event.SubscriptionStatus != "":
		h.syncSubscription(event)
	default:
		log.Printf("Ignoring %s webhook event %s (%s)", method, event.ID, event.Type)
	}

	now := time.Now()
	if err := h.DB.Model(&models.WebhookEvent{}).Where("id = ?", row.ID).Update("processed_at", &now).Error; err != nil {
		log.Printf("Failed to mark webhook event %s processed: %v", event.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) handleChargeSuccess(method string, event *payments.WebhookEvent) {
	donation, err := h.findByCorrelation(method, event.ProviderRef, event.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Webhook for unknown donation: provider=%s ref=%s event=%s", method, event.ProviderRef, event.ID)
			return
		}
		log.Printf("Failed to look up donation for %s webhook %s: %v", method, event.ID, err)
		return
	}

	extra := map[string]interface{}{
		"provider_transaction_id": event.ProviderTransactionID,
		"webhook_event":           event.Type,
		"reported_amount":         event.Amount.String(),
	}
	h.completeDonation(donation, event.ProviderTransactionID, extra)

	// A completed recurring checkout also opens a subscription mirror.
	if event.SubscriptionCode != "" && event.Frequency != "" {
		h.createSubscription(donation, event)
	}
}

func (h *Handler) handleChargeFailure(method string, event *payments.WebhookEvent) {
	donation, err := h.findByCorrelation(method, event.ProviderRef, event.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Failure webhook for unknown donation: provider=%s ref=%s", method, event.ProviderRef)
			return
		}
		log.Printf("Failed to look up donation for %s webhook %s: %v", method, event.ID, err)
		return
	}
	h.failDonation(donation, map[string]interface{}{"webhook_event": event.Type})
}

func (h *Handler) createSubscription(donation *models.Donation, event *payments.WebhookEvent) {
	sub := models.Subscription{
		DonorEmail:       donation.DonorEmail,
		DonorName:        donation.DonorName,
		Amount:           donation.Amount,
		Currency:         donation.Currency,
		Frequency:        event.Frequency,
		Status:           models.SubscriptionActive,
		SubscriptionCode: event.SubscriptionCode,
		CustomerCode:     event.CustomerCode,
		NextChargeDate:   event.NextChargeDate,
	}
	err := h.DB.Where(models.Subscription{SubscriptionCode: event.SubscriptionCode}).FirstOrCreate(&sub).Error
	if err != nil {
		log.Printf("Failed to record subscription %s: %v", event.SubscriptionCode, err)
	}
}

// syncSubscription mirrors a provider-reported subscription state change. The
// provider is authoritative; we only reflect what it tells us.
func (h *Handler) syncSubscription(event *payments.WebhookEvent) {
	updates := map[string]interface{}{}
	switch event.SubscriptionStatus {
	case "active":
		updates["status"] = models.SubscriptionActive
	case "paused":
		updates["status"] = models.SubscriptionPaused
	case "cancelled":
		updates["status"] = models.SubscriptionCancelled
	}
	if event.NextChargeDate != nil {
		updates["next_charge_date"] = event.NextChargeDate
	}
	if len(updates) == 0 {
		return
	}

	res := h.DB.Model(&models.Subscription{}).
		Where("subscription_code = ?", event.SubscriptionCode).
		Updates(updates)
	if res.Error != nil {
		log.Printf("Failed to sync subscription %s: %v", event.SubscriptionCode, res.Error)
	} else if res.RowsAffected == 0 {
		log.Printf("Subscription webhook for unknown subscription %s", event.SubscriptionCode)
	}
}
