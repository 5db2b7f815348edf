package donations

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Evansgit254/NRDC-sub001/models"
	"github.com/Evansgit254/NRDC-sub001/payments"
)

const defaultCurrency = "KES"

type checkoutRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	DonorEmail string          `json:"donor_email"`
	DonorName  string          `json:"donor_name"`
	DonorPhone string          `json:"donor_phone"`
	TierID     *uint           `json:"tier_id"`
	Frequency  string          `json:"frequency"`
}

// Checkout creates a pending donation and initiates a charge with the chosen
// provider. The donation row is persisted before the provider call; if the
// provider fails, the row is marked failed with the error captured, so a
// half-finished checkout is always visible rather than silently lost.
func (h *Handler) Checkout(c *gin.Context) {
	method := c.Param("provider")
	charger, ok := h.Providers.Charger(method)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown payment provider"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be greater than zero"})
		return
	}
	if req.DonorEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Donor email is required"})
		return
	}
	if req.Frequency != "" {
		if req.Frequency != models.FrequencyMonthly && req.Frequency != models.FrequencyYearly {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Frequency must be monthly or yearly"})
			return
		}
		if method != models.MethodStripe {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Recurring donations are only available by card via stripe"})
			return
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	reference := payments.NewReference()
	donation := models.Donation{
		Reference:     reference,
		Amount:        req.Amount,
		Currency:      currency,
		DonorEmail:    req.DonorEmail,
		DonorName:     req.DonorName,
		DonorPhone:    req.DonorPhone,
		PaymentMethod: method,
		PaymentStatus: models.PaymentStatusPending,
		TierID:        req.TierID,
	}
	if err := h.DB.Create(&donation).Error; err != nil {
		log.Printf("Failed to create donation record: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create donation"})
		return
	}

	session, err := charger.StartCharge(c.Request.Context(), payments.ChargeRequest{
		Reference:   reference,
		Amount:      req.Amount,
		Currency:    currency,
		DonorEmail:  req.DonorEmail,
		DonorName:   req.DonorName,
		DonorPhone:  req.DonorPhone,
		CallbackURL: fmt.Sprintf("%s/verify/%s?reference=%s", h.BaseURL, method, reference),
		WebhookURL:  fmt.Sprintf("%s/webhook/%s", h.BaseURL, method),
		Metadata: map[string]string{
			"donation_id": strconv.FormatUint(uint64(donation.ID), 10),
			"reference":   reference,
			"frequency":   req.Frequency,
		},
	})
	if err != nil {
		log.Printf("Payment initiation failed for %s (%s): %v", reference, method, err)
		h.failDonation(&donation, map[string]interface{}{"initiation_error": err.Error()})

		if errors.Is(err, payments.ErrProviderUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "This payment method is currently unavailable"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to initiate payment. Please try again."})
		return
	}

	updates := map[string]interface{}{"provider_ref": session.ProviderRef}
	if session.PaymentLink != "" {
		updates["payment_link"] = session.PaymentLink
	}
	if err := h.DB.Model(&donation).Updates(updates).Error; err != nil {
		log.Printf("Failed to store provider reference for %s: %v", reference, err)
	}

	resp := gin.H{
		"donation_id":  donation.ID,
		"reference":    reference,
		"payment_link": session.PaymentLink,
	}
	if session.Instructions != "" {
		resp["instructions"] = session.Instructions
	}
	c.JSON(http.StatusOK, resp)
}

// Verify is the pull side of reconciliation: the client (usually returning
// from a hosted checkout redirect) asks us to check a reference against the
// provider. The same transition rule as the webhook applies.
func (h *Handler) Verify(c *gin.Context) {
	method := c.Param("provider")
	reference := c.Query("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reference is required"})
		return
	}

	donation, err := h.findByCorrelation(method, reference, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "failed", "error": "Donation not found"})
			return
		}
		log.Printf("Failed to look up donation %s: %v", reference, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up donation"})
		return
	}

	// Already settled donations are answered from our own record.
	switch donation.PaymentStatus {
	case models.PaymentStatusCompleted:
		c.JSON(http.StatusOK, gin.H{"status": "successful", "amount": donation.Amount, "currency": donation.Currency})
		return
	case models.PaymentStatusFailed, models.PaymentStatusRefunded:
		c.JSON(http.StatusOK, gin.H{"status": "failed"})
		return
	}

	verifier, ok := h.Providers.Verifier(method)
	if !ok {
		// Manual rails have no provider to ask; the donation stays pending
		// until an administrator settles it.
		c.JSON(http.StatusOK, gin.H{"status": "pending"})
		return
	}

	providerRef := donation.ProviderRef
	if providerRef == "" {
		providerRef = donation.Reference
	}
	result, err := verifier.VerifyCharge(c.Request.Context(), providerRef)
	if err != nil {
		log.Printf("Verification failed for %s (%s): %v", donation.Reference, method, err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "failed", "error": "Verification failed. Please try again."})
		return
	}

	switch {
	case result.Succeeded:
		h.completeDonation(donation, result.ProviderTransactionID, map[string]interface{}{
			"provider_transaction_id": result.ProviderTransactionID,
			"verified_amount":         result.Amount.String(),
		})
		c.JSON(http.StatusOK, gin.H{"status": "successful", "amount": donation.Amount, "currency": donation.Currency})
	case result.Pending:
		c.JSON(http.StatusOK, gin.H{"status": "pending"})
	default:
		h.failDonation(donation, map[string]interface{}{"provider_transaction_id": result.ProviderTransactionID})
		c.JSON(http.StatusOK, gin.H{"status": "failed"})
	}
}
