package donations

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Evansgit254/NRDC-sub001/models"
)

const pageSize = 50

// ListDonations returns donations for the admin dashboard, newest first,
// optionally filtered by status and method.
func (h *Handler) ListDonations(c *gin.Context) {
	query := h.DB.Model(&models.Donation{})
	if status := c.Query("status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if method := c.Query("method"); method != "" {
		query = query.Where("payment_method = ?", method)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	var total int64
	query.Count(&total)

	var donations []models.Donation
	if err := query.Order("created_at DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&donations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch donations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"donations": donations,
		"total":     total,
		"page":      page,
	})
}

func (h *Handler) GetDonation(c *gin.Context) {
	var donation models.Donation
	if err := h.DB.First(&donation, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"donation": donation})
}

// PatchDonation is the manual override: an administrator settles a bank
// transfer, resets a failed donation for retry, or records a refund. The
// state machine is enforced; completed never goes back to pending.
func (h *Handler) PatchDonation(c *gin.Context) {
	var req struct {
		PaymentStatus string `json:"payment_status"`
		Note          string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	var donation models.Donation
	if err := h.DB.First(&donation, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
		return
	}

	if !models.ValidStatusChange(donation.PaymentStatus, req.PaymentStatus) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cannot change status from " + donation.PaymentStatus + " to " + req.PaymentStatus,
		})
		return
	}

	extra := map[string]interface{}{"admin_override": true}
	if req.Note != "" {
		extra["admin_note"] = req.Note
	}

	if req.PaymentStatus == models.PaymentStatusCompleted {
		// Manual settlement goes through the same guarded transition as the
		// automated paths, so the receipt is sent exactly once.
		h.completeDonation(&donation, "manual:"+donation.Reference, extra)
	} else {
		res := h.DB.Model(&models.Donation{}).
			Where("id = ? AND payment_status = ?", donation.ID, donation.PaymentStatus).
			Updates(map[string]interface{}{
				"payment_status": req.PaymentStatus,
				"metadata":       mergeMetadata(donation.Metadata, extra),
			})
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update donation"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Donation was updated concurrently. Please retry."})
			return
		}
	}

	if err := h.DB.First(&donation, donation.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload donation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"donation": donation})
}
