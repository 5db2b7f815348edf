package subscriptions

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Evansgit254/NRDC-sub001/models"
	"github.com/Evansgit254/NRDC-sub001/payments"
)

// Handler issues control commands against the recurring billing provider and
// keeps the local subscription mirror in step. The provider call happens
// first; the mirror is only updated once the provider accepts the command.
type Handler struct {
	DB      *gorm.DB
	Billing payments.SubscriptionController
}

func NewHandler(db *gorm.DB, billing payments.SubscriptionController) *Handler {
	return &Handler{DB: db, Billing: billing}
}

func RegisterSubscriptionRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/subscriptions", h.ListSubscriptions)
	r.POST("/subscriptions/:id/cancel", h.CancelSubscription)
	r.POST("/subscriptions/:id/pause", h.PauseSubscription)
	r.POST("/subscriptions/:id/resume", h.ResumeSubscription)
}

func (h *Handler) ListSubscriptions(c *gin.Context) {
	query := h.DB.Model(&models.Subscription{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var subs []models.Subscription
	if err := query.Order("created_at DESC").Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

func (h *Handler) CancelSubscription(c *gin.Context) {
	h.control(c, models.SubscriptionCancelled, h.Billing.CancelSubscription)
}

func (h *Handler) PauseSubscription(c *gin.Context) {
	h.control(c, models.SubscriptionPaused, h.Billing.PauseSubscription)
}

func (h *Handler) ResumeSubscription(c *gin.Context) {
	h.control(c, models.SubscriptionActive, h.Billing.ResumeSubscription)
}

func (h *Handler) control(c *gin.Context, targetStatus string, command func(ctx context.Context, code string) error) {
	var sub models.Subscription
	if err := h.DB.First(&sub, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscription"})
		return
	}

	if sub.Status == models.SubscriptionCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Subscription is already cancelled"})
		return
	}
	if sub.Status == targetStatus {
		c.JSON(http.StatusOK, gin.H{"subscription": sub})
		return
	}

	if err := command(c.Request.Context(), sub.SubscriptionCode); err != nil {
		log.Printf("Billing command failed for subscription %s: %v", sub.SubscriptionCode, err)
		if errors.Is(err, payments.ErrProviderUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Billing provider is currently unavailable"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Billing provider rejected the request"})
		return
	}

	if err := h.DB.Model(&sub).Update("status", targetStatus).Error; err != nil {
		log.Printf("Failed to update subscription %s after billing command: %v", sub.SubscriptionCode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subscription"})
		return
	}
	sub.Status = targetStatus

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}
