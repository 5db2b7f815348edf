package donations

import "github.com/gin-gonic/gin"

func RegisterDonationRoutes(r *gin.Engine, h *Handler) {
	r.POST("/checkout/:provider", h.Checkout)
	r.GET("/verify/:provider", h.Verify)
	r.POST("/webhook/:provider", h.Webhook)
}

func RegisterAdminDonationRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/donations", h.ListDonations)
	r.GET("/donations/:id", h.GetDonation)
	r.PATCH("/donations/:id", h.PatchDonation)
}
