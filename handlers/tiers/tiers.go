package tiers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Evansgit254/NRDC-sub001/models"
	"github.com/Evansgit254/NRDC-sub001/utils"
)

// ListTiers returns the active giving levels shown on the donate page.
func ListTiers(c *gin.Context) {
	var tiers []models.DonationTier
	if err := utils.DB.Where("active = ?", true).Order("amount").Find(&tiers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch donation tiers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}

func CreateTier(c *gin.Context) {
	var tier models.DonationTier
	if err := c.ShouldBindJSON(&tier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if err := utils.DB.Create(&tier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create donation tier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tier": tier})
}

func UpdateTier(c *gin.Context) {
	var tier models.DonationTier
	if err := utils.DB.First(&tier, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donation tier not found"})
		return
	}

	var input models.DonationTier
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	tier.Name = input.Name
	tier.Description = input.Description
	tier.Amount = input.Amount
	tier.Currency = input.Currency
	tier.Active = input.Active
	if err := utils.DB.Save(&tier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update donation tier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tier": tier})
}

func DeleteTier(c *gin.Context) {
	if err := utils.DB.Delete(&models.DonationTier{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete donation tier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Donation tier deleted"})
}

func RegisterAdminTierRoutes(r *gin.RouterGroup) {
	r.POST("/tiers", CreateTier)
	r.PUT("/tiers/:id", UpdateTier)
	r.DELETE("/tiers/:id", DeleteTier)
}
