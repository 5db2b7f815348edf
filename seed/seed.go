package seed

import (
	"errors"
	"log"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Evansgit254/NRDC-sub001/models"
	"github.com/Evansgit254/NRDC-sub001/utils"
)

func SeedDonationTiers() error {
	var count int64
	if err := utils.DB.Model(&models.DonationTier{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Donation tiers already exist. Skipping seeding.")
		return nil
	}

	tiers := []models.DonationTier{
		{Name: "Friend", Description: "Covers school supplies for one child for a month.", Amount: decimal.NewFromInt(500), Currency: "KES", Active: true},
		{Name: "Supporter", Description: "Feeds a family of four for a week.", Amount: decimal.NewFromInt(2500), Currency: "KES", Active: true},
		{Name: "Champion", Description: "Sponsors a community health outreach day.", Amount: decimal.NewFromInt(10000), Currency: "KES", Active: true},
	}

	if err := utils.DB.Create(&tiers).Error; err != nil {
		return err
	}
	log.Println("Seeded default donation tiers.")
	return nil
}

// SeedAdminUser creates the initial admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Skipped when the variables are unset or the account exists.
func SeedAdminUser() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL or ADMIN_PASSWORD not set. Skipping admin seeding.")
		return nil
	}

	var existing models.User
	err := utils.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hash),
	}
	if err := utils.DB.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Seeded admin user %s.", email)
	return nil
}
