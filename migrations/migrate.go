package migrations

import (
	"github.com/Evansgit254/NRDC-sub001/models"
	"github.com/Evansgit254/NRDC-sub001/utils"
)

func Migrate() {
	utils.DB.AutoMigrate(
		&models.User{},
		&models.Donation{},
		&models.Subscription{},
		&models.WebhookEvent{},
		&models.DonationTier{},
	)
}
