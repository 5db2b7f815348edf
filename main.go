package main

import (
	"log"
	"os"
	"time"

	"github.com/Evansgit254/NRDC-sub001/handlers/auth"
	"github.com/Evansgit254/NRDC-sub001/handlers/donations"
	"github.com/Evansgit254/NRDC-sub001/handlers/subscriptions"
	"github.com/Evansgit254/NRDC-sub001/handlers/tiers"
	"github.com/Evansgit254/NRDC-sub001/migrations"
	"github.com/Evansgit254/NRDC-sub001/payments"
	"github.com/Evansgit254/NRDC-sub001/seed"
	"github.com/Evansgit254/NRDC-sub001/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file:", err)
	}
}

func main() {
	r := gin.Default()

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "https://www.nrdc.or.ke"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{allowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	utils.ConnectDatabase()
	migrations.Migrate()

	if err := seed.SeedDonationTiers(); err != nil {
		log.Fatalf("Failed to seed donation tiers: %v", err)
	}
	if err := seed.SeedAdminUser(); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Provider adapters are built once from the environment and injected;
	// a provider with missing credentials answers 503 instead of crashing
	// the process or handing out dead links.
	stripeAdapter := payments.NewStripe(payments.StripeConfig{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	})
	registry := payments.NewRegistry(
		payments.NewPaystack(payments.PaystackConfig{
			SecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		}),
		payments.NewFlutterwave(payments.FlutterwaveConfig{
			SecretKey:   os.Getenv("FLW_SECRET_KEY"),
			WebhookHash: os.Getenv("FLW_WEBHOOK_HASH"),
		}),
		payments.NewMchanga(payments.MchangaConfig{
			APIKey:     os.Getenv("MCHANGA_API_KEY"),
			Fundraiser: os.Getenv("MCHANGA_FUNDRAISER_ID"),
		}),
		stripeAdapter,
		payments.NewBankTransfer(payments.BankTransferConfig{
			BankName:      os.Getenv("BANK_NAME"),
			AccountName:   os.Getenv("BANK_ACCOUNT_NAME"),
			AccountNumber: os.Getenv("BANK_ACCOUNT_NUMBER"),
			Branch:        os.Getenv("BANK_BRANCH"),
			SwiftCode:     os.Getenv("BANK_SWIFT_CODE"),
		}),
	)

	mailer := utils.NewMailerFromEnv()
	donationHandler := donations.NewHandler(utils.DB, registry, mailer, baseURL)
	subscriptionHandler := subscriptions.NewHandler(utils.DB, stripeAdapter)

	donations.RegisterDonationRoutes(r, donationHandler)
	r.GET("/tiers", tiers.ListTiers)
	r.POST("/admin/login", auth.Login)

	admin := r.Group("/admin")
	admin.Use(auth.AuthMiddleware())
	{
		donations.RegisterAdminDonationRoutes(admin, donationHandler)
		subscriptions.RegisterSubscriptionRoutes(admin, subscriptionHandler)
		tiers.RegisterAdminTierRoutes(admin)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
