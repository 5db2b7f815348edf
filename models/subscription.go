package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
)

// Subscription mirrors a recurring donation managed by the billing provider.
// The provider is the source of truth for its lifecycle; this row reflects the
// last state we were told about.
type Subscription struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	DonorEmail       string          `gorm:"type:varchar(191);not null" json:"donor_email"`
	DonorName        string          `gorm:"type:varchar(191)" json:"donor_name"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency         string          `gorm:"type:varchar(3);not null" json:"currency"`
	Frequency        string          `gorm:"type:varchar(10);not null" json:"frequency"`
	Status           string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	PlanCode         string          `gorm:"type:varchar(191)" json:"plan_code"`
	SubscriptionCode string          `gorm:"type:varchar(191);uniqueIndex" json:"subscription_code"`
	CustomerCode     string          `gorm:"type:varchar(191)" json:"customer_code"`
	NextChargeDate   *time.Time      `json:"next_charge_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
