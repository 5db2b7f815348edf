package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses a donation can hold. A donation is created as Pending and
// moves to exactly one terminal status through reconciliation or an admin
// override.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment method tags, one per provider adapter.
const (
	MethodPaystack     = "paystack"
	MethodFlutterwave  = "flutterwave"
	MethodMchanga      = "mchanga"
	MethodStripe       = "stripe"
	MethodBankTransfer = "bank_transfer"
)

type Donation struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Reference     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	DonorEmail    string          `gorm:"type:varchar(191);not null" json:"donor_email"`
	DonorName     string          `gorm:"type:varchar(191)" json:"donor_name"`
	DonorPhone    string          `gorm:"type:varchar(32)" json:"donor_phone"`
	PaymentMethod string          `gorm:"type:varchar(20);not null;index:idx_donations_method_ref,priority:1" json:"payment_method"`
	// ProviderRef is the provider's correlation id. It is only ever looked up
	// together with PaymentMethod, so identifiers from different providers
	// cannot collide.
	ProviderRef   string    `gorm:"type:varchar(191);index:idx_donations_method_ref,priority:2" json:"provider_ref"`
	PaymentLink   string    `gorm:"type:text" json:"payment_link,omitempty"`
	Metadata      string    `gorm:"type:text" json:"metadata,omitempty"`
	PaymentStatus string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	TierID        *uint     `json:"tier_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidStatusChange reports whether an admin override from one payment status
// to another is allowed: pending may settle either way, a failed donation may
// be reset for retry, and anything may be refunded. A completed donation never
// goes back to pending.
func ValidStatusChange(from, to string) bool {
	switch {
	case from == PaymentStatusPending && (to == PaymentStatusCompleted || to == PaymentStatusFailed):
		return true
	case from == PaymentStatusFailed && to == PaymentStatusPending:
		return true
	case to == PaymentStatusRefunded:
		return true
	}
	return false
}
