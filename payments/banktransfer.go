package payments

import (
	"context"
	"fmt"
)

// BankTransfer is the manual/offline rail. There is no provider API: the
// donor pays into the configured account quoting the generated reference, and
// an administrator settles the donation after reviewing proof of payment. It
// deliberately implements only Charger; there is nothing to verify or to
// receive webhooks from.
type BankTransfer struct {
	bankName      string
	accountName   string
	accountNumber string
	branch        string
	swiftCode     string
}

type BankTransferConfig struct {
	BankName      string
	AccountName   string
	AccountNumber string
	Branch        string
	SwiftCode     string
}

func NewBankTransfer(cfg BankTransferConfig) *BankTransfer {
	return &BankTransfer{
		bankName:      cfg.BankName,
		accountName:   cfg.AccountName,
		accountNumber: cfg.AccountNumber,
		branch:        cfg.Branch,
		swiftCode:     cfg.SwiftCode,
	}
}

func (b *BankTransfer) Method() string { return "bank_transfer" }

func (b *BankTransfer) StartCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error) {
	instructions := fmt.Sprintf(
		"Transfer %s %s to %s, account %s (%s), branch %s, SWIFT %s. Quote reference %s. Your donation will be confirmed once the transfer is reviewed.",
		req.Currency, req.Amount.StringFixed(2),
		b.accountName, b.accountNumber, b.bankName, b.branch, b.swiftCode,
		req.Reference,
	)

	return &ChargeSession{
		ProviderRef:  req.Reference,
		Instructions: instructions,
	}, nil
}
