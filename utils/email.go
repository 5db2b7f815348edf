package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"github.com/Evansgit254/NRDC-sub001/models"
)

// Mailer sends donation emails over SMTP. Sending is best-effort: failures
// are logged and never propagated, so a mail outage cannot fail a payment
// reconciliation.
type Mailer struct {
	host       string
	port       int
	user       string
	pass       string
	sender     string
	adminEmail string
}

func NewMailerFromEnv() *Mailer {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || port == 0 {
		port = 465
	}
	return &Mailer{
		host:       os.Getenv("SMTP_HOST"),
		port:       port,
		user:       os.Getenv("SMTP_USER"),
		pass:       os.Getenv("SMTP_PASS"),
		sender:     os.Getenv("SMTP_SENDER"),
		adminEmail: os.Getenv("ADMIN_ALERT_EMAIL"),
	}
}

// SendDonationReceipt emails the donor a receipt for a completed donation.
func (m *Mailer) SendDonationReceipt(email, name string, amount decimal.Decimal, currency, transactionID, method string, when time.Time) {
	if name == "" {
		name = "Friend"
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nThank you for your donation of %s %s received on %s via %s.\nTransaction reference: %s\n\nYour support makes our work possible.\n\nWith gratitude,\nThe NRDC Team",
		name, currency, amount.StringFixed(2), when.Format("2 January 2006"), method, transactionID,
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Thank you for your donation")
	msg.SetBody("text/plain", body)

	if err := m.dialAndSend(msg); err != nil {
		log.Printf("Failed to send donation receipt to %s: %v", email, err)
		return
	}
	log.Printf("Donation receipt sent to %s", email)
}

// SendDonationAlert notifies the admin mailbox of a completed donation.
func (m *Mailer) SendDonationAlert(d *models.Donation) {
	if m.adminEmail == "" {
		return
	}

	body := fmt.Sprintf(
		"A donation was completed.\n\nReference: %s\nAmount: %s %s\nMethod: %s\nDonor: %s <%s>\n",
		d.Reference, d.Currency, d.Amount.StringFixed(2), d.PaymentMethod, d.DonorName, d.DonorEmail,
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", m.adminEmail)
	msg.SetHeader("Subject", fmt.Sprintf("New donation: %s %s (%s)", d.Currency, d.Amount.StringFixed(2), d.Reference))
	msg.SetBody("text/plain", body)

	if err := m.dialAndSend(msg); err != nil {
		log.Printf("Failed to send donation alert for %s: %v", d.Reference, err)
	}
}

func (m *Mailer) dialAndSend(msg *gomail.Message) error {
	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	return d.DialAndSend(msg)
}
