package utils

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/givecircle/givecircle-backend/config"
	"github.com/givecircle/givecircle-backend/internal/payout"
)

// EmailAlerter mails the finance team when a period's reconciliation
// finds mismatches. Implements payout.Alerter.
type EmailAlerter struct {
	cfg *config.Config
}

func NewEmailAlerter(cfg *config.Config) *EmailAlerter {
	return &EmailAlerter{cfg: cfg}
}

func (a *EmailAlerter) SendReconciliationAlert(periodMonth string, records []payout.PayoutRecord) {
	if len(records) == 0 {
		return
	}
	if a.cfg.AlertEmail == "" {
		log.Println("⚠️ No reconciliation alert email configured, skipping alert")
		return
	}

	subject := fmt.Sprintf("Reconciliation review needed for %s (%d beneficiaries)", periodMonth, len(records))

	var body strings.Builder
	fmt.Fprintf(&body, "The payout run for %s found %d beneficiaries whose settlement figures do not match the donation ledger:\n\n", periodMonth, len(records))
	for _, r := range records {
		fmt.Fprintf(&body, "- %s (ID %d): donations %s, settlement %s, difference %s\n",
			r.BeneficiaryName,
			r.BeneficiaryID,
			payout.RoundCurrency(r.Summary.TotalDonations()).StringFixed(2),
			payout.RoundCurrency(*r.Reconciliation.SettlementAmount).StringFixed(2),
			payout.RoundCurrency(r.Reconciliation.Difference).StringFixed(2),
		)
	}
	body.WriteString("\nPlease review these before approving payouts for the period.\n")

	if err := a.sendEmail(a.cfg.AlertEmail, subject, body.String()); err != nil {
		log.Printf("❌ Failed to send reconciliation alert for %s: %v", periodMonth, err)
	}
}

func (a *EmailAlerter) sendEmail(to, subject, body string) error {
	cfg := a.cfg
	if cfg.SMTPHost == "" || cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
		log.Println("⚠️ SMTP not configured. Email not sent.")
		return nil
	}

	fromEmail := cfg.SMTPFromEmail
	if fromEmail == "" {
		fromEmail = cfg.SMTPUsername
	}

	addr := fmt.Sprintf("%s:%s", cfg.SMTPHost, cfg.SMTPPort)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         cfg.SMTPHost,
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if err := client.Mail(fromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	from := fromEmail
	if cfg.SMTPFromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.SMTPFromName, fromEmail)
	}

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n%s", from, to, subject, body))

	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		log.Printf("⚠️ QUIT command error (non-critical): %v", err)
	}
	return nil
}
