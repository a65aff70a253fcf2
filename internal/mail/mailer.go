// Package mail sends transactional email over SMTP. The mailer is
// optional: when no SMTP host is configured, New returns nil and callers
// skip sending.
package mail

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// Mailer wraps an SMTP dialer and the From address.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New builds a Mailer from SMTP settings. Returns nil when host is empty,
// which disables mail entirely.
func New(host string, port int, username, password, from string) *Mailer {
	if host == "" {
		return nil
	}
	return &Mailer{dialer: gomail.NewDialer(host, port, username, password), from: from}
}

// OrderLine is one purchased item rendered into the confirmation mail.
type OrderLine struct {
	Name       string
	Quantity   int64
	PriceCents int64
}

// SendOrderConfirmation sends the purchase confirmation for a committed
// order. Failures are returned to the caller for logging; the mailer
// itself never retries.
func (m *Mailer) SendOrderConfirmation(to, name string, purchaseID uint64, totalCents int64, lines []OrderLine) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order #%d at Café-VT.\n\n", name, purchaseID)
	for _, l := range lines {
		fmt.Fprintf(&b, "  %d x %s  %s\n", l.Quantity, l.Name, formatCents(l.PriceCents*l.Quantity))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n\nSee you at the counter!\n", formatCents(totalCents))

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Café-VT order #%d confirmed", purchaseID))
	msg.SetBody("text/plain", b.String())
	return m.dialer.DialAndSend(msg)
}

func formatCents(c int64) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}
