// Package mailer sends transactional mail for the password reset flow.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ecogate-dev/ecogate/internal/config"
)

// Mailer sends plain-text mail over SMTP
type Mailer struct {
	cfg config.SMTPConfig
}

// New creates a mailer from SMTP configuration
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendOTP delivers a password reset code to the given address
func (m *Mailer) SendOTP(to, code string) error {
	subject := "Your Ecogate password reset code"
	body := fmt.Sprintf(
		"A password reset was requested for this address.\r\n\r\n"+
			"Your one-time code is: %s\r\n\r\n"+
			"The code expires in 10 minutes. If you did not request a reset, ignore this message.\r\n",
		code,
	)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := m.cfg.Host + ":" + m.cfg.Port

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
