// Package mailer sends the password-setup invite emails queued by account
// provisioning.
package mailer

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer delivers account emails.
type Mailer interface {
	SendPasswordSetup(to string) error
}

// SMTP sends mail through a plain-auth SMTP relay.
type SMTP struct {
	Host     string
	Port     int
	From     string
	Password string
	SetupURL string
}

// NewSMTP creates an SMTP mailer.
func NewSMTP(host string, port int, from, password, setupURL string) *SMTP {
	return &SMTP{Host: host, Port: port, From: from, Password: password, SetupURL: setupURL}
}

// SendPasswordSetup emails the link where the new user picks their password.
func (m *SMTP) SendPasswordSetup(to string) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	msg := []byte("From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: Set up your AcadeX account\r\n" +
		"\r\n" +
		"An account has been created for you.\r\n\r\n" +
		"Set your password here: " + m.SetupURL + "?email=" + to + "\r\n")

	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// Noop logs instead of sending. Used in dev and tests, and whenever SMTP is
// not configured.
type Noop struct{}

// SendPasswordSetup logs the would-be invite.
func (Noop) SendPasswordSetup(to string) error {
	log.Printf("mailer: (noop) password-setup invite for %s", to)
	return nil
}
