// Package mailer sends one-time codes by email.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"foodorder/internal/models"

	log "github.com/sirupsen/logrus"
)

// Mailer sends OTP emails.
type Mailer interface {
	SendOTPEmail(ctx context.Context, to, otp string, purpose models.OTPPurpose) error
}

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewSMTPMailer creates a new SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// SendOTPEmail composes and sends the OTP mail. It returns ctx.Err() when the
// context ends before the relay answers.
func (m *SMTPMailer) SendOTPEmail(ctx context.Context, to, otp string, purpose models.OTPPurpose) error {
	msg := ComposeOTPMessage(m.cfg.From, to, otp, purpose)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, auth, m.cfg.From, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send otp email to %s: %w", to, err)
		}
		return nil
	}
}

// Subject returns the subject line used for purpose.
func Subject(purpose models.OTPPurpose) string {
	if purpose == models.OTPPurposeReset {
		return "Reset Password Confirmation OTP"
	}
	return "Account Confirmation OTP"
}

func body(otp string, purpose models.OTPPurpose) string {
	action := "account confirmation"
	if purpose == models.OTPPurposeReset {
		action = "reset password"
	}
	return fmt.Sprintf("Your OTP for %s is: %s", action, otp)
}

// ComposeOTPMessage renders an RFC 5322 plain text message.
func ComposeOTPMessage(from, to, otp string, purpose models.OTPPurpose) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + Subject(purpose) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body(otp, purpose) + "\r\n")
	return []byte(b.String())
}

// LogMailer writes OTP mails to the log instead of sending them. Used when no
// SMTP host is configured.
type LogMailer struct{}

func (LogMailer) SendOTPEmail(ctx context.Context, to, otp string, purpose models.OTPPurpose) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"to":      to,
		"subject": Subject(purpose),
	}).Info(body(otp, purpose))
	return nil
}
