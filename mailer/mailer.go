// Package mailer delivers one-time passcodes by e-mail.
package mailer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

const sendTimeout = 10 * time.Second

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPMailer sends plain-text mails through one SMTP relay.
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.Timeout = sendTimeout
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{dialer: d, from: from}
}

func otpMessage(from, to, code string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your YourWheels verification code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your verification code is %s.\n\nIt expires in 5 minutes. If you did not request it, ignore this mail.\n", code))
	return m
}

func (s *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(otpMessage(s.from, email, code)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email, err)
	}
	return nil
}

// LogMailer writes codes to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogMailer struct {
	Log *zap.Logger
}

func (m LogMailer) SendOTP(_ context.Context, email, code string) error {
	m.Log.Info("otp issued (smtp disabled)", zap.String("email", email), zap.String("code", code))
	return nil
}
