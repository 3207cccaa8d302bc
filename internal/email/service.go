package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/emersoneims/oracle-api/internal/config"
)

type Service interface {
	SendWelcome(ctx context.Context, to string, name string) error
	SendPasswordChanged(ctx context.Context, to string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService creates a gomail-backed sender.
func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendWelcome(ctx context.Context, to string, name string) error {
	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour Generator Oracle account is ready. Log in to start diagnosing faults.\n\nThe Generator Oracle team",
		name,
	)
	return s.send(to, "Welcome to Generator Oracle", body)
}

func (s *smtpService) SendPasswordChanged(ctx context.Context, to string) error {
	body := "Your Generator Oracle password was just changed and all devices were signed out. " +
		"If this wasn't you, contact support immediately."
	return s.send(to, "Your password was changed", body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

type noopService struct{}

// NewNoopService returns a sender that drops all mail. Used when SMTP
// is not configured and in tests.
func NewNoopService() Service {
	return noopService{}
}

func (noopService) SendWelcome(ctx context.Context, to string, name string) error { return nil }
func (noopService) SendPasswordChanged(ctx context.Context, to string) error      { return nil }
