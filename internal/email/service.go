package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/medrecords-api/internal/config"
)

type Service interface {
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer dialer
	from   string
}

// NewService returns an SMTP sender, or one that only logs when no SMTP
// host is configured.
func NewService(cfg config.SMTPConfig) Service {
	if !cfg.Enabled() {
		return logOnly{}
	}
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

type logOnly struct{}

func (logOnly) SendCustom(ctx context.Context, to string, subject string, content string) error {
	log.Ctx(ctx).Info().Str("to", to).Str("subject", subject).Msg("smtp disabled, email not sent")
	return nil
}
