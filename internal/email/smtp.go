package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Sender
	Host     string
	Port     int
	Username string
	Password string
}

type smtpDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPService relays through a plain SMTP server. Template mode is not
// supported; TemplateData is ignored.
type SMTPService struct {
	cfg    SMTPConfig
	dialer smtpDialer
}

func NewSMTPService(cfg SMTPConfig) *SMTPService {
	return &SMTPService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *SMTPService) Validate() error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return fmt.Errorf("%w: missing smtp.host or NOTIFY_FROM_EMAIL", ErrNotConfigured)
	}
	return nil
}

func (s *SMTPService) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.cfg.Host)
	m := gomail.NewMessage()
	m.SetHeader("Message-ID", id)
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetAddressHeader("To", msg.To, msg.ToName)
	if s.cfg.ReplyTo != "" {
		m.SetHeader("Reply-To", s.cfg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return nil, fmt.Errorf("failed to send via smtp: %w", err)
	}
	return &Receipt{ID: id, Status: "relayed"}, nil
}
