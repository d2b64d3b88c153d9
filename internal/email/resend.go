package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type ResendConfig struct {
	Sender
	APIKey     string
	Categories []string
}

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendService struct {
	cfg    ResendConfig
	emails resendEmails
}

func NewResendService(cfg ResendConfig) *ResendService {
	return &ResendService{cfg: cfg, emails: resend.NewClient(cfg.APIKey).Emails}
}

func (s *ResendService) Validate() error {
	if s.cfg.APIKey == "" || s.cfg.From == "" {
		return fmt.Errorf("%w: missing RESEND_API_KEY or NOTIFY_FROM_EMAIL", ErrNotConfigured)
	}
	return nil
}

func (s *ResendService) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: s.cfg.ReplyTo,
	}
	for _, c := range s.cfg.Categories {
		req.Tags = append(req.Tags, resend.Tag{Name: "category", Value: c})
	}

	sent, err := s.emails.SendWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to send via resend: %w", err)
	}
	return &Receipt{ID: sent.Id, Status: "sent"}, nil
}
