package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridConfig struct {
	Sender
	APIKey               string
	TemplateID           string
	UseTemplate          bool
	Categories           []string
	ClickTracking        bool
	OpenTracking         bool
	BypassListManagement bool
}

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridService struct {
	cfg    SendGridConfig
	client sendGridClient
}

func NewSendGridService(cfg SendGridConfig) *SendGridService {
	return &SendGridService{cfg: cfg, client: sendgrid.NewSendClient(cfg.APIKey)}
}

func (s *SendGridService) Validate() error {
	if s.cfg.APIKey == "" || s.cfg.From == "" {
		return fmt.Errorf("%w: missing SENDGRID_API_KEY or NOTIFY_FROM_EMAIL", ErrNotConfigured)
	}
	if s.cfg.UseTemplate && s.cfg.TemplateID == "" {
		return fmt.Errorf("%w: template mode requires SENDGRID_TEMPLATE_ID", ErrNotConfigured)
	}
	return nil
}

func (s *SendGridService) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	resp, err := s.client.SendWithContext(ctx, s.build(msg))
	if err != nil {
		return nil, fmt.Errorf("failed to send via sendgrid: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("sendgrid rejected message: status %d: %s", resp.StatusCode, resp.Body)
	}

	receipt := &Receipt{Status: "accepted"}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		receipt.ID = ids[0]
	}
	return receipt, nil
}

func (s *SendGridService) build(msg *Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.cfg.FromName, s.cfg.From))

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.ToName, msg.To))

	if s.cfg.UseTemplate {
		m.SetTemplateID(s.cfg.TemplateID)
		for k, v := range msg.TemplateData {
			p.SetDynamicTemplateData(k, v)
		}
	} else {
		m.Subject = msg.Subject
		p.Subject = msg.Subject
		// text/plain must precede text/html.
		m.AddContent(
			mail.NewContent("text/plain", msg.Text),
			mail.NewContent("text/html", msg.HTML),
		)
	}
	m.AddPersonalizations(p)

	if s.cfg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", s.cfg.ReplyTo))
	}
	if len(s.cfg.Categories) > 0 {
		m.AddCategories(s.cfg.Categories...)
	}

	tracking := mail.NewTrackingSettings()
	tracking.SetClickTracking(mail.NewClickTrackingSetting().
		SetEnable(s.cfg.ClickTracking).
		SetEnableText(s.cfg.ClickTracking))
	tracking.SetOpenTracking(mail.NewOpenTrackingSetting().SetEnable(s.cfg.OpenTracking))
	m.SetTrackingSettings(tracking)

	if s.cfg.BypassListManagement {
		settings := mail.NewMailSettings()
		settings.SetBypassListManagement(mail.NewSetting(true))
		m.SetMailSettings(settings)
	}
	return m
}
