package reminder

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/jwalitptl/lawdesk/internal/email"
	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/sms"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Group is the unit of delivery: one recipient and the hearings its message
// covers. Ungrouped channels always carry exactly one item.
type Group struct {
	User    *model.User
	Address string
	Items   []Item
}

// Message is a channel-neutral rendered reminder.
type Message struct {
	To           string
	ToName       string
	Subject      string
	HTML         string
	Text         string
	TemplateData map[string]interface{}
}

// Result identifies an accepted message at the provider.
type Result struct {
	ID     string
	Status string
}

// Channel composes and delivers reminders over one medium.
type Channel interface {
	Name() string
	// Grouped channels receive one Group per user, others one per hearing.
	Grouped() bool
	// Address returns the user's destination on this channel.
	Address(user *model.User) (string, bool)
	// Validate reports missing provider configuration.
	Validate() error
	Compose(g Group) (*Message, error)
	Send(ctx context.Context, msg *Message) (*Result, error)
}

type EmailChannel struct {
	sender   email.Service
	composer Composer
}

func NewEmailChannel(sender email.Service, composer Composer) *EmailChannel {
	return &EmailChannel{sender: sender, composer: composer}
}

func (c *EmailChannel) Name() string  { return ChannelEmail }
func (c *EmailChannel) Grouped() bool { return true }

func (c *EmailChannel) Address(user *model.User) (string, bool) {
	if user.Email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(user.Email)
	if err != nil {
		return "", false
	}
	return addr.Address, true
}

func (c *EmailChannel) Validate() error {
	return c.sender.Validate()
}

func (c *EmailChannel) Compose(g Group) (*Message, error) {
	content, err := c.composer.Email(g.User.DisplayName, g.Items)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:           g.Address,
		ToName:       g.User.DisplayName,
		Subject:      content.Subject,
		HTML:         content.HTML,
		Text:         content.Text,
		TemplateData: content.TemplateData,
	}, nil
}

func (c *EmailChannel) Send(ctx context.Context, msg *Message) (*Result, error) {
	receipt, err := c.sender.Send(ctx, &email.Message{
		To:           msg.To,
		ToName:       msg.ToName,
		Subject:      msg.Subject,
		HTML:         msg.HTML,
		Text:         msg.Text,
		TemplateData: msg.TemplateData,
	})
	if err != nil {
		return nil, err
	}
	return &Result{ID: receipt.ID, Status: receipt.Status}, nil
}

type SMSChannel struct {
	sender      sms.Sender
	composer    Composer
	countryCode string
}

func NewSMSChannel(sender sms.Sender, composer Composer, countryCode string) *SMSChannel {
	return &SMSChannel{sender: sender, composer: composer, countryCode: countryCode}
}

func (c *SMSChannel) Name() string  { return ChannelSMS }
func (c *SMSChannel) Grouped() bool { return false }

func (c *SMSChannel) Address(user *model.User) (string, bool) {
	return NormalizePhone(user.Mobile, c.countryCode)
}

func (c *SMSChannel) Validate() error {
	return c.sender.Validate()
}

func (c *SMSChannel) Compose(g Group) (*Message, error) {
	if len(g.Items) != 1 {
		return nil, fmt.Errorf("sms group must hold exactly one hearing, got %d", len(g.Items))
	}
	return &Message{To: g.Address, ToName: g.User.DisplayName, Text: c.composer.SMSBody(g.Items[0])}, nil
}

func (c *SMSChannel) Send(ctx context.Context, msg *Message) (*Result, error) {
	receipt, err := c.sender.Send(ctx, &sms.Message{To: msg.To, Body: msg.Text})
	if err != nil {
		return nil, err
	}
	return &Result{ID: receipt.ID, Status: receipt.Status}, nil
}
