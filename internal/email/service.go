package email

import (
	"context"
	"errors"
)

// ErrNotConfigured is wrapped by Validate when credentials or sender are missing.
var ErrNotConfigured = errors.New("email provider not configured")

// Message is a single transactional email. When the provider is configured
// for templates, TemplateData replaces Subject, HTML and Text.
type Message struct {
	To           string
	ToName       string
	Subject      string
	HTML         string
	Text         string
	TemplateData map[string]interface{}
}

// Receipt identifies an accepted message at the provider.
type Receipt struct {
	ID     string
	Status string
}

type Service interface {
	// Validate reports missing credentials without contacting the provider.
	Validate() error
	Send(ctx context.Context, msg *Message) (*Receipt, error)
}

// Sender identity shared by every provider.
type Sender struct {
	From     string
	FromName string
	ReplyTo  string
}
