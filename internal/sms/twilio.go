package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNotConfigured is wrapped by Validate when credentials or sender are missing.
var ErrNotConfigured = errors.New("sms provider not configured")

type Message struct {
	To   string
	Body string
}

type Receipt struct {
	ID     string
	Status string
}

type Sender interface {
	Validate() error
	Send(ctx context.Context, msg *Message) (*Receipt, error)
}

type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	FromNumber          string
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends from the messaging service when one is configured,
// otherwise from the fixed number.
type TwilioSender struct {
	cfg TwilioConfig
	api messageCreator
}

func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{cfg: cfg, api: client.Api}
}

func (s *TwilioSender) Validate() error {
	if s.cfg.AccountSID == "" || s.cfg.AuthToken == "" {
		return fmt.Errorf("%w: missing TWILIO_ACCOUNT_SID or TWILIO_AUTH_TOKEN", ErrNotConfigured)
	}
	if s.cfg.MessagingServiceSID == "" && s.cfg.FromNumber == "" {
		return fmt.Errorf("%w: set TWILIO_MESSAGING_SERVICE_SID or TWILIO_PHONE_NUMBER", ErrNotConfigured)
	}
	return nil
}

func (s *TwilioSender) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetBody(msg.Body)
	if s.cfg.MessagingServiceSID != "" {
		params.SetMessagingServiceSid(s.cfg.MessagingServiceSID)
	} else {
		params.SetFrom(s.cfg.FromNumber)
	}

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("failed to send via twilio: %w", err)
	}

	receipt := &Receipt{}
	if resp.Sid != nil {
		receipt.ID = *resp.Sid
	}
	if resp.Status != nil {
		receipt.Status = fmt.Sprint(*resp.Status)
	}
	return receipt, nil
}
