// Package sms sends the emergency alert text message. The alert body and
// both phone numbers are fixed by configuration; the caller only triggers
// the send.
package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers one SMS and reports the provider message ID.
type Sender interface {
	// Send delivers body to the configured recipient and returns the
	// provider's message SID.
	Send(ctx context.Context, body string) (string, error)
}

// Config holds Twilio credentials and the fixed sender/recipient pair.
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// Validate reports every missing field at once.
func (c Config) Validate() error {
	var errs []error
	if c.AccountSID == "" {
		errs = append(errs, errors.New("account_sid must be set"))
	}
	if c.AuthToken == "" {
		errs = append(errs, errors.New("auth_token must be set"))
	}
	if c.From == "" {
		errs = append(errs, errors.New("from number must be set"))
	}
	if c.To == "" {
		errs = append(errs, errors.New("to number must be set"))
	}
	return errors.Join(errs...)
}

// TwilioSender sends through the Twilio Programmable Messaging API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	to     string
}

var _ Sender = (*TwilioSender)(nil)

// NewTwilioSender validates cfg and builds the REST client.
func NewTwilioSender(cfg Config) (*TwilioSender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sms: invalid config: %w", err)
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{client: client, from: cfg.From, to: cfg.To}, nil
}

// Send delivers body from the configured number to the configured recipient.
func (s *TwilioSender) Send(ctx context.Context, body string) (string, error) {
	params := &twilioapi.CreateMessageParams{}
	params.SetBody(body)
	params.SetFrom(s.from)
	params.SetTo(s.to)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("sms: create message: %w", err)
	}
	if resp.Sid == nil {
		return "", errors.New("sms: provider returned no message sid")
	}
	return *resp.Sid, nil
}
