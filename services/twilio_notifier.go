package services

import (
	"context"
	"fmt"
	"strings"

	"salonpro-agenda/models"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	FromNumber     string
	WhatsAppNumber string
}

// TwilioNotifier sends reminders as SMS or WhatsApp messages through Twilio.
type TwilioNotifier struct {
	client *twilio.RestClient
	cfg    TwilioConfig
}

func NewTwilioNotifier(cfg TwilioConfig) *TwilioNotifier {
	return &TwilioNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		cfg: cfg,
	}
}

// Send delivers body over SMS or WhatsApp and returns the message SID.
func (n *TwilioNotifier) Send(ctx context.Context, channel models.ReminderChannel, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	params := messageParams(n.cfg, channel, to, body)
	if params == nil {
		return "", fmt.Errorf("twilio: unsupported channel %q", channel)
	}

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio: send %s message: %w", channel, err)
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

func messageParams(cfg TwilioConfig, channel models.ReminderChannel, to, body string) *twilioApi.CreateMessageParams {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)
	switch channel {
	case models.ChannelWhatsApp:
		params.SetTo(whatsappAddress(to))
		params.SetFrom(whatsappAddress(cfg.WhatsAppNumber))
	case models.ChannelSMS:
		params.SetTo(to)
		params.SetFrom(cfg.FromNumber)
	default:
		return nil
	}
	return params
}

func whatsappAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}
	return "whatsapp:" + number
}
