// Package notify delivers outbound messages back to the user.
package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
)

// Notifier sends one outbound message.
type Notifier interface {
	Send(ctx context.Context, to, from, body string) error
}

// TwilioNotifier implements Notifier using the Twilio messaging API.
// Addresses are passed through verbatim, so WhatsApp recipients keep their
// "whatsapp:+123..." prefix.
type TwilioNotifier struct {
	client *twilio.RestClient
	logger logging.Logger
}

// NewTwilioNotifier creates a notifier authenticated with an account SID and
// auth token.
func NewTwilioNotifier(accountSID, authToken string, logger logging.Logger) *TwilioNotifier {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{client: client, logger: logger}
}

// Send delivers one message.
func (n *TwilioNotifier) Send(ctx context.Context, to, from, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	msg, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("sending message to %s: %w", to, err)
	}

	sid := ""
	if msg.Sid != nil {
		sid = *msg.Sid
	}
	n.logger.Info("message sent", "to", to, "sid", sid)
	return nil
}
