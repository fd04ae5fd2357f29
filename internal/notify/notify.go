// Package notify delivers completed itineraries out-of-band. The only
// implementation sends SMS through Twilio; delivery failure is never
// fatal to a conversation turn.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// maxSMSBody caps outbound message length; longer itineraries are
// truncated with a marker.
const maxSMSBody = 1500

// Notifier sends a text message to a recipient.
type Notifier interface {
	Send(ctx context.Context, to, body string) error
}

// Opts holds configuration options for the Twilio notifier.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Option defines a configuration option for the Twilio notifier.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID (overrides $TWILIO_ACCOUNT_SID).
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token (overrides $TWILIO_AUTH_TOKEN).
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the sender number (overrides $TWILIO_FROM_NUMBER).
func WithFromNumber(number string) Option {
	return func(o *Opts) { o.FromNumber = number }
}

// TwilioNotifier sends SMS via the Twilio REST API.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioNotifier initializes a Twilio SMS notifier, falling back to
// the TWILIO_* environment variables for unset options.
func NewTwilioNotifier(opts ...Option) (*TwilioNotifier, error) {
	cfg := Opts{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, fmt.Errorf("Twilio credentials not set (TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER)")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	slog.Debug("notify.NewTwilioNotifier: client created", "from", cfg.FromNumber)
	return &TwilioNotifier{client: client, from: cfg.FromNumber}, nil
}

// truncateBody caps the outbound message at maxSMSBody bytes.
func truncateBody(body string) string {
	if len(body) > maxSMSBody {
		return body[:maxSMSBody] + "\n[truncated]"
	}
	return body
}

// Send delivers body to the given phone number as SMS.
func (n *TwilioNotifier) Send(ctx context.Context, to, body string) error {
	body = truncateBody(body)

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(body)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("TwilioNotifier.Send failed", "error", err, "to", to)
		return fmt.Errorf("failed to send SMS to %s: %w", to, err)
	}
	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	slog.Debug("TwilioNotifier.Send succeeded", "to", to, "sid", sid)
	return nil
}
