// Package sms sends driver text notices through Africa's Talking.
package sms

import (
	"strings"
	"unicode/utf8"

	"github.com/AndroidStudyOpenSource/africastalking-go/sms"
	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by Send when no gateway credentials are set.
var ErrNotConfigured = errors.New("sms provider is not configured")

// MaxLength is the longest message sent, in characters; longer text is cut.
const MaxLength = 459

// sendFunc delivers one message through the gateway.
type sendFunc func(from, to, message string) error

// Client sends SMS messages.
type Client struct {
	send   sendFunc
	from   string
	logger *zerolog.Logger
}

// NewClient creates a Client from the integration config. Without a
// username and API key the client refuses to send.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	c := &Client{
		from:   cfg.Integration.SMSFrom,
		logger: logger,
	}
	if cfg.Integration.SMSUsername != "" && cfg.Integration.SMSAPIKey != "" {
		svc := sms.NewService(cfg.Integration.SMSUsername, cfg.Integration.SMSAPIKey, cfg.Integration.SMSEnv)
		c.send = func(from, to, message string) error {
			_, err := svc.Send(from, to, message)
			return err
		}
	}
	return c
}

// Send delivers message to a single phone number in E.164 form.
func (c *Client) Send(to, message string) error {
	if c.send == nil {
		return ErrNotConfigured
	}

	to = strings.TrimSpace(to)
	if !strings.HasPrefix(to, "+") {
		return errors.Errorf("phone number %q is not in international format", to)
	}
	message = truncate(message, MaxLength)

	if err := c.send(c.from, to, message); err != nil {
		return errors.Wrap(err, "failed to send sms")
	}

	c.logger.Debug().Str("to", to).Msg("sms sent")
	return nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}
