// Package email renders the embedded HTML notice templates and sends them
// through Resend.
package email

import (
	"bytes"
	"fmt"

	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by Send when no Resend API key is set.
var ErrNotConfigured = errors.New("email provider is not configured")

// Client wraps the Resend client and a logger.
type Client struct {
	client *resend.Client
	from   string
	logger *zerolog.Logger
}

// NewClient creates an email Client. Without an API key the client renders
// but refuses to send.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	c := &Client{
		from:   cfg.Integration.EmailFrom,
		logger: logger,
	}
	if cfg.Integration.ResendAPIKey != "" {
		c.client = resend.NewClient(cfg.Integration.ResendAPIKey)
	}
	return c
}

// Render executes the named template with data.
func Render(name Template, data map[string]any) (string, error) {
	if !Known(name) {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(name)+".html", data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", name)
	}
	return body.String(), nil
}

// Send renders the template and sends it. An empty subject uses the
// template's default subject.
func (c *Client) Send(to []string, subject string, name Template, data map[string]any) error {
	html, err := Render(name, data)
	if err != nil {
		return err
	}
	if c.client == nil {
		return ErrNotConfigured
	}
	if subject == "" {
		subject = Subjects[name]
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      to,
		Subject: subject,
		Html:    html,
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		return errors.Wrap(err, "failed to send email")
	}

	c.logger.Debug().Str("email_id", sent.Id).Str("template", string(name)).Msg("email sent")
	return nil
}
