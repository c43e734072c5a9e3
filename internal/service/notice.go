package service

import (
	"context"

	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/lib/job"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/rs/zerolog"
)

// notice is an email and SMS pair addressed to a driver, queued once the
// change that produced it has committed.
type notice struct {
	driver   *model.Driver
	template email.Template
	data     map[string]any
	sms      string
}

// send queues n. Queue failures are logged; the change already committed.
func (s *LeaseService) send(ctx context.Context, n *notice) {
	if n == nil {
		return
	}
	queueNotice(ctx, s.notifier, s.logger, n)
}

func queueNotice(ctx context.Context, notifier job.Notifier, logger *zerolog.Logger, n *notice) {
	if n.driver.Email != "" {
		err := notifier.Email(ctx, job.EmailPayload{
			To:       []string{n.driver.Email},
			Template: n.template,
			Data:     n.data,
		})
		if err != nil {
			logger.Error().Err(err).Str("template", string(n.template)).Msg("failed to queue email notice")
		}
	}

	if n.driver.Phone != "" && n.sms != "" {
		if err := notifier.SMS(ctx, job.SMSPayload{To: n.driver.Phone, Message: n.sms}); err != nil {
			logger.Error().Err(err).Msg("failed to queue sms notice")
		}
	}
}
