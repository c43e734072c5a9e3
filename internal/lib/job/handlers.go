package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/lib/sms"
	"github.com/kryptonation/creamrun-sub000/internal/model"
)

type EmailSender interface {
	Send(to []string, subject string, name email.Template, data map[string]any) error
}

type SMSSender interface {
	Send(to, message string) error
}

func (j *JobService) handleEmailTask(ctx context.Context, t *asynq.Task) error {
	var p EmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal email payload: %v: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().Str("type", TaskNotifyEmail).Str("template", string(p.Template)).Logger()

	err := j.email.Send(p.To, p.Subject, p.Template, p.Data)
	if errors.Is(err, email.ErrNotConfigured) {
		log.Warn().Strs("to", p.To).Msg("email provider not configured, dropping notice")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Strs("to", p.To).Msg("failed to send email")
		return err
	}

	log.Info().Strs("to", p.To).Msg("sent email notice")
	return nil
}

func (j *JobService) handleSMSTask(ctx context.Context, t *asynq.Task) error {
	var p SMSPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal sms payload: %v: %w", err, asynq.SkipRetry)
	}

	err := j.sms.Send(p.To, p.Message)
	if errors.Is(err, sms.ErrNotConfigured) {
		j.logger.Warn().Str("type", TaskNotifySMS).Msg("sms provider not configured, dropping notice")
		return nil
	}
	if err != nil {
		j.logger.Error().Err(err).Str("type", TaskNotifySMS).Msg("failed to send sms")
		return err
	}
	return nil
}

func (j *JobService) handleSweepTask(ctx context.Context, t *asynq.Task) error {
	var (
		res *model.SweepResult
		err error
	)
	switch t.Type() {
	case TaskRenewalSweep:
		res, err = j.sweeper.RunRenewalSweep(ctx)
	case TaskExpirySweep:
		res, err = j.sweeper.RunExpirySweep(ctx)
	case TaskComplianceSweep:
		res, err = j.sweeper.RunComplianceSweep(ctx)
	default:
		return fmt.Errorf("unknown sweep %q: %w", t.Type(), asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", t.Type(), err)
	}

	j.logger.Info().
		Str("type", t.Type()).
		Int("processed", res.Processed).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("sweep finished")
	return nil
}

func (j *JobService) handleError(ctx context.Context, t *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	j.logger.Error().
		Err(err).
		Str("type", t.Type()).
		Int("retried", retried).
		Int("max_retry", maxRetry).
		Msg("task failed")
}
