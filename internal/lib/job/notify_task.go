package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
)

const (
	TaskNotifyEmail = "notify:email"
	TaskNotifySMS   = "notify:sms"
)

// EmailPayload is the queued form of an email notice.
type EmailPayload struct {
	To       []string       `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Template email.Template `json:"template"`
	Data     map[string]any `json:"data"`
}

// SMSPayload is the queued form of a text notice.
type SMSPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Notifier queues notices for delivery by the worker.
type Notifier interface {
	Email(ctx context.Context, p EmailPayload) error
	SMS(ctx context.Context, p SMSPayload) error
}

func NewEmailTask(p EmailPayload) (*asynq.Task, error) {
	if len(p.To) == 0 {
		return nil, fmt.Errorf("email notice has no recipients")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskNotifyEmail,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}

func NewSMSTask(p SMSPayload) (*asynq.Task, error) {
	if p.To == "" {
		return nil, fmt.Errorf("sms notice has no recipient")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskNotifySMS,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}

// Email enqueues an email notice.
func (j *JobService) Email(ctx context.Context, p EmailPayload) error {
	task, err := NewEmailTask(p)
	if err != nil {
		return err
	}
	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskNotifyEmail, err)
	}
	j.logger.Debug().Str("task_id", info.ID).Str("template", string(p.Template)).Msg("email notice queued")
	return nil
}

// SMS enqueues a text notice.
func (j *JobService) SMS(ctx context.Context, p SMSPayload) error {
	task, err := NewSMSTask(p)
	if err != nil {
		return err
	}
	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskNotifySMS, err)
	}
	j.logger.Debug().Str("task_id", info.ID).Msg("sms notice queued")
	return nil
}
