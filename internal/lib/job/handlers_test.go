package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/lib/sms"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmail struct {
	sent []EmailPayload
	err  error
}

func (f *fakeEmail) Send(to []string, subject string, name email.Template, data map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, EmailPayload{To: to, Subject: subject, Template: name, Data: data})
	return nil
}

type fakeSMS struct {
	to  []string
	err error
}

func (f *fakeSMS) Send(to, message string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	return nil
}

type fakeSweeper struct {
	calls []string
	err   error
}

func (f *fakeSweeper) run(name string) (*model.SweepResult, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	return &model.SweepResult{Sweep: name, Processed: 2, Succeeded: 2}, nil
}

func (f *fakeSweeper) RunRenewalSweep(context.Context) (*model.SweepResult, error) {
	return f.run("renewals")
}

func (f *fakeSweeper) RunExpirySweep(context.Context) (*model.SweepResult, error) {
	return f.run("expiries")
}

func (f *fakeSweeper) RunComplianceSweep(context.Context) (*model.SweepResult, error) {
	return f.run("compliance")
}

func newTestService(e EmailSender, s SMSSender, sw Sweeper) *JobService {
	logger := zerolog.Nop()
	j := &JobService{logger: &logger}
	j.InitHandlers(e, s, sw)
	return j
}

func emailTask(t *testing.T, p EmailPayload) *asynq.Task {
	t.Helper()
	task, err := NewEmailTask(p)
	require.NoError(t, err)
	return task
}

func TestHandleEmailTask(t *testing.T) {
	fe := &fakeEmail{}
	j := newTestService(fe, &fakeSMS{}, &fakeSweeper{})

	p := EmailPayload{
		To:       []string{"driver@example.com"},
		Template: email.TemplateLeaseRenewed,
		Data:     map[string]any{"LeaseNumber": "LS-001000"},
	}
	require.NoError(t, j.handleEmailTask(context.Background(), emailTask(t, p)))
	require.Len(t, fe.sent, 1)
	assert.Equal(t, "LS-001000", fe.sent[0].Data["LeaseNumber"])
}

func TestHandleEmailTask_NotConfiguredIsDropped(t *testing.T) {
	j := newTestService(&fakeEmail{err: email.ErrNotConfigured}, &fakeSMS{}, &fakeSweeper{})

	p := EmailPayload{To: []string{"a@example.com"}, Template: email.TemplateDriverWelcome}
	assert.NoError(t, j.handleEmailTask(context.Background(), emailTask(t, p)))
}

func TestHandleEmailTask_ProviderErrorRetries(t *testing.T) {
	j := newTestService(&fakeEmail{err: errors.New("503")}, &fakeSMS{}, &fakeSweeper{})

	p := EmailPayload{To: []string{"a@example.com"}, Template: email.TemplateDriverWelcome}
	err := j.handleEmailTask(context.Background(), emailTask(t, p))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleEmailTask_BadPayloadSkipsRetry(t *testing.T) {
	j := newTestService(&fakeEmail{}, &fakeSMS{}, &fakeSweeper{})

	err := j.handleEmailTask(context.Background(), asynq.NewTask(TaskNotifyEmail, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSMSTask(t *testing.T) {
	fs := &fakeSMS{}
	j := newTestService(&fakeEmail{}, fs, &fakeSweeper{})

	task, err := NewSMSTask(SMSPayload{To: "+12125550123", Message: "hi"})
	require.NoError(t, err)
	require.NoError(t, j.handleSMSTask(context.Background(), task))
	assert.Equal(t, []string{"+12125550123"}, fs.to)

	j = newTestService(&fakeEmail{}, &fakeSMS{err: sms.ErrNotConfigured}, &fakeSweeper{})
	assert.NoError(t, j.handleSMSTask(context.Background(), task))
}

func TestHandleSweepTask(t *testing.T) {
	sw := &fakeSweeper{}
	j := newTestService(&fakeEmail{}, &fakeSMS{}, sw)

	for _, tt := range []string{TaskRenewalSweep, TaskExpirySweep, TaskComplianceSweep} {
		require.NoError(t, j.handleSweepTask(context.Background(), NewSweepTask(tt)))
	}
	assert.Equal(t, []string{"renewals", "expiries", "compliance"}, sw.calls)

	err := j.handleSweepTask(context.Background(), asynq.NewTask("lease:unknown", nil))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	failing := newTestService(&fakeEmail{}, &fakeSMS{}, &fakeSweeper{err: errors.New("db down")})
	assert.Error(t, failing.handleSweepTask(context.Background(), NewSweepTask(TaskExpirySweep)))
}

func TestNewTasks(t *testing.T) {
	_, err := NewEmailTask(EmailPayload{Template: email.TemplateLeaseExpired})
	assert.Error(t, err)
	_, err = NewSMSTask(SMSPayload{Message: "x"})
	assert.Error(t, err)

	task := emailTask(t, EmailPayload{To: []string{"a@example.com"}, Template: email.TemplateLeaseExpired})
	var p EmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, email.TemplateLeaseExpired, p.Template)
	assert.Equal(t, TaskNotifyEmail, task.Type())
}

func TestStart_RequiresHandlers(t *testing.T) {
	logger := zerolog.Nop()
	j := &JobService{logger: &logger}
	assert.Error(t, j.Start())
}
