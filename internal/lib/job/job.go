// Package job runs background work on Asynq: queued email and SMS notices,
// and the periodic lease and compliance sweeps.
package job

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/rs/zerolog"
)

// JobService holds the Asynq client (enqueue), server (workers) and
// scheduler (periodic sweeps).
type JobService struct {
	Client *asynq.Client

	server    *asynq.Server
	scheduler *asynq.Scheduler
	cfg       *config.Config
	logger    *zerolog.Logger

	email   EmailSender
	sms     SMSSender
	sweeper Sweeper

	serverStarted    bool
	schedulerStarted bool
}

// NewJobService creates the client, server and scheduler against the
// configured Redis. Nothing runs until Start or StartScheduler.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}
	qlog := &asynqLogger{logger: logger}

	j := &JobService{
		Client: asynq.NewClient(redisOpt),
		cfg:    cfg,
		logger: logger,
	}

	j.server = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger:       qlog,
			ErrorHandler: asynq.ErrorHandlerFunc(j.handleError),
		},
	)

	j.scheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: cfg.Lease.Location(),
		Logger:   qlog,
	})

	return j
}

// InitHandlers sets the dependencies task handlers call into. It must run
// before Start.
func (j *JobService) InitHandlers(email EmailSender, sms SMSSender, sweeper Sweeper) {
	j.email = email
	j.sms = sms
	j.sweeper = sweeper
}

// Mux routes task types to their handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskNotifyEmail, j.handleEmailTask)
	mux.HandleFunc(TaskNotifySMS, j.handleSMSTask)
	mux.HandleFunc(TaskRenewalSweep, j.handleSweepTask)
	mux.HandleFunc(TaskExpirySweep, j.handleSweepTask)
	mux.HandleFunc(TaskComplianceSweep, j.handleSweepTask)
	return mux
}

// Start starts the worker server in the background.
func (j *JobService) Start() error {
	if j.email == nil || j.sms == nil || j.sweeper == nil {
		return fmt.Errorf("job handlers are not initialized")
	}
	j.logger.Info().Msg("starting background job server")
	if err := j.server.Start(j.Mux()); err != nil {
		return err
	}
	j.serverStarted = true
	return nil
}

// StartScheduler registers the periodic sweeps and starts the scheduler.
func (j *JobService) StartScheduler() error {
	entries := []struct {
		spec     string
		taskType string
	}{
		{j.cfg.Scheduler.RenewalCron, TaskRenewalSweep},
		{j.cfg.Scheduler.ExpiryCron, TaskExpirySweep},
		{j.cfg.Scheduler.ComplianceCron, TaskComplianceSweep},
	}

	for _, e := range entries {
		id, err := j.scheduler.Register(e.spec, NewSweepTask(e.taskType))
		if err != nil {
			return fmt.Errorf("register %s: %w", e.taskType, err)
		}
		j.logger.Info().Str("task", e.taskType).Str("cron", e.spec).Str("entry_id", id).Msg("registered periodic task")
	}

	if err := j.scheduler.Start(); err != nil {
		return err
	}
	j.schedulerStarted = true
	return nil
}

// Stop shuts down the scheduler, the workers and the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	if j.schedulerStarted {
		j.scheduler.Shutdown()
	}
	if j.serverStarted {
		j.server.Shutdown()
	}
	j.Client.Close()
}
