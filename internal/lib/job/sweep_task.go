package job

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kryptonation/creamrun-sub000/internal/model"
)

const (
	TaskRenewalSweep    = "lease:renewal_sweep"
	TaskExpirySweep     = "lease:expiry_sweep"
	TaskComplianceSweep = "compliance:sweep"
)

// Sweeper runs the periodic batch jobs.
type Sweeper interface {
	RunRenewalSweep(ctx context.Context) (*model.SweepResult, error)
	RunExpirySweep(ctx context.Context) (*model.SweepResult, error)
	RunComplianceSweep(ctx context.Context) (*model.SweepResult, error)
}

// sweepUniqueTTL keeps a second copy of a sweep out of the queue while one
// is pending or running.
const sweepUniqueTTL = time.Hour

// NewSweepTask builds a sweep task of the given type.
func NewSweepTask(taskType string) *asynq.Task {
	return asynq.NewTask(
		taskType,
		nil,
		asynq.MaxRetry(1),
		asynq.Queue("critical"),
		asynq.Timeout(30*time.Minute),
		asynq.Unique(sweepUniqueTTL),
	)
}
