package job

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"github.com/andresuryana/vericode/internal/otp/usecase"
	"github.com/andresuryana/vericode/internal/pkg/config"
	"github.com/andresuryana/vericode/internal/pkg/goroutine"
)

type uc interface {
	Sweep(ctx context.Context) (*usecase.SweepOutput, error)
	Purge(ctx context.Context, in usecase.PurgeInput) (*usecase.PurgeOutput, error)
}

// Reaper runs the expiry sweep and retention purge on fixed schedules. Each
// job skips a tick when its previous run is still in flight, so overlapping
// invocations never stack up.
type Reaper struct {
	uc           uc
	sweepEvery   time.Duration
	purgeEvery   time.Duration
	sweepRunning atomic.Bool
	purgeRunning atomic.Bool
}

func NewReaper(cfg config.Config, uc uc) *Reaper {
	sweepEvery := cfg.GetMinute("modules.otp.sweep_interval_minutes")
	if sweepEvery <= 0 {
		sweepEvery = time.Hour
	}
	purgeEvery := cfg.GetHour("modules.otp.purge_interval_hours")
	if purgeEvery <= 0 {
		purgeEvery = 24 * time.Hour
	}

	return &Reaper{uc: uc, sweepEvery: sweepEvery, purgeEvery: purgeEvery}
}

// Start schedules both jobs on the goroutine manager; they stop when ctx is
// canceled during app shutdown.
func (j *Reaper) Start(ctx context.Context, routine *goroutine.Manager) {
	routine.Go(ctx, func(pCtx context.Context) error {
		slog.InfoContext(pCtx, "Running job for otp expiry sweep", "interval", j.sweepEvery.String())
		j.runEvery(pCtx, j.sweepEvery, j.runSweep)
		return nil
	})

	routine.Go(ctx, func(pCtx context.Context) error {
		slog.InfoContext(pCtx, "Running job for otp retention purge", "interval", j.purgeEvery.String())
		j.runEvery(pCtx, j.purgeEvery, j.runPurge)
		return nil
	})
}

func (j *Reaper) runEvery(ctx context.Context, interval time.Duration, run func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

func (j *Reaper) runSweep(ctx context.Context) {
	if !j.sweepRunning.CompareAndSwap(false, true) {
		slog.WarnContext(ctx, "otp sweep still running, skipping tick")
		return
	}
	defer j.sweepRunning.Store(false)

	if _, err := j.uc.Sweep(ctx); err != nil {
		slog.ErrorContext(ctx, "otp sweep job failed", "error", err)
	}
}

func (j *Reaper) runPurge(ctx context.Context) {
	if !j.purgeRunning.CompareAndSwap(false, true) {
		slog.WarnContext(ctx, "otp purge still running, skipping tick")
		return
	}
	defer j.purgeRunning.Store(false)

	if _, err := j.uc.Purge(ctx, usecase.PurgeInput{}); err != nil {
		slog.ErrorContext(ctx, "otp purge job failed", "error", err)
	}
}
