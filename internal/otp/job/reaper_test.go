package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/andresuryana/vericode/internal/otp/usecase"
	"github.com/andresuryana/vericode/internal/pkg/goroutine"
)

type fakeUC struct {
	mu     sync.Mutex
	sweeps int
	purges int
}

func (f *fakeUC) Sweep(context.Context) (*usecase.SweepOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sweeps++
	return &usecase.SweepOutput{}, nil
}

func (f *fakeUC) Purge(context.Context, usecase.PurgeInput) (*usecase.PurgeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.purges++
	return &usecase.PurgeOutput{}, nil
}

func (f *fakeUC) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps, f.purges
}

// cfgStub serves the two interval keys and zero for everything else.
type cfgStub struct {
	sweepMinutes int
	purgeHours   int
}

func (c *cfgStub) Close() error              { return nil }
func (c *cfgStub) GetBool(string) bool       { return false }
func (c *cfgStub) GetString(string) string   { return "" }
func (c *cfgStub) GetInt(string) int         { return 0 }
func (c *cfgStub) GetInt32(string) int32     { return 0 }
func (c *cfgStub) GetInt64(string) int64     { return 0 }
func (c *cfgStub) GetUint16(string) uint16   { return 0 }
func (c *cfgStub) GetFloat64(string) float64 { return 0 }
func (c *cfgStub) GetSecond(string) time.Duration {
	return 0
}
func (c *cfgStub) GetMinute(key string) time.Duration {
	if key == "modules.otp.sweep_interval_minutes" {
		return time.Duration(c.sweepMinutes) * time.Minute
	}
	return 0
}
func (c *cfgStub) GetHour(key string) time.Duration {
	if key == "modules.otp.purge_interval_hours" {
		return time.Duration(c.purgeHours) * time.Hour
	}
	return 0
}
func (c *cfgStub) GetDay(string) time.Duration     { return 0 }
func (c *cfgStub) GetBinary(string) []byte         { return nil }
func (c *cfgStub) GetArray(string) []string        { return nil }
func (c *cfgStub) GetMap(string) map[string]string { return nil }

func TestNewReaper(t *testing.T) {

	t.Run("Defaults", func(t *testing.T) {
		r := NewReaper(&cfgStub{}, &fakeUC{})

		if r.sweepEvery != time.Hour {
			t.Fatalf("sweep interval = %v, want 1h", r.sweepEvery)
		}
		if r.purgeEvery != 24*time.Hour {
			t.Fatalf("purge interval = %v, want 24h", r.purgeEvery)
		}
	})

	t.Run("Configured", func(t *testing.T) {
		r := NewReaper(&cfgStub{sweepMinutes: 5, purgeHours: 6}, &fakeUC{})

		if r.sweepEvery != 5*time.Minute {
			t.Fatalf("sweep interval = %v, want 5m", r.sweepEvery)
		}
		if r.purgeEvery != 6*time.Hour {
			t.Fatalf("purge interval = %v, want 6h", r.purgeEvery)
		}
	})
}

func TestReaperRun(t *testing.T) {

	t.Run("SweepRuns", func(t *testing.T) {
		uc := &fakeUC{}
		r := NewReaper(&cfgStub{}, uc)

		r.runSweep(context.Background())
		r.runPurge(context.Background())

		if sweeps, purges := uc.counts(); sweeps != 1 || purges != 1 {
			t.Fatalf("counts = (%d, %d), want (1, 1)", sweeps, purges)
		}
	})

	t.Run("OverlappingTickIsSkipped", func(t *testing.T) {
		uc := &fakeUC{}
		r := NewReaper(&cfgStub{}, uc)

		r.sweepRunning.Store(true)
		r.runSweep(context.Background())

		if sweeps, _ := uc.counts(); sweeps != 0 {
			t.Fatalf("sweep ran while previous run was in flight")
		}

		r.sweepRunning.Store(false)
		r.runSweep(context.Background())
		if sweeps, _ := uc.counts(); sweeps != 1 {
			t.Fatalf("sweep must run once the previous run finished")
		}
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		uc := &fakeUC{}
		r := &Reaper{uc: uc, sweepEvery: 5 * time.Millisecond, purgeEvery: 5 * time.Millisecond}

		ctx, cancel := context.WithCancel(context.Background())
		routine := goroutine.NewManager(4)

		r.Start(ctx, routine)
		time.Sleep(30 * time.Millisecond)
		cancel()

		if err := routine.Wait(); err != nil {
			t.Fatalf("jobs must exit cleanly on cancel: %v", err)
		}
		if sweeps, purges := uc.counts(); sweeps == 0 || purges == 0 {
			t.Fatalf("expected at least one tick each, got (%d, %d)", sweeps, purges)
		}
	})
}
