package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
)

type fakeLifecycle struct {
	sweeps    atomic.Int64
	reminders atomic.Int64
	sweepErr  error
}

func (f *fakeLifecycle) SweepExpired(ctx context.Context) (int, error) {
	f.sweeps.Add(1)
	if f.sweepErr != nil {
		return 0, f.sweepErr
	}
	return 1, nil
}

func (f *fakeLifecycle) SendDueReminders(ctx context.Context) (int, error) {
	f.reminders.Add(1)
	return 0, nil
}

type fakeJanitor struct {
	purges atomic.Int64
}

func (f *fakeJanitor) PurgeExpired(ctx context.Context) (int, error) {
	f.purges.Add(1)
	return 0, nil
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testSchedulerConfig() config.Scheduler {
	return config.Scheduler{
		SweepInterval:    20 * time.Millisecond,
		RetryInterval:    5 * time.Millisecond,
		ReminderInterval: 20 * time.Millisecond,
	}
}

func TestSchedulerService_RunSweep(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	svc := NewSchedulerService(lifecycle, &fakeJanitor{}, testSchedulerConfig(), newNoopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()
	svc.RunSweep(ctx)

	// Первый запуск немедленный, дальше по таймеру.
	assert.GreaterOrEqual(t, lifecycle.sweeps.Load(), int64(2))
}

func TestSchedulerService_RunSweep_RetriesAfterFailure(t *testing.T) {
	lifecycle := &fakeLifecycle{sweepErr: errs.ErrUpstreamUnavailable}
	svc := NewSchedulerService(lifecycle, &fakeJanitor{}, testSchedulerConfig(), newNoopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	svc.RunSweep(ctx)

	// С retry_interval = 5ms за 40ms ошибочная задача успевает
	// перезапуститься чаще, чем позволил бы полный sweep_interval.
	assert.GreaterOrEqual(t, lifecycle.sweeps.Load(), int64(4))
}

func TestSchedulerService_RunReminders(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	svc := NewSchedulerService(lifecycle, &fakeJanitor{}, testSchedulerConfig(), newNoopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	svc.RunReminders(ctx)

	assert.GreaterOrEqual(t, lifecycle.reminders.Load(), int64(1))
}

func TestSchedulerService_RunTokenPurge(t *testing.T) {
	janitor := &fakeJanitor{}
	svc := NewSchedulerService(&fakeLifecycle{}, janitor, testSchedulerConfig(), newNoopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	svc.RunTokenPurge(ctx)

	assert.GreaterOrEqual(t, janitor.purges.Load(), int64(1))
}
