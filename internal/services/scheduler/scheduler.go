// Package scheduler реализует периодическое обслуживание: перевод
// просроченных подписок в expired, напоминания об окончании срока и
// чистку истёкших токенов доступа.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
)

var (
	sweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_subscriptions_swept_total",
		Help: "Number of subscriptions transitioned to expired by the sweep.",
	})
	remindersSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_reminders_sent_total",
		Help: "Number of expiry reminders published.",
	})
	tokensPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_grant_tokens_purged_total",
		Help: "Number of expired grant token records purged.",
	})
)

// Lifecycle описывает операции обслуживания подписок.
type Lifecycle interface {
	SweepExpired(ctx context.Context) (int, error)
	SendDueReminders(ctx context.Context) (int, error)
}

// TokenJanitor описывает чистку сохранённых копий токенов.
type TokenJanitor interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// SchedulerService запускает периодические задачи обслуживания.
type SchedulerService struct {
	lifecycle Lifecycle
	tokens    TokenJanitor
	cfg       config.Scheduler
	log       *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(lifecycle Lifecycle, tokens TokenJanitor,
	cfg config.Scheduler, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		lifecycle: lifecycle,
		tokens:    tokens,
		cfg:       cfg,
		log:       log,
	}
}

// RunSweep крутит цикл перевода просроченных подписок в expired.
// После неудачного прохода следующая попытка назначается через
// retry_interval, а не через полный sweep_interval.
func (s *SchedulerService) RunSweep(ctx context.Context) {
	s.runEvery(ctx, "sweep", s.cfg.SweepInterval, func(ctx context.Context) error {
		count, err := s.lifecycle.SweepExpired(ctx)
		if err != nil {
			return err
		}
		sweptTotal.Add(float64(count))
		if count > 0 {
			s.log.Info("expired subscriptions swept", slog.Int("count", count))
		}
		return nil
	})
}

// RunReminders крутит цикл напоминаний об истекающих подписках.
func (s *SchedulerService) RunReminders(ctx context.Context) {
	s.runEvery(ctx, "reminders", s.cfg.ReminderInterval, func(ctx context.Context) error {
		sent, err := s.lifecycle.SendDueReminders(ctx)
		if err != nil {
			return err
		}
		remindersSentTotal.Add(float64(sent))
		if sent > 0 {
			s.log.Info("expiry reminders sent", slog.Int("count", sent))
		}
		return nil
	})
}

// RunTokenPurge крутит цикл чистки истёкших копий токенов доступа.
func (s *SchedulerService) RunTokenPurge(ctx context.Context) {
	s.runEvery(ctx, "token purge", s.cfg.SweepInterval, func(ctx context.Context) error {
		purged, err := s.tokens.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		tokensPurgedTotal.Add(float64(purged))
		if purged > 0 {
			s.log.Info("expired grant tokens purged", slog.Int("count", purged))
		}
		return nil
	})
}

// runEvery выполняет задачу сразу и затем по таймеру до отмены контекста.
func (s *SchedulerService) runEvery(ctx context.Context, name string,
	interval time.Duration, task func(context.Context) error) {
	next := func() time.Duration {
		if err := task(ctx); err != nil {
			s.log.Error("scheduled task failed",
				slog.String("task", name), sl.Err(err))
			return s.cfg.RetryInterval
		}
		return interval
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(next())
		}
	}
}
