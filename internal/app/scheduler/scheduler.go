// Package scheduler собирает приложение периодического обслуживания:
// перевод просроченных подписок, напоминания и чистка токенов.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/cache"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/granttoken"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/rabbitmq"
	notifiersvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/notifier"
	schedulersvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/scheduler"
	subscriptionsvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/subscription"
	tokensvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/token"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/storage"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulersvc.SchedulerService
	conn             *amqp.Connection
	ch               *amqp.Channel
	db               *storage.Storage
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *storage.Storage) error {
	for range 10 {
		err := db.CheckDatabaseReady(ctx)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	var conn *amqp.Connection
	var ch *amqp.Channel
	var err error
	if cfg.Policy.NotificationsEnabled {
		conn, err = rabbitmq.Connect(cfg.Rabbit.AmqpURI, cfg.Rabbit.MaxRetries, cfg.Rabbit.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		ch, err = rabbitmq.SetupChannel(conn, cfg.Rabbit.Exchange, rabbitmq.GetNotificationQueues())
		if err != nil {
			closeResources(nil, conn, logger)
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
	}
	notifier := notifiersvc.New(ch, cfg.Rabbit.Exchange, cfg.Policy.NotificationsEnabled, logger)

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	subscriptionService := subscriptionsvc.New(db, cacheRedis, notifier,
		cfg.Plans, cfg.Policy, logger)
	tokenService := tokensvc.New(granttoken.New(cfg.GrantToken.Secret),
		jwt.NewMaker(cfg.SessionToken.SessionSecret, cfg.SessionToken.MaxTTL),
		db, db, time.Duration(cfg.GrantToken.ExpiryHours)*time.Hour,
		cfg.GrantToken.Retention, cfg.TargetBotUsername, logger)
	schedulerService := schedulersvc.NewSchedulerService(subscriptionService,
		tokenService, cfg.Scheduler, logger)

	return &App{
		schedulerService: schedulerService,
		conn:             conn,
		ch:               ch,
		db:               db,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает все циклы обслуживания и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	go a.schedulerService.RunSweep(ctx)
	go a.schedulerService.RunReminders(ctx)
	go a.schedulerService.RunTokenPurge(ctx)

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")

	closeResources(a.ch, a.conn, a.logger)
	a.db.DB.Close()

	return nil
}
