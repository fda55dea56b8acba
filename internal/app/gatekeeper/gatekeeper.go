// Package gatekeeper собирает основное приложение: HTTP API выдачи и
// погашения токенов доступа, статусов подписок и платёжного журнала.
package gatekeeper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/cache"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/granttoken"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/migrations"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/paymentprovider"
	notifiersvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/notifier"
	paymentsvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/payment"
	subscriptionsvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/subscription"
	tokensvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/token"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/storage"
)

// App — основное приложение с HTTP-сервером и его зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает приложение: хранилище, миграции, кеш, очередь уведомлений,
// сервисы и маршруты HTTP API.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var conn *amqp.Connection
	var ch *amqp.Channel
	if cfg.Policy.NotificationsEnabled {
		conn, err = rabbitmq.Connect(cfg.Rabbit.AmqpURI, cfg.Rabbit.MaxRetries, cfg.Rabbit.RetryDelay)
		if err != nil {
			return nil, err
		}
		ch, err = rabbitmq.SetupChannel(conn, cfg.Rabbit.Exchange, rabbitmq.GetNotificationQueues())
		if err != nil {
			conn.Close()
			return nil, err
		}
	}
	notifier := notifiersvc.New(ch, cfg.Rabbit.Exchange, cfg.Policy.NotificationsEnabled, logger)

	gateway, err := paymentprovider.New(cfg.Gateway)
	if err != nil {
		return nil, err
	}

	codec := granttoken.New(cfg.GrantToken.Secret)
	sessions := jwt.NewMaker(cfg.SessionToken.SessionSecret, cfg.SessionToken.MaxTTL)

	tokenService := tokensvc.New(codec, sessions, db, db,
		time.Duration(cfg.GrantToken.ExpiryHours)*time.Hour, cfg.GrantToken.Retention,
		cfg.TargetBotUsername, logger)
	subscriptionService := subscriptionsvc.New(db, cacheRedis, notifier,
		cfg.Plans, cfg.Policy, logger)
	paymentService := paymentsvc.New(db, subscriptionService, tokenService,
		gateway, cfg.Plans, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, db,
		tokenService, subscriptionService, paymentService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.ch != nil {
			a.ch.Close()
		}
		if a.conn != nil {
			a.conn.Close()
		}
		a.db.DB.Close()
		return err
	}
}
