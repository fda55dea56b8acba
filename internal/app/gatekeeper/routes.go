package gatekeeper

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/admin/ban"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/admin/decide"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/admin/login"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/subscription/access"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/subscription/options"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/subscription/revoke"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/token/issue"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/handlers/token/validate"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/middlewarectx"
	paymentsvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/payment"
	subscriptionsvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/subscription"
	tokensvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/token"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/storage"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, db *storage.Storage,
	tokenService *tokensvc.Service, subscriptionService *subscriptionsvc.Service,
	paymentService *paymentsvc.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(20), 40)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки: проверка токенов и статусов нужна
		// боту и платёжному шлюзу без сессии администратора.
		r.Post("/tokens/validate", validate.New(logger, tokenService).ServeHTTP)
		r.Get("/subscriptions/options", options.New(logger, subscriptionService).ServeHTTP)
		r.Get("/subscriptions/{userID}", status.New(logger, subscriptionService).ServeHTTP)
		r.Get("/subscriptions/{userID}/access", access.New(logger, subscriptionService).ServeHTTP)
		r.Post("/payments", paymentcreate.New(logger, paymentService).ServeHTTP)
		r.Post("/payments/webhook", paymentwebhook.New(logger, paymentService, cfg.Gateway.WebhookSecret).ServeHTTP)
		r.Post("/admin/login", login.New(logger, tokenService, cfg.Admin).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokenService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Post("/tokens", issue.New(logger, tokenService).ServeHTTP)
			r.Delete("/subscriptions/{userID}", revoke.New(logger, subscriptionService).ServeHTTP)
			r.Get("/payments/pending", paymentlist.New(logger, paymentService).ServeHTTP)
			r.Post("/admin/payments/{paymentID}/decision", decide.New(logger, paymentService).ServeHTTP)
			r.Post("/admin/users/{userID}/ban", ban.New(logger, db).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Get("/health", health.New(logger, db).ServeHTTP)
}
