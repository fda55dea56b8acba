// Package payment реализует платёжный журнал: создание платежей через
// платёжный шлюз и приведение их в терминальное состояние с выдачей
// подписки и токена доступа.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/paymentprovider"
)

// Repository описывает операции хранилища над платёжным журналом.
type Repository interface {
	EnsureUser(ctx context.Context, id int64, username string) error
	CreatePayment(ctx context.Context, p models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	MarkPaymentTerminal(ctx context.Context, paymentID string, status models.PaymentStatus) (*models.Payment, error)
	SetPaymentGatewayID(ctx context.Context, paymentID, gatewayID string) error
	FindPaymentByGatewayID(ctx context.Context, gatewayID string) (*models.Payment, error)
	ListPendingPayments(ctx context.Context) ([]*models.Payment, error)
}

// Lifecycle описывает выдачу подписки по успешному платежу.
type Lifecycle interface {
	ActivateOrExtend(ctx context.Context, userID int64, planDays int,
		paymentID *string) (*models.Subscription, error)
	PlanTypeForDays(planDays int) models.PlanType
}

// TokenIssuer выдает ссылку с токеном доступа после успешного платежа.
type TokenIssuer interface {
	VerificationURL(ctx context.Context, userID int64, username string, planDays int) (string, string, error)
}

// Service управляет платёжным журналом.
type Service struct {
	repo      Repository
	lifecycle Lifecycle
	tokens    TokenIssuer
	gateway   paymentprovider.Gateway
	plans     config.Plans
	log       *slog.Logger
}

// New создает новый Service.
func New(repo Repository, lifecycle Lifecycle, tokens TokenIssuer,
	gateway paymentprovider.Gateway, plans config.Plans, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		lifecycle: lifecycle,
		tokens:    tokens,
		gateway:   gateway,
		plans:     plans,
		log:       log,
	}
}

// CreateResult — результат создания платежа.
type CreateResult struct {
	PaymentID       string
	ConfirmationURL string
}

// Create регистрирует pending-платёж и создаёт его у платёжного шлюза.
// Запись в журнале появляется до обращения к шлюзу: упавший запрос к шлюзу
// оставляет платёж в pending, и его можно довести вручную.
func (s *Service) Create(ctx context.Context, userID int64, plan, method string) (*CreateResult, error) {
	const op = "services.payment.Create"

	planDays := s.plans.PlanDaysFor(plan)
	if planDays <= 0 {
		return nil, fmt.Errorf("%s: unknown plan %q: %w", op, plan, errs.ErrMalformedInput)
	}

	// Первым контактом пользователя может быть именно покупка, поэтому
	// запись о нём создаётся до платежа.
	if err := s.repo.EnsureUser(ctx, userID, ""); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := models.Payment{
		PaymentID: uuid.NewString(),
		UserID:    userID,
		PlanType:  s.lifecycle.PlanTypeForDays(planDays),
		PlanDays:  planDays,
		Amount:    s.plans.PriceFor(plan),
		Currency:  s.plans.Currency,
		Method:    method,
		Status:    models.PaymentPending,
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	charge, err := s.gateway.CreateCharge(ctx, paymentprovider.ChargeRequest{
		PaymentID:   p.PaymentID,
		UserID:      userID,
		Description: fmt.Sprintf("Subscription %s (%d days)", p.PlanType, planDays),
		Amount:      p.Amount,
		Currency:    p.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, errs.ErrUpstreamUnavailable, err)
	}
	if charge.GatewayID != "" {
		if err := s.repo.SetPaymentGatewayID(ctx, p.PaymentID, charge.GatewayID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return &CreateResult{PaymentID: p.PaymentID, ConfirmationURL: charge.ConfirmationURL}, nil
}

// MarkTerminal переводит платёж в терминальное состояние.
//
// Переход выполняется атомарно на уровне хранилища и допускается ровно
// один раз: повторная доставка того же события возвращает
// errs.ErrInvalidTransition, и вызывающая сторона трактует её как no-op.
// Подписка и токен доступа выдаются только на том вызове, который реально
// совершил переход — так дубликаты webhook-ов не приводят к двойному
// продлению.
func (s *Service) MarkTerminal(ctx context.Context, paymentID string, status models.PaymentStatus) (*models.Payment, error) {
	const op = "services.payment.MarkTerminal"

	if !status.IsTerminal() {
		return nil, fmt.Errorf("%s: status %q is not terminal: %w", op, status, errs.ErrMalformedInput)
	}

	p, err := s.repo.MarkPaymentTerminal(ctx, paymentID, status)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidTransition) {
			s.log.Info("payment already terminal, ignoring duplicate event",
				slog.String("payment_id", paymentID), slog.String("status", string(status)))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment marked terminal",
		slog.String("payment_id", p.PaymentID),
		slog.String("status", string(p.Status)),
		sl.UserID(p.UserID))

	if !p.Status.GrantsAccess() {
		return p, nil
	}

	if _, err := s.lifecycle.ActivateOrExtend(ctx, p.UserID, p.PlanDays, &p.PaymentID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// Доставка ссылки пользователю лежит вне движка, поэтому неудача выдачи
	// токена не откатывает платёж: пользователь запросит токен повторно.
	_, url, err := s.tokens.VerificationURL(ctx, p.UserID, "", p.PlanDays)
	if err != nil {
		s.log.Error("failed to issue grant token after payment",
			slog.String("payment_id", p.PaymentID), sl.UserID(p.UserID), sl.Err(err))
		return p, nil
	}
	s.log.Info("grant token issued after payment",
		slog.String("payment_id", p.PaymentID), slog.String("verification_url", url))
	return p, nil
}

// MarkTerminalFromGateway обрабатывает событие платёжного шлюза: статус из
// словаря шлюза нормализуется к доменному, платёж ищется по внутреннему
// идентификатору из метаданных, а при его отсутствии — по идентификатору
// шлюза.
func (s *Service) MarkTerminalFromGateway(ctx context.Context, metadataPaymentID, gatewayID,
	gatewayStatus string) (*models.Payment, error) {
	const op = "services.payment.MarkTerminalFromGateway"

	paymentID := metadataPaymentID
	if paymentID == "" {
		if gatewayID == "" {
			return nil, fmt.Errorf("%s: no payment reference in event: %w", op, errs.ErrMalformedInput)
		}
		p, err := s.repo.FindPaymentByGatewayID(ctx, gatewayID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		paymentID = p.PaymentID
	}

	p, err := s.MarkTerminal(ctx, paymentID, s.gateway.NormalizeStatus(gatewayStatus))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Get возвращает платёж по внутреннему идентификатору.
func (s *Service) Get(ctx context.Context, paymentID string) (*models.Payment, error) {
	const op = "services.payment.Get"
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPending возвращает все платежи, ожидающие решения.
func (s *Service) ListPending(ctx context.Context) ([]*models.Payment, error) {
	const op = "services.payment.ListPending"
	payments, err := s.repo.ListPendingPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}
