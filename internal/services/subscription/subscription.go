// Package subscription реализует жизненный цикл подписок: выдачу и
// продление, отзыв, плановое истечение и напоминания об окончании срока.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// statusCacheTTL ограничивает жизнь кешированной записи на случай,
// когда инвалидация по какой-то причине не дошла до Redis.
const statusCacheTTL = time.Hour

// Repository описывает операции хранилища, необходимые сервису подписок.
type Repository interface {
	GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	GrantOrExtendSubscription(ctx context.Context, userID int64, planDays int,
		planType models.PlanType, paymentID *string) (*models.Subscription, error)
	RevokeSubscription(ctx context.Context, userID int64) error
	ExpireOverdueSubscriptions(ctx context.Context) ([]*models.Subscription, error)
	ListOverdueSubscriptions(ctx context.Context) ([]*models.Subscription, error)
	ListExpiringSubscriptions(ctx context.Context, windowDays int) ([]*models.Subscription, error)
	ClaimReminder(ctx context.Context, userID int64, thresholdDays int) (bool, error)
}

// Cache описывает кеш статусов подписок.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Notifier публикует события подписки. Все методы fire-and-forget.
type Notifier interface {
	NotifyActivated(userID int64, plan models.PlanType, endDate *time.Time)
	NotifyExpiring(userID int64, daysLeft int)
	NotifyExpired(userID int64, plan models.PlanType)
	NotifyRevoked(userID int64)
}

// Service управляет подписками пользователей.
type Service struct {
	repo     Repository
	cache    Cache
	notifier Notifier
	plans    config.Plans
	policy   config.Policy
	log      *slog.Logger
}

// New создает новый Service.
func New(repo Repository, cache Cache, notifier Notifier,
	plans config.Plans, policy config.Policy, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		plans:    plans,
		policy:   policy,
		log:      log,
	}
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("subscription:%d", userID)
}

// PlanTypeForDays возвращает тарифный план, соответствующий сроку в днях.
func (s *Service) PlanTypeForDays(planDays int) models.PlanType {
	switch planDays {
	case 0:
		return models.PlanFree
	case s.plans.BasicDays:
		return models.PlanBasic
	case s.plans.StandardDays:
		return models.PlanStandard
	case s.plans.PremiumDays:
		return models.PlanPremium
	default:
		return models.PlanCustom
	}
}

// GetStatus возвращает статус подписки пользователя.
//
// Чтение идет через кеш. Кешированная запись дополнительно проверяется
// на актуальность по EndDate: протухшая запись отбрасывается и статус
// перечитывается из хранилища. Для пользователя без записи возвращается
// синтетический бесплатный тариф, в хранилище ничего не пишется.
func (s *Service) GetStatus(ctx context.Context, userID int64) (*models.SubscriptionStatusInfo, error) {
	const op = "services.subscription.GetStatus"

	var cached models.Subscription
	found, err := s.cache.Get(cacheKey(userID), &cached)
	if err != nil {
		s.log.Warn("cache read failed, falling back to storage", sl.UserID(userID), sl.Err(err))
	}
	if found {
		if cached.IsActiveAt(time.Now()) {
			return s.statusInfo(&cached), nil
		}
		if err := s.cache.Invalidate(cacheKey(userID)); err != nil {
			s.log.Warn("failed to invalidate stale cache entry", sl.UserID(userID), sl.Err(err))
		}
	}

	sub, err := s.repo.GetSubscription(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return s.freeDefault(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sub.IsActiveAt(time.Now()) {
		if err := s.cache.Set(cacheKey(userID), sub, statusCacheTTL); err != nil {
			s.log.Warn("failed to cache subscription", sl.UserID(userID), sl.Err(err))
		}
	}
	return s.statusInfo(sub), nil
}

// ActivateOrExtend выдает новую подписку или продлевает действующую.
//
// Действующая подписка продлевается от текущего end_date, любая другая
// запись перезаписывается новым сроком от текущего момента. planDays <= 0
// означает бессрочный бесплатный тариф.
func (s *Service) ActivateOrExtend(ctx context.Context, userID int64, planDays int,
	paymentID *string) (*models.Subscription, error) {
	const op = "services.subscription.ActivateOrExtend"

	planType := s.PlanTypeForDays(planDays)
	sub, err := s.repo.GrantOrExtendSubscription(ctx, userID, planDays, planType, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(cacheKey(userID), sub, statusCacheTTL); err != nil {
		s.log.Warn("failed to refresh subscription cache", sl.UserID(userID), sl.Err(err))
	}
	s.notifier.NotifyActivated(userID, sub.PlanType, sub.EndDate)
	return sub, nil
}

// Revoke немедленно отзывает подписку пользователя.
// Кеш инвалидируется и до записи в хранилище, и после неё: пока запись
// идёт, конкурентное чтение статуса может перечитать ещё активную строку
// и вернуть её в кеш, поэтому одной инвалидации до записи недостаточно.
func (s *Service) Revoke(ctx context.Context, userID int64) error {
	const op = "services.subscription.Revoke"

	if err := s.cache.Invalidate(cacheKey(userID)); err != nil {
		s.log.Warn("failed to invalidate subscription cache", sl.UserID(userID), sl.Err(err))
	}
	if err := s.repo.RevokeSubscription(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(cacheKey(userID)); err != nil {
		s.log.Warn("failed to invalidate subscription cache", sl.UserID(userID), sl.Err(err))
	}
	s.notifier.NotifyRevoked(userID)
	return nil
}

// SweepExpired переводит все просроченные подписки в состояние expired
// и возвращает число обработанных записей.
//
// При выключенном auto_revoke_expired подписки не трогаются, даже если
// срок вышел. При включенном free_tier_fallback каждая истекшая подписка
// заменяется бессрочной бесплатной.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	const op = "services.subscription.SweepExpired"

	if !s.policy.AutoRevokeExpired {
		overdue, err := s.repo.ListOverdueSubscriptions(ctx)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		if len(overdue) > 0 {
			s.log.Info("auto-revoke disabled, leaving overdue subscriptions untouched",
				slog.Int("count", len(overdue)))
		}
		return 0, nil
	}

	expired, err := s.repo.ExpireOverdueSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, sub := range expired {
		if err := s.cache.Invalidate(cacheKey(sub.UserID)); err != nil {
			s.log.Warn("failed to invalidate subscription cache", sl.UserID(sub.UserID), sl.Err(err))
		}
		if s.policy.FreeTierFallback {
			if _, err := s.repo.GrantOrExtendSubscription(ctx, sub.UserID, 0, models.PlanFree, nil); err != nil {
				s.log.Error("failed to downgrade expired subscription to free tier",
					sl.UserID(sub.UserID), sl.Err(err))
			}
		}
		s.notifier.NotifyExpired(sub.UserID, sub.PlanType)
	}
	return len(expired), nil
}

// reminderThresholds — пороги напоминаний в днях до окончания подписки.
// Каждый порог срабатывает не более одного раза.
var reminderThresholds = [...]int{1, 3, 7}

// SendDueReminders отправляет напоминания об истекающих подписках
// и возвращает число отправленных уведомлений.
func (s *Service) SendDueReminders(ctx context.Context) (int, error) {
	const op = "services.subscription.SendDueReminders"

	maxWindow := reminderThresholds[len(reminderThresholds)-1]
	expiring, err := s.repo.ListExpiringSubscriptions(ctx, maxWindow)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	sent := 0
	now := time.Now()
	for _, sub := range expiring {
		if sub.EndDate == nil {
			continue
		}
		daysLeft := daysUntil(now, *sub.EndDate)
		threshold, ok := thresholdFor(daysLeft)
		if !ok {
			continue
		}
		claimed, err := s.repo.ClaimReminder(ctx, sub.UserID, threshold)
		if err != nil {
			s.log.Error("failed to claim reminder", sl.UserID(sub.UserID), sl.Err(err))
			continue
		}
		if !claimed {
			continue
		}
		s.notifier.NotifyExpiring(sub.UserID, daysLeft)
		sent++
	}
	return sent, nil
}

// ListExpiring возвращает активные подписки, истекающие в ближайшие windowDays дней.
func (s *Service) ListExpiring(ctx context.Context, windowDays int) ([]*models.Subscription, error) {
	const op = "services.subscription.ListExpiring"
	subs, err := s.repo.ListExpiringSubscriptions(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// CheckCommandAccess проверяет, доступна ли пользователю команда бота.
func (s *Service) CheckCommandAccess(ctx context.Context, userID int64, command string) (bool, error) {
	const op = "services.subscription.CheckCommandAccess"
	info, err := s.GetStatus(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return info.AllowsCommand(command), nil
}

// RenewalOptions возвращает доступные варианты продления подписки.
func (s *Service) RenewalOptions() []models.RenewalOption {
	return []models.RenewalOption{
		{Plan: models.PlanBasic, Days: s.plans.BasicDays, Price: s.plans.BasicPrice, Currency: s.plans.Currency},
		{Plan: models.PlanStandard, Days: s.plans.StandardDays, Price: s.plans.StandardPrice, Currency: s.plans.Currency},
		{Plan: models.PlanPremium, Days: s.plans.PremiumDays, Price: s.plans.PremiumPrice, Currency: s.plans.Currency},
	}
}

func (s *Service) statusInfo(sub *models.Subscription) *models.SubscriptionStatusInfo {
	info := &models.SubscriptionStatusInfo{
		UserID:    sub.UserID,
		Plan:      sub.PlanType,
		IsActive:  sub.IsActiveAt(time.Now()),
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
	}
	if info.IsActive && sub.PlanType != models.PlanFree {
		info.AllowedCommands = []string{"*"}
	} else {
		info.AllowedCommands = append([]string(nil), s.policy.FreeTierCommands...)
	}
	return info
}

// freeDefault — синтетический статус для пользователя без записи о подписке.
func (s *Service) freeDefault(userID int64) *models.SubscriptionStatusInfo {
	return &models.SubscriptionStatusInfo{
		UserID:          userID,
		Plan:            models.PlanFree,
		IsActive:        true,
		StartDate:       time.Now(),
		AllowedCommands: append([]string(nil), s.policy.FreeTierCommands...),
	}
}

// daysUntil возвращает число дней до end с округлением вверх.
func daysUntil(now, end time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// thresholdFor подбирает ближайший порог напоминания для остатка срока.
func thresholdFor(daysLeft int) (int, bool) {
	for _, t := range reminderThresholds {
		if daysLeft <= t {
			return t, true
		}
	}
	return 0, false
}
