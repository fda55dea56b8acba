package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

const subscriptionColumns = `user_id, plan_type, status, start_date, end_date,
			      payment_id, last_reminder_days, last_reminder_at`

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(&sub.UserID, &sub.PlanType, &sub.Status, &sub.StartDate,
		&sub.EndDate, &sub.PaymentID, &sub.LastReminderDays, &sub.LastReminderAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscription возвращает запись подписки пользователя.
func (s *Storage) GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions WHERE user_id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, wrapQueryErr(op, err)
	}
	return sub, nil
}

// GrantOrExtendSubscription активирует или продлевает подписку одним
// атомарным upsert-запросом. Если подписка активна и имеет срок в будущем,
// новый срок считается от текущего end_date, иначе — от now().
// planDays <= 0 означает бесплатный бессрочный тариф (end_date NULL).
//
// Атомарность запроса и есть требуемая сериализация мутаций по
// пользователю: два конкурентных продления не могут прочитать один и тот
// же устаревший end_date.
func (s *Storage) GrantOrExtendSubscription(ctx context.Context, userID int64, planDays int,
	planType models.PlanType, paymentID *string) (*models.Subscription, error) {
	const op = "storage.GrantOrExtendSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, plan_type, status, start_date, end_date,
			      payment_id, last_reminder_days, last_reminder_at)
			  VALUES ($1, $2, 'active', now(),
			      CASE WHEN $3 <= 0 THEN NULL ELSE now() + make_interval(days => $3) END,
			      $4, NULL, NULL)
			  ON CONFLICT (user_id) DO UPDATE
			  SET plan_type = EXCLUDED.plan_type,
			      status = 'active',
			      start_date = CASE
			          WHEN subscriptions.status = 'active'
			               AND subscriptions.end_date IS NOT NULL
			               AND subscriptions.end_date > now()
			          THEN subscriptions.start_date
			          ELSE now() END,
			      end_date = CASE
			          WHEN $3 <= 0 THEN NULL
			          WHEN subscriptions.status = 'active'
			               AND subscriptions.end_date IS NOT NULL
			               AND subscriptions.end_date > now()
			          THEN subscriptions.end_date + make_interval(days => $3)
			          ELSE now() + make_interval(days => $3) END,
			      payment_id = EXCLUDED.payment_id,
			      last_reminder_days = NULL,
			      last_reminder_at = NULL
			  RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID, planType, planDays, paymentID))
	if err != nil {
		return nil, wrapQueryErr(op, err)
	}
	return sub, nil
}

// RevokeSubscription немедленно переводит подписку в состояние cancelled.
func (s *Storage) RevokeSubscription(ctx context.Context, userID int64) error {
	const op = "storage.RevokeSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'cancelled' WHERE user_id = $1`, userID)
	if err != nil {
		return wrapQueryErr(op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapQueryErr(op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}

// ExpireOverdueSubscriptions переводит в состояние expired все активные
// подписки с истёкшим сроком и возвращает затронутые записи.
func (s *Storage) ExpireOverdueSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.ExpireOverdueSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = 'expired'
			  WHERE status = 'active' AND end_date IS NOT NULL AND end_date < now()
			  RETURNING ` + subscriptionColumns
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapQueryErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, wrapQueryErr(op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr(op, err)
	}
	return result, nil
}

// ListOverdueSubscriptions возвращает активные подписки с истёкшим сроком,
// не изменяя их. Используется при выключенном auto_revoke_expired.
func (s *Storage) ListOverdueSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.ListOverdueSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = 'active' AND end_date IS NOT NULL AND end_date < now()`
	return s.querySubscriptions(ctx, op, query)
}

// ListExpiringSubscriptions возвращает активные подписки, срок которых
// истекает в пределах windowDays дней от текущего момента.
func (s *Storage) ListExpiringSubscriptions(ctx context.Context, windowDays int) ([]*models.Subscription, error) {
	const op = "storage.ListExpiringSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = 'active'
			    AND end_date IS NOT NULL
			    AND end_date >= now()
			    AND end_date <= now() + make_interval(days => $1)`
	return s.querySubscriptions(ctx, op, query, windowDays)
}

// ClaimReminder атомарно фиксирует отправку напоминания о пороге
// thresholdDays. Возвращает true, если напоминание для этого порога ещё
// не отправлялось; повторный вызов для того же или большего порога даёт false.
func (s *Storage) ClaimReminder(ctx context.Context, userID int64, thresholdDays int) (bool, error) {
	const op = "storage.ClaimReminder"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET last_reminder_days = $2, last_reminder_at = now()
			  WHERE user_id = $1
			    AND status = 'active'
			    AND (last_reminder_days IS NULL OR last_reminder_days > $2)`
	result, err := s.DB.ExecContext(ctx, query, userID, thresholdDays)
	if err != nil {
		return false, wrapQueryErr(op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, wrapQueryErr(op, err)
	}
	return affected == 1, nil
}

func (s *Storage) querySubscriptions(ctx context.Context, op, query string, args ...any) ([]*models.Subscription, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, wrapQueryErr(op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr(op, err)
	}
	return result, nil
}
