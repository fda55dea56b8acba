package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

const paymentColumns = `payment_id, user_id, plan_type, plan_days, amount,
			      currency, method, status, gateway_id, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.PaymentID, &p.UserID, &p.PlanType, &p.PlanDays, &p.Amount,
		&p.Currency, &p.Method, &p.Status, &p.GatewayID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment вставляет новую запись платежа в состоянии pending.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) error {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (payment_id, user_id, plan_type, plan_days, amount,
			      currency, method, status, gateway_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, now(), now())`
	_, err := s.DB.ExecContext(ctx, query,
		p.PaymentID, p.UserID, p.PlanType, p.PlanDays, p.Amount,
		p.Currency, p.Method, p.GatewayID)
	if err != nil {
		return wrapQueryErr(op, err)
	}
	return nil
}

// GetPayment возвращает запись платежа по идентификатору.
func (s *Storage) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, paymentID))
	if err != nil {
		return nil, wrapQueryErr(op, err)
	}
	return p, nil
}

// MarkPaymentTerminal атомарно переводит платёж из pending в терминальное
// состояние и возвращает обновлённую запись. Условие status = 'pending'
// в запросе — граница идемпотентности: повторный вызов для уже
// терминального платежа возвращает errs.ErrInvalidTransition, для
// неизвестного — errs.ErrNotFound.
func (s *Storage) MarkPaymentTerminal(ctx context.Context, paymentID string,
	status models.PaymentStatus) (*models.Payment, error) {
	const op = "storage.MarkPaymentTerminal"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $2, updated_at = now()
			  WHERE payment_id = $1 AND status = 'pending'
			  RETURNING ` + paymentColumns
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, paymentID, status))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapQueryErr(op, err)
	}

	// Условный UPDATE не нашёл строку: различаем отсутствующий платёж
	// и платёж, уже находящийся в терминальном состоянии. Сбой самой
	// проверки не выдается за отсутствие платежа, иначе временная ошибка
	// хранилища стала бы невосстановимой для повторной доставки webhook.
	if _, getErr := s.GetPayment(ctx, paymentID); getErr != nil {
		if errors.Is(getErr, errs.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
		}
		return nil, getErr
	}
	return nil, fmt.Errorf("%s: %w", op, errs.ErrInvalidTransition)
}

// SetPaymentGatewayID сохраняет идентификатор платежа на стороне шлюза.
func (s *Storage) SetPaymentGatewayID(ctx context.Context, paymentID, gatewayID string) error {
	const op = "storage.SetPaymentGatewayID"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE payments SET gateway_id = $2, updated_at = now() WHERE payment_id = $1`,
		paymentID, gatewayID)
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

// FindPaymentByGatewayID возвращает платёж по идентификатору шлюза.
func (s *Storage) FindPaymentByGatewayID(ctx context.Context, gatewayID string) (*models.Payment, error) {
	const op = "storage.FindPaymentByGatewayID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, gatewayID))
	if err != nil {
		return nil, wrapQueryErr(op, err)
	}
	return p, nil
}

// ListPendingPayments возвращает платежи, ожидающие решения.
// Используется очередью ручной проверки администратора.
func (s *Storage) ListPendingPayments(ctx context.Context) ([]*models.Payment, error) {
	const op = "storage.ListPendingPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE status = 'pending'
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapQueryErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, wrapQueryErr(op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr(op, err)
	}
	return result, nil
}
