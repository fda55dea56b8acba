package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// SaveGrantToken сохраняет копию выданного токена для контроля
// одноразового погашения.
func (s *Storage) SaveGrantToken(ctx context.Context, token models.GrantToken) error {
	const op = "storage.SaveGrantToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO grant_tokens (token, user_id, plan_days, expires_at, is_used, created_at)
			  VALUES ($1, $2, $3, $4, false, now())`
	_, err := s.DB.ExecContext(ctx, query,
		token.Token, token.UserID, token.PlanDays, token.ExpiresAt)
	if err != nil {
		return wrapQueryErr(op, err)
	}
	return nil
}

// ConsumeGrantToken атомарно помечает токен погашенным. Возвращает true
// только для первого успешного вызова по ещё не истёкшему токену; гонка
// двух одновременных погашений разрешается условием is_used = false.
func (s *Storage) ConsumeGrantToken(ctx context.Context, token string) (bool, error) {
	const op = "storage.ConsumeGrantToken"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE grant_tokens
			  SET is_used = true, used_at = now()
			  WHERE token = $1 AND is_used = false AND expires_at > now()`
	result, err := s.DB.ExecContext(ctx, query, token)
	if err != nil {
		return false, wrapQueryErr(op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, wrapQueryErr(op, err)
	}
	return affected == 1, nil
}

// GetGrantToken возвращает сохранённую копию токена.
func (s *Storage) GetGrantToken(ctx context.Context, token string) (*models.GrantToken, error) {
	const op = "storage.GetGrantToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT token, user_id, plan_days, expires_at, is_used, used_at, created_at
			  FROM grant_tokens WHERE token = $1`
	var gt models.GrantToken
	err := s.DB.QueryRowContext(ctx, query, token).Scan(
		&gt.Token, &gt.UserID, &gt.PlanDays, &gt.ExpiresAt, &gt.IsUsed, &gt.UsedAt, &gt.CreatedAt)
	if err != nil {
		return nil, wrapQueryErr(op, err)
	}
	return &gt, nil
}

// PurgeExpiredGrantTokens удаляет копии токенов, истёкшие раньше, чем
// retention назад, и возвращает количество удалённых записей.
func (s *Storage) PurgeExpiredGrantTokens(ctx context.Context, retention time.Duration) (int, error) {
	const op = "storage.PurgeExpiredGrantTokens"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM grant_tokens
			  WHERE expires_at < now() - make_interval(secs => $1)`
	result, err := s.DB.ExecContext(ctx, query, retention.Seconds())
	if err != nil {
		return 0, wrapQueryErr(op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapQueryErr(op, err)
	}
	return int(affected), nil
}
