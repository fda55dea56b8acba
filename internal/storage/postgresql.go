// Package storage реализует хранилище данных на основе PostgreSQL:
// пользователи, подписки, платёжный журнал и сохранённые копии токенов.
//
// Всё критичное для корректности упорядочивание конкурентных мутаций
// выполняется здесь атомарными условными запросами: upsert продления
// подписки, условный перевод платежа в терминальное состояние и
// одноразовое погашение токена.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscriptions'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table subscriptions missing or query error: %w", err)
	}
	return nil
}

// wrapQueryErr приводит ошибки запросов к доменной таксономии:
// отсутствие строк — errs.ErrNotFound, остальное — errs.ErrUpstreamUnavailable.
func wrapQueryErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, errs.ErrUpstreamUnavailable, err)
}

// ===== USER METHODS =====

// EnsureUser создаёт пользователя при первом обращении либо обновляет
// имя и время последней активности существующего.
func (s *Storage) EnsureUser(ctx context.Context, id int64, username string) error {
	const op = "storage.EnsureUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (id, username, created_at, last_active_at)
			  VALUES ($1, $2, now(), now())
			  ON CONFLICT (id) DO UPDATE
			  SET username = CASE WHEN $2 <> '' THEN $2 ELSE users.username END,
			      last_active_at = now()`
	if _, err := s.DB.ExecContext(ctx, query, id, username); err != nil {
		return wrapQueryErr(op, err)
	}
	return nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, created_at, last_active_at, is_banned
			  FROM users WHERE id = $1`
	var user models.User
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.CreatedAt, &user.LastActiveAt, &user.IsBanned)
	if err != nil {
		return nil, wrapQueryErr(op, err)
	}
	return &user, nil
}

// SetUserBanned выставляет признак блокировки пользователя.
func (s *Storage) SetUserBanned(ctx context.Context, id int64, banned bool) error {
	const op = "storage.SetUserBanned"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET is_banned = $2 WHERE id = $1`, id, banned)
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
