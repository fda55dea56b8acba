// Package token реализует выдачу и одноразовое погашение токенов доступа,
// а также сессионные JWT для административного API.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/granttoken"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// ErrUserBanned возвращается при попытке выдать токен заблокированному
// пользователю.
var ErrUserBanned = errors.New("user is banned")

// Repository описывает операции хранилища над сохранёнными копиями токенов.
type Repository interface {
	SaveGrantToken(ctx context.Context, token models.GrantToken) error
	ConsumeGrantToken(ctx context.Context, token string) (bool, error)
	PurgeExpiredGrantTokens(ctx context.Context, retention time.Duration) (int, error)
}

// UserRepository описывает операции хранилища над пользователями.
type UserRepository interface {
	EnsureUser(ctx context.Context, id int64, username string) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Service выдает и проверяет токены доступа.
type Service struct {
	codec     *granttoken.Codec
	sessions  jwt.Maker
	repo      Repository
	users     UserRepository
	ttl       time.Duration
	retention time.Duration
	targetBot string
	log       *slog.Logger
}

// New создает новый Service.
func New(codec *granttoken.Codec, sessions jwt.Maker, repo Repository, users UserRepository,
	ttl, retention time.Duration, targetBot string, log *slog.Logger) *Service {
	return &Service{
		codec:     codec,
		sessions:  sessions,
		repo:      repo,
		users:     users,
		ttl:       ttl,
		retention: retention,
		targetBot: targetBot,
		log:       log,
	}
}

// Issue выдает пользователю подписанный одноразовый токен на planDays дней
// подписки и сохраняет его копию для контроля однократного погашения.
func (s *Service) Issue(ctx context.Context, userID int64, username string, planDays int) (string, error) {
	const op = "services.token.Issue"

	if err := s.users.EnsureUser(ctx, userID, username); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.IsBanned {
		return "", fmt.Errorf("%s: %w", op, ErrUserBanned)
	}

	value, payload, err := s.codec.Issue(userID, planDays, time.Now(), s.ttl)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	err = s.repo.SaveGrantToken(ctx, models.GrantToken{
		Token:     value,
		UserID:    userID,
		PlanDays:  planDays,
		ExpiresAt: time.Unix(payload.ExpiresAt, 0),
		CreatedAt: time.Unix(payload.CreatedAt, 0),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

// Validate проверяет и погашает токен доступа.
//
// Проверка двухступенчатая: сначала подпись и срок действия без обращения
// к хранилищу, затем атомарное погашение сохранённой копии. Все причины
// отказа — битый формат, неверная подпись, истёкший срок, повторное
// погашение — снаружи неразличимы и сводятся к errs.ErrTokenInvalid;
// конкретная причина остаётся только в логе.
func (s *Service) Validate(ctx context.Context, token string) (*granttoken.Payload, error) {
	const op = "services.token.Validate"

	payload, err := s.codec.Decode(token, time.Now())
	if err != nil {
		s.log.Info("grant token rejected", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, errs.ErrTokenInvalid)
	}

	consumed, err := s.repo.ConsumeGrantToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !consumed {
		s.log.Info("grant token rejected: already used or unknown", sl.UserID(payload.UserID))
		return nil, fmt.Errorf("%s: %w", op, errs.ErrTokenInvalid)
	}
	return payload, nil
}

// VerificationURL выдает токен и оборачивает его в deep-link целевого бота.
// Возвращает и сам токен, и готовую ссылку: токен выдается ровно один раз.
func (s *Service) VerificationURL(ctx context.Context, userID int64, username string, planDays int) (string, string, error) {
	const op = "services.token.VerificationURL"
	value, err := s.Issue(ctx, userID, username, planDays)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return value, fmt.Sprintf("https://t.me/%s?start=verify_%s", s.targetBot, value), nil
}

// IssueSession выдает сессионный JWT для административного API.
func (s *Service) IssueSession(userID int64, username string, subscriptionDays int) (string, error) {
	const op = "services.token.IssueSession"
	value, err := s.sessions.GenerateToken(userID, username, subscriptionDays)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

// ValidateSession проверяет сессионный JWT.
func (s *Service) ValidateSession(token string) (*jwt.SessionClaims, error) {
	const op = "services.token.ValidateSession"
	claims, err := s.sessions.ParseToken(token)
	if err != nil {
		s.log.Info("session token rejected", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, errs.ErrTokenInvalid)
	}
	return claims, nil
}

// PurgeExpired удаляет сохранённые копии токенов, истекшие дольше срока
// хранения назад. Возвращает число удалённых записей.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	const op = "services.token.PurgeExpired"
	purged, err := s.repo.PurgeExpiredGrantTokens(ctx, s.retention)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return purged, nil
}
