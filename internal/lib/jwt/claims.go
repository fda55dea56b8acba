package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims описывает данные, хранящиеся в сессионном токене.
type SessionClaims struct {
	UserID               int64  `json:"user_id"`           // Идентификатор пользователя
	Username             string `json:"username"`          // Имя пользователя
	SubscriptionDays     int    `json:"subscription_days"` // Срок подписки в днях
	jwt.RegisteredClaims        // Стандартные claims (ExpiresAt, IssuedAt)
}

// GenerateToken создаёт сессионный токен, подписанный секретным ключом.
// Время жизни равно сроку подписки в днях, ограниченному сверху maxTTL.
func (j *MakerImpl) GenerateToken(userID int64, username string, subscriptionDays int) (string, error) {
	ttl := time.Duration(subscriptionDays) * 24 * time.Hour
	if ttl <= 0 || ttl > j.maxTTL {
		ttl = j.maxTTL
	}
	claims := SessionClaims{
		UserID:           userID,
		Username:         username,
		SubscriptionDays: subscriptionDays,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken проверяет подпись и срок действия токена,
// возвращает SessionClaims, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*SessionClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
