// Package jwt реализует генерацию и проверку сессионных токенов доступа.
//
// Сессионный токен — более долгоживущий вариант токена доступа: он не
// одноразовый, живёт в пределах срока подписки и несёт стандартные
// claims exp/iat. Подписывается HMAC-SHA256 серверным секретом.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и проверки сессионных токенов.
type Maker interface {
	// GenerateToken создаёт токен для пользователя на subscriptionDays дней.
	GenerateToken(userID int64, username string, subscriptionDays int) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*SessionClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа.
// Срок жизни токена равен сроку подписки, но не превышает maxTTL.
type MakerImpl struct {
	secretKey string
	maxTTL    time.Duration
}

// NewMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и
// максимального времени жизни токена.
func NewMaker(secretKey string, maxTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		maxTTL:    maxTTL,
	}
}
