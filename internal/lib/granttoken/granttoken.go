// Package granttoken реализует кодек одноразовых токенов доступа.
//
// Токен самодостаточен: полезная нагрузка сериализуется в JSON, кодируется
// base64url и подписывается HMAC-SHA256 серверным секретом. Формат на проводе:
//
//	base64url(json(payload)) + "." + hex(hmac_sha256(secret, base64url(json(payload))))
//
// Проверка целостности не требует обращения к хранилищу; одноразовость
// обеспечивается отдельно через сохранённую копию (services/token).
package granttoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payload — полезная нагрузка токена доступа.
// Все отметки времени — целые секунды эпохи.
type Payload struct {
	UserID    int64  `json:"user_id"`
	PlanDays  int    `json:"plan_days"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
	Nonce     string `json:"uuid"`
}

// Codec подписывает и проверяет токены доступа одним серверным секретом.
type Codec struct {
	secret []byte
}

// New создаёт кодек с заданным секретом.
func New(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue формирует подписанный токен для пользователя на planDays дней подписки.
// Срок действия токена равен now + ttl.
func (c *Codec) Issue(userID int64, planDays int, now time.Time, ttl time.Duration) (string, Payload, error) {
	const op = "granttoken.Issue"
	payload := Payload{
		UserID:    userID,
		PlanDays:  planDays,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Nonce:     uuid.NewString(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", Payload{}, fmt.Errorf("%s: %w", op, err)
	}
	encoded := base64.URLEncoding.EncodeToString(raw)
	return encoded + "." + c.sign(encoded), payload, nil
}

// Decode проверяет подпись и срок действия токена и возвращает полезную
// нагрузку. Ошибка описывает конкретную причину отказа — она предназначена
// для логирования, вызывающая сторона сводит все причины к единому отказу.
func (c *Codec) Decode(token string, now time.Time) (*Payload, error) {
	const op = "granttoken.Decode"

	encoded, signature, found := strings.Cut(token, ".")
	if !found || encoded == "" || signature == "" {
		return nil, fmt.Errorf("%s: malformed token", op)
	}
	if !hmac.Equal([]byte(c.sign(encoded)), []byte(signature)) {
		return nil, fmt.Errorf("%s: signature mismatch", op)
	}

	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// Граница срока действия исключающая: now >= expires_at — токен истёк.
	if now.Unix() >= payload.ExpiresAt {
		return nil, fmt.Errorf("%s: token expired", op)
	}
	return &payload, nil
}

func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
