package models

import "time"

// GrantToken — сохранённая копия выданного токена доступа.
// Используется для гарантии одноразового погашения: сам токен
// самодостаточен (подпись + срок действия), но без записи в хранилище
// его можно было бы погасить повторно в пределах срока действия.
type GrantToken struct {
	Token     string     // Полное значение токена (payload.signature)
	UserID    int64      // Пользователь, которому выдан токен
	PlanDays  int        // Количество дней подписки, зашитое в токен
	ExpiresAt time.Time  // Срок действия
	IsUsed    bool       // Признак погашения
	UsedAt    *time.Time // Время погашения
	CreatedAt time.Time
}
