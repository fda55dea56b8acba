package models

import "time"

// NotificationKind определяет тип уведомления пользователя.
type NotificationKind string

// Типы уведомлений, публикуемых в очередь.
const (
	NotificationActivated NotificationKind = "activated"
	NotificationExpiring  NotificationKind = "expiring"
	NotificationExpired   NotificationKind = "expired"
	NotificationRevoked   NotificationKind = "revoked"
)

// NotificationEvent — сообщение для сервиса отправки уведомлений.
// Публикуется в очередь по принципу fire-and-forget: ошибка публикации
// логируется и не влияет на породившую её операцию.
type NotificationEvent struct {
	Kind     NotificationKind `json:"kind"`
	UserID   int64            `json:"user_id"`
	Email    string           `json:"email,omitempty"`
	Plan     PlanType         `json:"plan,omitempty"`
	EndDate  *time.Time       `json:"end_date,omitempty"`
	DaysLeft int              `json:"days_left,omitempty"`
}
