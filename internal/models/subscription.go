package models

import "time"

// PlanType определяет уровень тарифного плана подписки.
type PlanType string

// Поддерживаемые тарифные планы.
const (
	PlanFree     PlanType = "free"
	PlanBasic    PlanType = "basic"
	PlanStandard PlanType = "standard"
	PlanPremium  PlanType = "premium"
	PlanCustom   PlanType = "custom"
)

// SubscriptionStatus определяет состояние подписки.
type SubscriptionStatus string

// Возможные состояния подписки.
const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription представляет текущую подписку пользователя.
// На одного пользователя приходится не более одной авторитетной записи.
// Поле EndDate равно nil для бессрочной подписки (бесплатный тариф).
type Subscription struct {
	UserID           int64              // Владелец подписки
	PlanType         PlanType           // Тарифный план
	Status           SubscriptionStatus // Состояние подписки
	StartDate        time.Time          // Дата начала
	EndDate          *time.Time         // Дата окончания, nil — бессрочно
	PaymentID        *string            // Платёж, породивший подписку (nil для бесплатной)
	LastReminderDays *int               // Порог последнего отправленного напоминания (7/3/1)
	LastReminderAt   *time.Time         // Время последнего напоминания
}

// IsActiveAt сообщает, действует ли подписка в момент now.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	if s.EndDate == nil {
		return true
	}
	return now.Before(*s.EndDate)
}

// SubscriptionStatusInfo — ответ на запрос статуса подписки.
// Для пользователя без записи возвращается синтетический бесплатный тариф.
type SubscriptionStatusInfo struct {
	UserID          int64      `json:"user_id"`
	Plan            PlanType   `json:"plan"`
	IsActive        bool       `json:"is_active"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	AllowedCommands []string   `json:"allowed_commands"` // ["*"] — без ограничений
}

// AllowsCommand проверяет доступность команды для данного статуса подписки.
// Неактивная подписка не блокирует команды бесплатного уровня: список
// AllowedCommands уже сужен до них при построении статуса.
func (i *SubscriptionStatusInfo) AllowsCommand(command string) bool {
	for _, cmd := range i.AllowedCommands {
		if cmd == "*" || cmd == command {
			return true
		}
	}
	return false
}

// RenewalOption описывает доступный вариант продления подписки.
type RenewalOption struct {
	Plan     PlanType `json:"plan"`
	Days     int      `json:"days"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
}
