package models

import "time"

// PaymentStatus определяет состояние платежа.
type PaymentStatus string

// Возможные состояния платежа. Переход допускается только из pending
// ровно в одно терминальное состояние.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentApproved  PaymentStatus = "approved"
	PaymentRejected  PaymentStatus = "rejected"
)

// IsTerminal сообщает, является ли состояние терминальным.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentPending
}

// GrantsAccess сообщает, даёт ли терминальное состояние право на подписку.
func (s PaymentStatus) GrantsAccess() bool {
	return s == PaymentSuccess || s == PaymentApproved
}

// Payment представляет запись платёжного журнала.
// Записи никогда не удаляются — журнал служит финансовым аудитом.
type Payment struct {
	PaymentID string        // Глобально уникальный идентификатор (uuid)
	UserID    int64         // Плательщик
	PlanType  PlanType      // Оплачиваемый тарифный план
	PlanDays  int           // Количество дней подписки
	Amount    float64       // Сумма платежа
	Currency  string        // Валюта
	Method    string        // Способ оплаты (card, manual, ...)
	Status    PaymentStatus // Текущее состояние
	GatewayID *string       // Идентификатор платежа на стороне шлюза
	CreatedAt time.Time
	UpdatedAt time.Time
}
