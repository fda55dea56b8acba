// Package paymentprovider определяет интерфейс платёжного шлюза и его
// реализации. Вариант шлюза выбирается один раз при конфигурировании;
// остальной код работает только с интерфейсом Gateway.
package paymentprovider

import (
	"context"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// ChargeRequest описывает запрос на создание платежа у шлюза.
type ChargeRequest struct {
	PaymentID   string  // Внутренний идентификатор платежа (идемпотентный ключ)
	UserID      int64   // Плательщик
	Description string  // Назначение платежа
	Amount      float64 // Сумма
	Currency    string  // Валюта
	ReturnURL   string  // Куда вернуть пользователя после оплаты
}

// Charge — результат создания платежа у шлюза.
type Charge struct {
	GatewayID       string // Идентификатор платежа на стороне шлюза
	ConfirmationURL string // Ссылка для подтверждения оплаты пользователем
}

// Gateway — единый интерфейс платёжного шлюза: создание платежа и
// нормализация словаря статусов шлюза к доменному набору.
type Gateway interface {
	// CreateCharge создаёт платёж у шлюза и возвращает ссылку для оплаты.
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	// NormalizeStatus переводит статус из словаря шлюза в доменный.
	NormalizeStatus(gatewayStatus string) models.PaymentStatus
}
