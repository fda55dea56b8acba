package paymentprovider

import (
	"context"
	"strings"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// ManualGateway — вариант шлюза для ручной оплаты с подтверждением
// администратором. Платёж остаётся в pending до решения администратора.
type ManualGateway struct{}

// NewManualGateway создаёт шлюз ручной оплаты.
func NewManualGateway() *ManualGateway {
	return &ManualGateway{}
}

// CreateCharge не обращается к внешнему сервису: идентификатором платежа
// на «стороне шлюза» служит внутренний payment_id, ссылка подтверждения
// ведёт в очередь ручной проверки.
func (g *ManualGateway) CreateCharge(_ context.Context, req ChargeRequest) (*Charge, error) {
	return &Charge{
		GatewayID:       req.PaymentID,
		ConfirmationURL: req.ReturnURL,
	}, nil
}

// NormalizeStatus переводит решение администратора в доменный набор.
func (g *ManualGateway) NormalizeStatus(gatewayStatus string) models.PaymentStatus {
	switch strings.ToLower(gatewayStatus) {
	case "approved":
		return models.PaymentApproved
	case "rejected":
		return models.PaymentRejected
	default:
		return models.PaymentFailed
	}
}
