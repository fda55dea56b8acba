package paymentprovider

import (
	"fmt"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
)

// New выбирает реализацию шлюза по конфигурации. Выбор делается один раз
// при старте приложения; неизвестный вид шлюза — ошибка конфигурации.
func New(cfg config.Gateway) (Gateway, error) {
	const op = "paymentprovider.New"
	switch cfg.Kind {
	case "yookassa":
		return NewYooKassaClient(cfg.ShopID, cfg.SecretKey, cfg.Timeout), nil
	case "manual":
		return NewManualGateway(), nil
	default:
		return nil, fmt.Errorf("%s: unknown gateway kind: %q", op, cfg.Kind)
	}
}
