package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации для её привязки.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Routing keys уведомлений.
const (
	RoutingKeyActivated = "activated"
	RoutingKeyExpiring  = "expiring"
	RoutingKeyExpired   = "expired"
	RoutingKeyRevoked   = "revoked"
)

// GetNotificationQueues возвращает очереди уведомлений о событиях подписки.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.activated", RoutingKey: RoutingKeyActivated},
		{QueueName: "notification.expiring", RoutingKey: RoutingKeyExpiring},
		{QueueName: "notification.expired", RoutingKey: RoutingKeyExpired},
		{QueueName: "notification.revoked", RoutingKey: RoutingKeyRevoked},
	}
}
