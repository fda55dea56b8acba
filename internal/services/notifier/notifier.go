// Package notifier публикует события подписки в очередь уведомлений.
//
// Публикация выполняется по принципу fire-and-forget: хранилище уже
// зафиксировало изменение, поэтому ошибка публикации логируется и
// никогда не откатывает породившую её операцию.
package notifier

import (
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// Notifier отправляет события подписки в RabbitMQ.
type Notifier struct {
	channel  *amqp.Channel
	exchange string
	enabled  bool
	log      *slog.Logger
}

// New создает новый Notifier. При enabled = false все вызовы — no-op.
func New(channel *amqp.Channel, exchange string, enabled bool, log *slog.Logger) *Notifier {
	return &Notifier{
		channel:  channel,
		exchange: exchange,
		enabled:  enabled,
		log:      log,
	}
}

// NotifyActivated сообщает об активации или продлении подписки.
func (n *Notifier) NotifyActivated(userID int64, plan models.PlanType, endDate *time.Time) {
	n.publish(rabbitmq.RoutingKeyActivated, models.NotificationEvent{
		Kind:    models.NotificationActivated,
		UserID:  userID,
		Plan:    plan,
		EndDate: endDate,
	})
}

// NotifyExpiring сообщает о скором окончании подписки.
func (n *Notifier) NotifyExpiring(userID int64, daysLeft int) {
	n.publish(rabbitmq.RoutingKeyExpiring, models.NotificationEvent{
		Kind:     models.NotificationExpiring,
		UserID:   userID,
		DaysLeft: daysLeft,
	})
}

// NotifyExpired сообщает об истечении подписки.
func (n *Notifier) NotifyExpired(userID int64, plan models.PlanType) {
	n.publish(rabbitmq.RoutingKeyExpired, models.NotificationEvent{
		Kind:   models.NotificationExpired,
		UserID: userID,
		Plan:   plan,
	})
}

// NotifyRevoked сообщает об отзыве подписки.
func (n *Notifier) NotifyRevoked(userID int64) {
	n.publish(rabbitmq.RoutingKeyRevoked, models.NotificationEvent{
		Kind:   models.NotificationRevoked,
		UserID: userID,
	})
}

func (n *Notifier) publish(routingKey string, event models.NotificationEvent) {
	if !n.enabled || n.channel == nil {
		return
	}
	if err := rabbitmq.PublishMessage(n.channel, n.exchange, routingKey, event); err != nil {
		n.log.Error("failed to publish notification",
			slog.String("routing_key", routingKey),
			sl.UserID(event.UserID),
			sl.Err(err))
	}
}
