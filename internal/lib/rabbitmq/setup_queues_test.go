package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetNotificationQueues(t *testing.T) {
	queues := GetNotificationQueues()

	assert.Len(t, queues, 4)

	keys := make(map[string]string, len(queues))
	for _, q := range queues {
		assert.NotEmpty(t, q.QueueName)
		assert.NotEmpty(t, q.RoutingKey)
		keys[q.RoutingKey] = q.QueueName
	}

	assert.Equal(t, "notification.activated", keys[RoutingKeyActivated])
	assert.Equal(t, "notification.expiring", keys[RoutingKeyExpiring])
	assert.Equal(t, "notification.expired", keys[RoutingKeyExpired])
	assert.Equal(t, "notification.revoked", keys[RoutingKeyRevoked])
}
