package escrow

import (
	"github.com/vidiaspot/tradecore/mq_client"
)

// MQEventPublisher routes escrow events onto the topic exchange with
// kind.id.event routing keys.
type MQEventPublisher struct {
}

func (MQEventPublisher) Publish(kind, id, event string, payload []byte) error {
	return mq_client.EnqueueEvent(kind, id, event, payload)
}
