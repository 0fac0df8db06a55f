package engines

import (
	"github.com/vidiaspot/tradecore/mq_client"
)

type Worker interface {
	Process(payload []byte) error
}

// Broker indirections so worker logic can run against a recorder in
// tests instead of a live channel.
var (
	enqueue      = mq_client.Enqueue
	enqueueEvent = mq_client.EnqueueEvent
)
