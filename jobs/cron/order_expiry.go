package cron

import (
	"encoding/json"

	"github.com/jasonlvhit/gocron"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/mq_client"
	"github.com/vidiaspot/tradecore/types"
)

// OrderExpiryJob ticks the engines so GTD orders expire on schedule
// instead of waiting for a crossing order to touch them.
type OrderExpiryJob struct {
}

func (j *OrderExpiryJob) Process() {
	s := gocron.NewScheduler()
	s.Every(1).Minute().Do(enqueueSweep)
	<-s.Start()
}

func enqueueSweep() {
	payload, err := json.Marshal(map[string]interface{}{
		"action": types.ActionSweep,
		"symbol": "all",
	})
	if err != nil {
		return
	}

	if err := mq_client.Enqueue("matching", payload); err != nil {
		config.Logger.Errorf("enqueue expiry sweep: %v", err)
	}
}
