package main

import (
	"fmt"
	"os"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/mq_client"
	"github.com/vidiaspot/tradecore/workers/engines"
)

func CreateWorker(id string) engines.Worker {
	switch id {
	case "matching":
		return engines.NewMatchingWorker(nil)
	case "order_processor":
		return engines.NewOrderProcessorWorker()
	case "trade_executor":
		return engines.NewTradeExecutorWorker()
	case "depth_cache":
		return engines.NewDepthCacheWorker()
	case "escrow_processor":
		return engines.NewEscrowProcessorWorker()
	default:
		return nil
	}
}

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	if err := mq_client.Connect(); err != nil {
		config.Logger.Fatalf("amqp connect: %v", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println("usage: tradecore-engine <worker> [worker...]")
		return
	}

	wait := make(chan struct{})

	for _, id := range args {
		worker := CreateWorker(id)
		if worker == nil {
			config.Logger.Fatalf("unknown worker: %s", id)
		}

		deliveries, err := mq_client.Subscribe(id)
		if err != nil {
			config.Logger.Fatalf("subscribe %s: %v", id, err)
		}

		config.Logger.Infof("start tradecore-engine: %s", id)

		go func(id string, worker engines.Worker) {
			for delivery := range deliveries {
				if err := worker.Process(delivery.Body); err != nil {
					config.Logger.Errorf("%s worker error: %v", id, err)
					delivery.Nack(false, false)
					continue
				}

				delivery.Ack(false)
			}
		}(id, worker)
	}

	<-wait
}
