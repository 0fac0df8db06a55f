package main

import (
	"fmt"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/escrow"
	"github.com/vidiaspot/tradecore/mq_client"
	"github.com/vidiaspot/tradecore/services/wallet_service"
	"github.com/vidiaspot/tradecore/workers/daemons"
)

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	if err := mq_client.Connect(); err != nil {
		config.Logger.Fatalf("amqp connect: %v", err)
	}

	wallet := wallet_service.NewClient()
	machine := escrow.NewMachine(config.DataBase, config.Trading, wallet, wallet, escrow.MQEventPublisher{})

	config.Logger.Info("start tradecore-daemon: cron_job")

	worker := daemons.NewCronJob(machine)
	worker.Start()
}
