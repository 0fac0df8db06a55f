package mq_client

import (
	"os"
	"reflect"

	"github.com/streadway/amqp"
	"gopkg.in/yaml.v2"
)

var AMQPCfg *MQClientConfig

func CreateAMQP() (*amqp.Connection, error) {
	if err := LoadConfig(); err != nil {
		return nil, err
	}

	username := os.Getenv("RABBITMQ_USERNAME")
	password := os.Getenv("RABBITMQ_PASSWORD")
	host := os.Getenv("RABBITMQ_HOST")
	port := os.Getenv("RABBITMQ_PORT")

	return amqp.Dial("amqp://" + username + ":" + password + "@" + host + ":" + port)
}

func LoadConfig() error {
	buf, err := os.ReadFile("config/amqp.yml")
	if err != nil {
		return err
	}

	c := &MQClientConfig{}
	if err := yaml.Unmarshal(buf, c); err != nil {
		return err
	}

	AMQPCfg = c

	return nil
}

func GetPrefetchCount(id string) int {
	channel := findByTag(&AMQPCfg.Channel, id)

	if channel != nil {
		return channel.(Channel).Prefetch
	}

	return 0
}

func GetBindingExchangeId(id string) string {
	binding := findByTag(&AMQPCfg.Binding, id)

	if binding != nil {
		return binding.(Binding).Exchange
	}

	return ""
}

func GetBindingQueue(id string) Queue {
	queueID := findByTag(&AMQPCfg.Binding, id).(Binding).Queue

	return findByTag(&AMQPCfg.Queue, queueID).(Queue)
}

func GetRoutingKey(id string) string {
	return GetBindingQueue(id).Name
}

func GetExchange(id string) (string, string) {
	exchange := findByTag(&AMQPCfg.Exchange, id).(Exchange)

	return exchange.Name, exchange.Type
}

func findByTag(i interface{}, tagValue string) interface{} {
	e := reflect.ValueOf(i).Elem()

	for idx := 0; idx < e.NumField(); idx++ {
		if tagValue == e.Type().Field(idx).Tag.Get("yaml") {
			return e.Field(idx).Interface()
		}
	}

	return nil
}
