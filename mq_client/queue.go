package mq_client

import (
	"github.com/streadway/amqp"
)

var AMQPChannel *amqp.Channel
var Connection *amqp.Connection

func Connect() error {
	cn, err := CreateAMQP()
	if err != nil {
		return err
	}

	Connection = cn

	return nil
}

func GetChannel() *amqp.Channel {
	if AMQPChannel != nil {
		return AMQPChannel
	}

	channel, _ := Connection.Channel()

	AMQPChannel = channel

	return AMQPChannel
}

func Publish(eid string, queue Queue, payload []byte, routingKey string) error {
	exchangeName, exchangeKind := GetExchange(eid)

	err := GetChannel().ExchangeDeclare(exchangeName, exchangeKind, queue.Durable, false, false, false, nil)
	if err != nil {
		return err
	}

	return GetChannel().Publish(
		exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			Headers:      amqp.Table{},
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Transient,
			Priority:     0,
		},
	)
}

func Enqueue(id string, payload []byte) error {
	eid := GetBindingExchangeId(id)
	routingKey := GetRoutingKey(id)
	queue := GetBindingQueue(id)

	return Publish(eid, queue, payload, routingKey)
}

// EnqueueEvent publishes on the topic exchange with a kind.id.event
// routing key, e.g. escrow.<uuid>.released.
func EnqueueEvent(kind string, id string, event string, payload []byte) error {
	routingKey := kind + "." + id + "." + event

	GetChannel().ExchangeDeclare("tradecore.events.ranger", "topic", false, false, false, false, nil)

	return GetChannel().Publish(
		"tradecore.events.ranger",
		routingKey,
		false,
		false,
		amqp.Publishing{
			Headers:      amqp.Table{},
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Priority:     0,
		},
	)
}

// Subscribe declares the binding's exchange and queue, binds them and
// returns the delivery channel for a worker loop.
func Subscribe(id string) (<-chan amqp.Delivery, error) {
	channel := GetChannel()

	if prefetch := GetPrefetchCount(id); prefetch > 0 {
		channel.Qos(prefetch, 0, false)
	}

	queue := GetBindingQueue(id)
	eid := GetBindingExchangeId(id)
	exchangeName, exchangeKind := GetExchange(eid)
	routingKey := GetRoutingKey(id)

	if err := channel.ExchangeDeclare(exchangeName, exchangeKind, queue.Durable, false, false, false, nil); err != nil {
		return nil, err
	}
	if _, err := channel.QueueDeclare(queue.Name, queue.Durable, false, false, false, nil); err != nil {
		return nil, err
	}
	if err := channel.QueueBind(queue.Name, routingKey, exchangeName, false, nil); err != nil {
		return nil, err
	}

	return channel.Consume(queue.Name, "", false, false, false, false, nil)
}
