package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeRuns   Exchange = "cadence.runs"
	ExchangeSweeps Exchange = "cadence.sweeps"
	ExchangeDLQ    Exchange = "cadence.dlq"
)

// Queues.
const (
	QueueRunsFinished    Queue = "runs.finished"
	QueueSweepsRequested Queue = "sweeps.requested"
	QueueDLQSweeps       Queue = "dlq.sweeps"
)

// Routing keys.
const (
	RoutingKeyFinished  RoutingKey = "finished"
	RoutingKeyRequested RoutingKey = "requested"
	RoutingKeyDLQSweeps RoutingKey = "sweeps"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// Topology — объявления exchanges, queues и bindings.
type Topology struct {
	Exchanges []exchangeDecl
	Queues    []queueDecl
	Bindings  []bindingDecl
}

// DefaultTopology возвращает топологию Cadence.
//
// runs.finished — события для внешних потребителей (аудит, уведомления).
// sweeps.requested — запросы на sweep; читает cadence-sweeper.
// Запрос, который не удалось обработать, уходит в dlq.sweeps,
// а не крутится в очереди: следующий триггер всё равно придёт.
func DefaultTopology() Topology {
	return Topology{
		Exchanges: []exchangeDecl{
			{ExchangeRuns, "direct"},
			{ExchangeSweeps, "direct"},
			{ExchangeDLQ, "direct"},
		},
		Queues: []queueDecl{
			{QueueRunsFinished, nil},
			{QueueSweepsRequested, amqp.Table{
				"x-dead-letter-exchange":    string(ExchangeDLQ),
				"x-dead-letter-routing-key": string(RoutingKeyDLQSweeps),
				"x-message-ttl":             int32(10 * 60 * 1000), // устаревший триггер бесполезен
			}},
			{QueueDLQSweeps, nil},
		},
		Bindings: []bindingDecl{
			{QueueRunsFinished, RoutingKeyFinished, ExchangeRuns},
			{QueueSweepsRequested, RoutingKeyRequested, ExchangeSweeps},
			{QueueDLQSweeps, RoutingKeyDLQSweeps, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет DefaultTopology. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	topo := DefaultTopology()
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return topo.declare(ch)
	})
}

func (t Topology) declare(ch *amqp.Channel) error {
	for _, ex := range t.Exchanges {
		// durable, не auto-delete, не internal
		if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	for _, q := range t.Queues {
		if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	for _, b := range t.Bindings {
		if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Cadence RabbitMQ Topology:

    cadence.runs (direct)
    └── runs.finished [routing: finished]
            Producer: Executor (best-effort)

    cadence.sweeps (direct)
    └── sweeps.requested [routing: requested]
            Consumer: cadence-sweeper
            DLQ: dlq.sweeps

    cadence.dlq (direct)
    └── dlq.sweeps [routing: sweeps]
  `
}
