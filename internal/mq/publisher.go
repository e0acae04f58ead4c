package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Cadence/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunFinished    MessageType = "run.finished"
	MessageTypeSweepRequested MessageType = "sweep.requested"
)

// Message — конверт сообщения.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// RunFinishedPayload — событие о завершённом run.
type RunFinishedPayload struct {
	RunID         uuid.UUID  `json:"run_id"`
	ScheduleID    uuid.UUID  `json:"schedule_id"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	WebhookStatus *int       `json:"webhook_status,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// SweepRequestedPayload — запрос на sweep.
type SweepRequestedPayload struct {
	// At — момент, на который проверять due. Нулевое значение — время получения.
	At     time.Time `json:"at,omitzero"`
	Source string    `json:"source,omitempty"`
}

// NewRunFinishedPayload собирает payload из run.
func NewRunFinishedPayload(run *domain.Run) RunFinishedPayload {
	p := RunFinishedPayload{
		RunID:         run.ID,
		ScheduleID:    run.ScheduleID,
		Status:        run.Status.String(),
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		WebhookStatus: run.WebhookStatus,
	}
	if run.Error != nil {
		p.Error = *run.Error
	}
	return p
}

// NewMessage упаковывает payload в Message.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(routingKey), false, false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishRunFinished публикует событие run.finished.
func (p *Publisher) PublishRunFinished(ctx context.Context, run *domain.Run) error {
	msg, err := NewMessage(MessageTypeRunFinished, NewRunFinishedPayload(run))
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeRuns, RoutingKeyFinished, msg)
}

// PublishSweepRequested ставит запрос на sweep в очередь.
func (p *Publisher) PublishSweepRequested(ctx context.Context, payload SweepRequestedPayload) error {
	msg, err := NewMessage(MessageTypeSweepRequested, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeSweeps, RoutingKeyRequested, msg)
}
