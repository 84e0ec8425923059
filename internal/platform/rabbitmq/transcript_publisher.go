package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"tenantbot/internal/model"
)

// TranscriptPublisher enqueues chat transcript rows for asynchronous
// persistence. Chat treats publishing as best-effort: a broker
// failure is logged by the caller and never fails the user-visible
// reply.
type TranscriptPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewTranscriptPublisher(conn *amqp.Connection, queueName string) *TranscriptPublisher {
	return &TranscriptPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *TranscriptPublisher) Publish(ctx context.Context, msg model.ChatMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal transcript payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish transcript failed: %w", err)
	}
	return nil
}
