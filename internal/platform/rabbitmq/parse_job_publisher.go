package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ParseJob asks the worker to extract text for one document and then
// re-chunk/re-embed it.
type ParseJob struct {
	DocumentID uint `json:"document_id"`
}

// ParseJobPublisher submits parse jobs to the work queue. Upload handlers
// only enqueue; the worker reacts to deliveries — no fire-and-forget
// goroutines hiding inside request handling.
type ParseJobPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewParseJobPublisher(conn *amqp.Connection, queueName string) *ParseJobPublisher {
	return &ParseJobPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ParseJobPublisher) PublishParseJob(ctx context.Context, documentID uint) error {
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

	payload, err := json.Marshal(ParseJob{DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("marshal parse job failed: %w", err)
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
		return fmt.Errorf("publish parse job failed: %w", err)
	}
	return nil
}
