package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"docassist/internal/platform/rabbitmq"
)

// DocumentParser is the slice of the document service the worker drives.
type DocumentParser interface {
	ParseUploaded(ctx context.Context, documentID uint) error
}

// ParseWorker consumes parse jobs and runs the extract-chunk-embed pipeline
// for each uploaded document.
type ParseWorker struct {
	conn      *amqp.Connection
	parser    DocumentParser
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewParseWorker(conn *amqp.Connection, parser DocumentParser, queueName string) *ParseWorker {
	return &ParseWorker{
		conn:      conn,
		parser:    parser,
		queueName: queueName,
	}
}

func (w *ParseWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare parse queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume parse queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job rabbitmq.ParseJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("worker decode parse job failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.parser.ParseUploaded(workerCtx, job.DocumentID); err != nil {
					log.Printf("worker parse document %d failed: %v", job.DocumentID, err)
					// The failure state is already recorded on the document;
					// requeueing would just repeat it.
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *ParseWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
