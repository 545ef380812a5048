package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
)

const batchSize = 10

// Sink delivers one message under a routing key.
type Sink interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

type Publisher struct {
	outbox *Outbox
	sink   Sink
	logger observability.Logger
}

func NewPublisher(outbox *Outbox, sink Sink, logger observability.Logger) *Publisher {
	return &Publisher{outbox: outbox, sink: sink, logger: logger}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Flush(context.Background())
			return nil
		case <-ticker.C:
			p.Flush(ctx)
		}
	}
}

// Flush publishes pending events oldest first and stops at the first
// failure, so delivery order is kept.
func (p *Publisher) Flush(ctx context.Context) int {
	published := 0
	for {
		records := p.outbox.Pending(batchSize)
		if len(records) == 0 {
			return published
		}
		var done []uuid.UUID
		for _, rec := range records {
			body, err := json.Marshal(rec)
			if err != nil {
				p.logger.WithError(err).Error("failed to encode event")
				done = append(done, rec.ID)
				continue
			}
			msg := amqp.Publishing{
				MessageId:   rec.ID.String(),
				ContentType: "application/json",
				Timestamp:   rec.OccurredAt,
				Body:        body,
			}
			if err := p.sink.Publish(ctx, rec.Type, msg); err != nil {
				observability.RabbitPublishFailures.Inc()
				p.logger.WithError(err).WithField("event_id", rec.ID.String()).Warn("failed to publish event")
				p.outbox.MarkPublished(done...)
				return published + len(done)
			}
			done = append(done, rec.ID)
		}
		p.outbox.MarkPublished(done...)
		published += len(done)
	}
}

// LogSink stands in for the broker when none is configured.
type LogSink struct {
	Logger observability.Logger
}

func (s LogSink) Publish(_ context.Context, key string, msg amqp.Publishing) error {
	s.Logger.WithFields(map[string]interface{}{
		"routing_key": key,
		"message_id":  msg.MessageId,
	}).Info(string(msg.Body))
	return nil
}
