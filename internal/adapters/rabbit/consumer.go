package rabbit

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/flight-seat-ledger/internal/outbox"
)

// Consumer reads ticket events from a queue bound to the events exchange.
type Consumer struct {
	ch    *amqp.Channel
	queue string
}

func NewConsumer(conn *amqp.Connection, queue string, keys ...string) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}
	if len(keys) == 0 {
		keys = []string{"ticket.*"}
	}
	for _, key := range keys {
		if err := ch.QueueBind(queue, key, Exchange, false, nil); err != nil {
			ch.Close()
			return nil, err
		}
	}
	return &Consumer{ch: ch, queue: queue}, nil
}

func (c *Consumer) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.queue, "", true, false, false, false, nil)
}

// Run consumes until ctx is done or the channel closes, passing every
// decoded event to handle. Undecodable messages are reported to bad and
// skipped; an error from handle stops the loop.
func (c *Consumer) Run(ctx context.Context, handle func(outbox.Event) error, bad func(amqp.Delivery, error)) error {
	deliveries, err := c.Consume(ctx)
	if err != nil {
		return errors.Wrapf(err, "consume %s", c.queue)
	}
	return dispatch(ctx, deliveries, handle, bad)
}

func dispatch(ctx context.Context, deliveries <-chan amqp.Delivery, handle func(outbox.Event) error, bad func(amqp.Delivery, error)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			e, err := DecodeEvent(d)
			if err != nil {
				if bad != nil {
					bad(d, err)
				}
				continue
			}
			if err := handle(e); err != nil {
				return err
			}
		}
	}
}

// DecodeEvent reads the JSON body written by the outbox publisher. The
// routing key fills in a missing event type.
func DecodeEvent(d amqp.Delivery) (outbox.Event, error) {
	var e outbox.Event
	if err := json.Unmarshal(d.Body, &e); err != nil {
		return outbox.Event{}, errors.Wrapf(err, "decode message %q", d.MessageId)
	}
	if e.Type == "" {
		e.Type = d.RoutingKey
	}
	if e.TicketID == 0 {
		return outbox.Event{}, errors.Newf("message %q carries no ticket id", d.MessageId)
	}
	return e, nil
}

func (c *Consumer) Close() error {
	return c.ch.Close()
}
