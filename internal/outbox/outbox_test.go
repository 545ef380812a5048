package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticketEvent(id int) Event {
	return NewTicketEvent(TicketBooked, domain.TicketInfo{ID: id, FlightNumber: "HJ114", Date: "11.12.2022", SeatCode: "1A", Price: 10, Active: true})
}

func TestOutbox_FIFOAndCapacity(t *testing.T) {
	o := New(2)
	o.Add(ticketEvent(1))
	o.Add(ticketEvent(2))
	o.Add(ticketEvent(3))

	pending := o.Pending(10)
	require.Len(t, pending, 2)
	assert.Equal(t, 2, pending[0].TicketID)
	assert.Equal(t, 3, pending[1].TicketID)

	o.MarkPublished(pending[0].ID)
	assert.Equal(t, 1, o.Len())
	assert.Equal(t, 3, o.Pending(1)[0].TicketID)
}

type recordingSink struct {
	failAfter int
	keys      []string
	msgs      []amqp.Publishing
}

func (s *recordingSink) Publish(_ context.Context, key string, msg amqp.Publishing) error {
	if s.failAfter >= 0 && len(s.msgs) >= s.failAfter {
		return errors.New("broker unavailable")
	}
	s.keys = append(s.keys, key)
	s.msgs = append(s.msgs, msg)
	return nil
}

func TestPublisher_FlushInOrder(t *testing.T) {
	o := New(100)
	for i := 1; i <= 15; i++ {
		o.Add(ticketEvent(i))
	}
	sink := &recordingSink{failAfter: -1}
	p := NewPublisher(o, sink, observability.NewNopLogger())

	assert.Equal(t, 15, p.Flush(context.Background()))
	assert.Zero(t, o.Len())
	require.Len(t, sink.msgs, 15)
	for i, msg := range sink.msgs {
		var e Event
		require.NoError(t, json.Unmarshal(msg.Body, &e))
		assert.Equal(t, i+1, e.TicketID)
		assert.Equal(t, e.ID.String(), msg.MessageId)
		assert.Equal(t, "application/json", msg.ContentType)
		assert.Equal(t, TicketBooked, sink.keys[i])
	}
}

func TestPublisher_KeepsUnpublishedOnFailure(t *testing.T) {
	o := New(100)
	for i := 1; i <= 5; i++ {
		o.Add(ticketEvent(i))
	}
	sink := &recordingSink{failAfter: 2}
	p := NewPublisher(o, sink, observability.NewNopLogger())

	assert.Equal(t, 2, p.Flush(context.Background()))
	require.Equal(t, 3, o.Len())
	assert.Equal(t, 3, o.Pending(1)[0].TicketID)

	sink.failAfter = -1
	assert.Equal(t, 3, p.Flush(context.Background()))
	assert.Zero(t, o.Len())
}

func TestPublisher_RunFlushesOnShutdown(t *testing.T) {
	o := New(10)
	sink := &recordingSink{failAfter: -1}
	p := NewPublisher(o, sink, observability.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, time.Hour) }()

	o.Add(ticketEvent(7))
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not stop")
	}
	require.Len(t, sink.msgs, 1)
}
