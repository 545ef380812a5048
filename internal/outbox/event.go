package outbox

import (
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
)

const (
	TicketBooked    = "ticket.booked"
	TicketCancelled = "ticket.cancelled"
)

type Event struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	TicketID     int       `json:"ticket_id"`
	FlightNumber string    `json:"flight_number"`
	Date         string    `json:"date"`
	Seat         string    `json:"seat"`
	Passenger    string    `json:"passenger"`
	Price        int       `json:"price"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewTicketEvent(eventType string, t domain.TicketInfo) Event {
	return Event{
		ID:           uuid.New(),
		Type:         eventType,
		TicketID:     t.ID,
		FlightNumber: t.FlightNumber,
		Date:         t.Date,
		Seat:         t.SeatCode,
		Passenger:    t.Passenger,
		Price:        t.Price,
		OccurredAt:   time.Now().UTC(),
	}
}
