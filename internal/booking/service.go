// Package booking is the entry point both drivers use. It runs ledger
// operations against the fleet and records their side effects: logs,
// metrics and outbox events.
package booking

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
	"github.com/robertarktes/flight-seat-ledger/internal/fleet"
	"github.com/robertarktes/flight-seat-ledger/internal/ledger"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
	"github.com/robertarktes/flight-seat-ledger/internal/outbox"
)

type Service struct {
	fleet  *fleet.Registry
	outbox *outbox.Outbox
	logger observability.Logger
}

// NewService wires the fleet. box may be nil when no events are wanted.
func NewService(f *fleet.Registry, box *outbox.Outbox, logger observability.Logger) *Service {
	s := &Service{fleet: f, outbox: box, logger: logger}
	for _, fl := range f.Flights() {
		observability.SeatsAvailable.WithLabelValues(fl.Number, fl.Date).Set(float64(fl.AvailableSeats))
	}
	return s
}

func (s *Service) Flights() []fleet.FlightSummary {
	return s.fleet.Flights()
}

func (s *Service) AvailableSeats(flight int) ([]domain.AvailableSeat, error) {
	l, err := s.fleet.Ledger(flight)
	if err != nil {
		return nil, err
	}
	return l.AvailableSeats(), nil
}

func (s *Service) Book(flight int, seat, passenger string) (domain.TicketInfo, error) {
	l, err := s.fleet.Ledger(flight)
	if err != nil {
		return domain.TicketInfo{}, err
	}
	log := s.logger.WithFields(map[string]interface{}{"flight": l.Number(), "seat": seat})

	id, err := l.Book(seat, passenger)
	if err != nil {
		observability.BookingsTotal.WithLabelValues(l.Number(), result(err)).Inc()
		log.WithError(err).Info("booking rejected")
		return domain.TicketInfo{}, err
	}
	info, err := l.Ticket(id)
	if err != nil {
		return domain.TicketInfo{}, errors.Wrap(err, "read booked ticket")
	}

	observability.BookingsTotal.WithLabelValues(l.Number(), "ok").Inc()
	s.seatsChanged(l)
	s.emit(outbox.TicketBooked, info)
	log.WithField("ticket_id", id).Info("seat booked")
	return info, nil
}

// CancelTicket cancels a ticket on whichever flight issued it. A ticket
// that was already cancelled is reported, not treated as an error.
func (s *Service) CancelTicket(id int) (ledger.CancelOutcome, error) {
	l, err := s.fleet.LedgerForTicket(id)
	if err != nil {
		return 0, err
	}
	log := s.logger.WithFields(map[string]interface{}{"flight": l.Number(), "ticket_id": id})

	outcome, err := l.CancelTicket(id)
	if err != nil {
		observability.CancellationsTotal.WithLabelValues(l.Number(), result(err)).Inc()
		return 0, err
	}
	if outcome == ledger.AlreadyCancelled {
		observability.CancellationsTotal.WithLabelValues(l.Number(), "already_cancelled").Inc()
		log.Debug("ticket already cancelled")
		return outcome, nil
	}

	observability.CancellationsTotal.WithLabelValues(l.Number(), "ok").Inc()
	s.seatsChanged(l)
	if info, err := l.Ticket(id); err == nil {
		s.emit(outbox.TicketCancelled, info)
	}
	log.Info("ticket cancelled")
	return outcome, nil
}

// CancelSeat returns a booked seat on a flight and reports the ticket
// that held it.
func (s *Service) CancelSeat(flight int, seat string) (domain.TicketInfo, error) {
	l, err := s.fleet.Ledger(flight)
	if err != nil {
		return domain.TicketInfo{}, err
	}
	log := s.logger.WithFields(map[string]interface{}{"flight": l.Number(), "seat": seat})

	id, err := l.CancelSeat(seat)
	if err != nil {
		observability.CancellationsTotal.WithLabelValues(l.Number(), result(err)).Inc()
		log.WithError(err).Info("seat return rejected")
		return domain.TicketInfo{}, err
	}
	info, err := l.Ticket(id)
	if err != nil {
		return domain.TicketInfo{}, errors.Wrap(err, "read cancelled ticket")
	}

	observability.CancellationsTotal.WithLabelValues(l.Number(), "ok").Inc()
	s.seatsChanged(l)
	s.emit(outbox.TicketCancelled, info)
	log.WithField("ticket_id", id).Info("seat returned")
	return info, nil
}

func (s *Service) Ticket(id int) (domain.TicketInfo, error) {
	l, err := s.fleet.LedgerForTicket(id)
	if err != nil {
		return domain.TicketInfo{}, errors.Mark(err, domain.ErrNotFound)
	}
	return l.Ticket(id)
}

func (s *Service) TicketsByPassenger(name string) []domain.TicketInfo {
	return s.fleet.TicketsByPassenger(name)
}

func (s *Service) seatsChanged(l *ledger.Ledger) {
	observability.SeatsAvailable.WithLabelValues(l.Number(), l.Date()).Set(float64(len(l.AvailableSeats())))
}

func (s *Service) emit(eventType string, info domain.TicketInfo) {
	if s.outbox == nil {
		return
	}
	s.outbox.Add(outbox.NewTicketEvent(eventType, info))
}

// result maps an error to a metric label.
func result(err error) string {
	switch {
	case errors.Is(err, domain.ErrSeatUnknown):
		return "seat_unknown"
	case errors.Is(err, domain.ErrSeatTaken):
		return "seat_taken"
	case errors.Is(err, domain.ErrSeatNotBooked):
		return "seat_not_booked"
	case errors.Is(err, domain.ErrTicketUnknown):
		return "ticket_unknown"
	}
	return "error"
}

// ParseTicketID reads a ticket id typed by a user.
func ParseTicketID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, errors.Wrapf(domain.ErrTicketUnknown, "invalid ticket id %q", s)
	}
	return id, nil
}
