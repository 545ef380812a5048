// Package ledger keeps one flight's seat inventory together with every
// ticket issued against it.
package ledger

import (
	"cmp"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
	"github.com/robertarktes/flight-seat-ledger/internal/flightconfig"
)

type CancelOutcome int

const (
	Cancelled CancelOutcome = iota + 1
	AlreadyCancelled
)

func (o CancelOutcome) String() string {
	switch o {
	case Cancelled:
		return "cancelled"
	case AlreadyCancelled:
		return "already cancelled"
	}
	return "unknown"
}

type Ledger struct {
	number      string
	date        string
	seatsPerRow int
	ids         TicketIDAllocator

	mu      sync.Mutex
	seats   map[string]*domain.Seat
	tickets map[int]*domain.Ticket
	issued  []int
}

// New builds a ledger from a parsed flight. The flight's seat map is
// copied, so later changes to it do not leak into the ledger.
func New(f flightconfig.Flight, ids TicketIDAllocator) *Ledger {
	seats := make(map[string]*domain.Seat, len(f.Seats))
	for code, s := range f.Seats {
		s := s
		s.Holder = 0
		seats[code] = &s
	}
	return &Ledger{
		number:      f.Number,
		date:        f.Date,
		seatsPerRow: f.SeatsPerRow,
		ids:         ids,
		seats:       seats,
		tickets:     make(map[int]*domain.Ticket),
	}
}

func (l *Ledger) Number() string { return l.number }

func (l *Ledger) Date() string { return l.date }

func (l *Ledger) SeatsPerRow() int { return l.seatsPerRow }

func (l *Ledger) SeatCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seats)
}

// Book issues a ticket for a free seat. The ticket price is the seat
// price at booking time.
func (l *Ledger) Book(seatCode, passenger string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seat, ok := l.seats[seatCode]
	if !ok {
		return 0, errors.Wrapf(domain.ErrSeatUnknown, "flight %s seat %q", l.number, seatCode)
	}
	if !seat.Available() {
		return 0, errors.Wrapf(domain.ErrSeatTaken, "flight %s seat %s", l.number, seatCode)
	}

	id := l.ids.NextID()
	l.tickets[id] = &domain.Ticket{
		ID:           id,
		Passenger:    passenger,
		SeatCode:     seatCode,
		FlightNumber: l.number,
		Date:         l.date,
		Price:        seat.Price,
		Active:       true,
	}
	l.issued = append(l.issued, id)
	seat.Holder = id
	return id, nil
}

// CancelTicket deactivates a ticket and frees its seat. Cancelling a
// ticket twice reports AlreadyCancelled and changes nothing.
func (l *Ledger) CancelTicket(id int) (CancelOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[id]
	if !ok {
		return 0, errors.Wrapf(domain.ErrTicketUnknown, "flight %s ticket %d", l.number, id)
	}
	if !t.Active {
		return AlreadyCancelled, nil
	}
	l.release(t)
	return Cancelled, nil
}

// CancelSeat frees a booked seat and deactivates the ticket holding it.
// It returns the id of that ticket.
func (l *Ledger) CancelSeat(seatCode string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seat, ok := l.seats[seatCode]
	if !ok {
		return 0, errors.Wrapf(domain.ErrSeatUnknown, "flight %s seat %q", l.number, seatCode)
	}
	if seat.Available() {
		return 0, errors.Wrapf(domain.ErrSeatNotBooked, "flight %s seat %s", l.number, seatCode)
	}
	t := l.tickets[seat.Holder]
	l.release(t)
	return t.ID, nil
}

// release must be called with l.mu held and t active.
func (l *Ledger) release(t *domain.Ticket) {
	t.Active = false
	if seat, ok := l.seats[t.SeatCode]; ok && seat.Holder == t.ID {
		seat.Holder = 0
	}
}

func (l *Ledger) Ticket(id int) (domain.TicketInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[id]
	if !ok {
		return domain.TicketInfo{}, errors.Wrapf(domain.ErrNotFound, "flight %s ticket %d", l.number, id)
	}
	return t.Info(), nil
}

func (l *Ledger) HasTicket(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.tickets[id]
	return ok
}

// TicketsByPassenger returns active and cancelled tickets whose passenger
// name equals name exactly, in ticket id order.
func (l *Ledger) TicketsByPassenger(name string) []domain.TicketInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.TicketInfo
	for _, id := range l.issued {
		if t := l.tickets[id]; t.Passenger == name {
			out = append(out, t.Info())
		}
	}
	slices.SortFunc(out, func(a, b domain.TicketInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// AvailableSeats lists free seats ordered by row, then seat letter.
func (l *Ledger) AvailableSeats() []domain.AvailableSeat {
	l.mu.Lock()
	free := make([]domain.Seat, 0, len(l.seats))
	for _, s := range l.seats {
		if s.Available() {
			free = append(free, *s)
		}
	}
	l.mu.Unlock()

	slices.SortFunc(free, func(a, b domain.Seat) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Letter, b.Letter)
	})
	out := make([]domain.AvailableSeat, len(free))
	for i, s := range free {
		out[i] = domain.AvailableSeat{Code: s.Code, Price: s.Price}
	}
	return out
}
