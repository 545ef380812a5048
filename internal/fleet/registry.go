// Package fleet holds every flight ledger of the process and the ticket
// id allocator they share.
package fleet

import (
	"cmp"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
	"github.com/robertarktes/flight-seat-ledger/internal/flightconfig"
	"github.com/robertarktes/flight-seat-ledger/internal/ledger"
)

type FlightSummary struct {
	Position       int    `json:"position"`
	Number         string `json:"flight_number"`
	Date           string `json:"date"`
	SeatsPerRow    int    `json:"seats_per_row"`
	Seats          int    `json:"seats"`
	AvailableSeats int    `json:"available_seats"`
}

type Registry struct {
	ids ledger.TicketIDAllocator

	mu      sync.RWMutex
	ledgers []*ledger.Ledger
}

func NewRegistry(ids ledger.TicketIDAllocator) *Registry {
	return &Registry{ids: ids}
}

// Add creates a ledger for f and returns its 1-based position.
func (r *Registry) Add(f flightconfig.Flight) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgers = append(r.ledgers, ledger.New(f, r.ids))
	return len(r.ledgers)
}

// Load parses every configuration line before adding any flight, so a
// single malformed line leaves the registry unchanged.
func (r *Registry) Load(src io.Reader) (int, error) {
	flights, err := flightconfig.ParseLines(src)
	if err != nil {
		return 0, err
	}
	for _, f := range flights {
		r.Add(f)
	}
	return len(flights), nil
}

func (r *Registry) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open flights file %s", path)
	}
	defer f.Close()

	n, err := r.Load(f)
	if err != nil {
		return 0, errors.Wrapf(err, "load %s", path)
	}
	return n, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ledgers)
}

func (r *Registry) Ledger(position int) (*ledger.Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if position < 1 || position > len(r.ledgers) {
		return nil, errors.Wrapf(domain.ErrFlightUnknown, "position %d", position)
	}
	return r.ledgers[position-1], nil
}

func (r *Registry) Flights() []FlightSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FlightSummary, len(r.ledgers))
	for i, l := range r.ledgers {
		out[i] = FlightSummary{
			Position:       i + 1,
			Number:         l.Number(),
			Date:           l.Date(),
			SeatsPerRow:    l.SeatsPerRow(),
			Seats:          l.SeatCount(),
			AvailableSeats: len(l.AvailableSeats()),
		}
	}
	return out
}

// LedgerForTicket finds the ledger that issued ticket id.
func (r *Registry) LedgerForTicket(id int) (*ledger.Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.ledgers {
		if l.HasTicket(id) {
			return l, nil
		}
	}
	return nil, errors.Wrapf(domain.ErrTicketUnknown, "ticket %d", id)
}

// TicketsByPassenger collects matching tickets from every flight, ordered
// by ticket id.
func (r *Registry) TicketsByPassenger(name string) []domain.TicketInfo {
	r.mu.RLock()
	var out []domain.TicketInfo
	for _, l := range r.ledgers {
		out = append(out, l.TicketsByPassenger(name)...)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.TicketInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
