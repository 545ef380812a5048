// Package console is the interactive text driver: a numbered menu read
// line by line from an input stream.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flight-seat-ledger/internal/booking"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
	"github.com/robertarktes/flight-seat-ledger/internal/ledger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const clearScreen = "\033[H\033[2J"

type Console struct {
	svc   *booking.Service
	in    io.Reader
	out   io.Writer
	clear bool

	// lines is fed by the reader goroutine started in Run; readErr is set
	// before lines is closed.
	lines   chan string
	readErr error
	done    <-chan struct{}

	title lipgloss.Style
	fail  lipgloss.Style
}

type Option func(*Console)

// WithClearScreen clears the terminal before each menu. Only useful when
// out is a terminal.
func WithClearScreen(enabled bool) Option {
	return func(c *Console) { c.clear = enabled }
}

func New(svc *booking.Service, in io.Reader, out io.Writer, opts ...Option) *Console {
	r := lipgloss.NewRenderer(out)
	c := &Console{
		svc:   svc,
		in:    in,
		out:   out,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		fail:  r.NewStyle().Foreground(lipgloss.Color("9")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type command struct {
	label string
	run   func(*Console) error
}

var commands = []command{
	{"List flights", (*Console).listFlights},
	{"Show available seats", (*Console).availableSeats},
	{"Book a seat", (*Console).book},
	{"Return a seat", (*Console).returnSeat},
	{"Cancel a ticket", (*Console).cancelTicket},
	{"View a ticket", (*Console).viewTicket},
	{"View tickets by passenger", (*Console).ticketsByPassenger},
}

// Run shows the menu until the user exits, input ends or ctx is done.
// A pending prompt is abandoned as soon as ctx is done.
func (c *Console) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	c.done = ctx.Done()
	c.lines = make(chan string)
	go c.readLines(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		c.menu()
		choice, ok := c.prompt("> ")
		if !ok {
			return c.inputErr()
		}
		if choice == "0" || strings.EqualFold(choice, "exit") || strings.EqualFold(choice, "q") {
			fmt.Fprintln(c.out, "Goodbye.")
			return nil
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(commands) {
			c.errorf("Unknown option %q.", choice)
			continue
		}
		if err := c.exec(ctx, commands[n-1]); err != nil {
			if errors.Is(err, io.EOF) {
				return c.inputErr()
			}
			c.errorf("%s", describe(err))
		}
	}
}

func (c *Console) exec(ctx context.Context, cmd command) error {
	_, span := otel.Tracer("console").Start(ctx, cmd.label)
	defer span.End()
	err := cmd.run(c)
	if err != nil && !errors.Is(err, io.EOF) {
		span.RecordError(err)
		span.SetStatus(codes.Error, describe(err))
	}
	return err
}

func (c *Console) menu() {
	if c.clear {
		fmt.Fprint(c.out, clearScreen)
	}
	fmt.Fprintln(c.out, c.title.Render("Flight bookings"))
	for i, cmd := range commands {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, cmd.label)
	}
	fmt.Fprintln(c.out, "0. Exit")
}

func (c *Console) readLines(ctx context.Context) {
	defer close(c.lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case c.lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	c.readErr = scanner.Err()
}

// inputErr is the error that ended input, nil for EOF or cancellation.
func (c *Console) inputErr() error {
	select {
	case <-c.done:
		return nil
	default:
		return c.readErr
	}
}

// prompt prints label and reads one trimmed line. ok is false at end of
// input or once Run's context is done.
func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	select {
	case line, open := <-c.lines:
		if !open {
			fmt.Fprintln(c.out)
			return "", false
		}
		return strings.TrimSpace(line), true
	case <-c.done:
		fmt.Fprintln(c.out)
		return "", false
	}
}

func (c *Console) ask(label string) (string, error) {
	s, ok := c.prompt(label)
	if !ok {
		return "", io.EOF
	}
	return s, nil
}

func (c *Console) errorf(format string, args ...interface{}) {
	fmt.Fprintln(c.out, c.fail.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) selectFlight() (int, error) {
	flights := c.svc.Flights()
	if len(flights) == 0 {
		return 0, errors.Wrap(domain.ErrFlightUnknown, "no flights loaded")
	}
	if len(flights) == 1 {
		return 1, nil
	}
	c.printFlights()
	s, err := c.ask(fmt.Sprintf("Select flight [1-%d]: ", len(flights)))
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(s)
	if convErr != nil || n < 1 || n > len(flights) {
		return 0, errors.Wrapf(domain.ErrFlightUnknown, "%q", s)
	}
	return n, nil
}

func (c *Console) printFlights() {
	for _, f := range c.svc.Flights() {
		fmt.Fprintf(c.out, "%d. Flight %s on %s (%d of %d seats free, %d per row)\n",
			f.Position, f.Number, f.Date, f.AvailableSeats, f.Seats, f.SeatsPerRow)
	}
}

func (c *Console) listFlights() error {
	if len(c.svc.Flights()) == 0 {
		fmt.Fprintln(c.out, "No flights loaded.")
		return nil
	}
	c.printFlights()
	return nil
}

func (c *Console) availableSeats() error {
	flight, err := c.selectFlight()
	if err != nil {
		return err
	}
	seats, err := c.svc.AvailableSeats(flight)
	if err != nil {
		return err
	}
	f := c.svc.Flights()[flight-1]
	fmt.Fprintf(c.out, "Available seats for flight %s on %s:\n", f.Number, f.Date)
	for _, s := range seats {
		fmt.Fprintf(c.out, "Seat %s - Price: $%d\n", s.Code, s.Price)
	}
	if len(seats) == 0 {
		fmt.Fprintln(c.out, "None.")
	}
	return nil
}

func (c *Console) book() error {
	flight, err := c.selectFlight()
	if err != nil {
		return err
	}
	seat, err := c.ask("Seat: ")
	if err != nil {
		return err
	}
	name, err := c.ask("Passenger name: ")
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("passenger name is required")
	}
	info, err := c.svc.Book(flight, strings.ToUpper(seat), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Booked with ID %d\n%s\n", info.ID, info)
	return nil
}

func (c *Console) returnSeat() error {
	flight, err := c.selectFlight()
	if err != nil {
		return err
	}
	seat, err := c.ask("Seat: ")
	if err != nil {
		return err
	}
	info, err := c.svc.CancelSeat(flight, strings.ToUpper(seat))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Seat %s returned, ticket %d cancelled.\n", info.SeatCode, info.ID)
	return nil
}

func (c *Console) readTicketID() (int, error) {
	s, err := c.ask("Ticket ID: ")
	if err != nil {
		return 0, err
	}
	return booking.ParseTicketID(s)
}

func (c *Console) cancelTicket() error {
	id, err := c.readTicketID()
	if err != nil {
		return err
	}
	outcome, err := c.svc.CancelTicket(id)
	if err != nil {
		return err
	}
	if outcome == ledger.AlreadyCancelled {
		fmt.Fprintf(c.out, "Ticket %d was already cancelled.\n", id)
		return nil
	}
	fmt.Fprintf(c.out, "Ticket %d cancelled.\n", id)
	return nil
}

func (c *Console) viewTicket() error {
	id, err := c.readTicketID()
	if err != nil {
		return err
	}
	info, err := c.svc.Ticket(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, info)
	return nil
}

func (c *Console) ticketsByPassenger() error {
	name, err := c.ask("Passenger name: ")
	if err != nil {
		return err
	}
	tickets := c.svc.TicketsByPassenger(name)
	if len(tickets) == 0 {
		fmt.Fprintf(c.out, "No tickets for %s.\n", name)
		return nil
	}
	for _, t := range tickets {
		fmt.Fprintf(c.out, "Ticket ID: %d\n%s\n", t.ID, t)
	}
	return nil
}

// describe turns a service error into a message for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrFlightUnknown):
		return "No such flight."
	case errors.Is(err, domain.ErrSeatUnknown):
		return "No such seat on this flight."
	case errors.Is(err, domain.ErrSeatTaken):
		return "Seat is already booked."
	case errors.Is(err, domain.ErrSeatNotBooked):
		return "Seat is not booked."
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTicketUnknown):
		return "Ticket not found."
	}
	return "Error: " + err.Error()
}
