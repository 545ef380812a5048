package domain

import (
	"fmt"
	"strconv"
)

// Seat is one entry of a flight's seat inventory. Holder is the id of the
// active ticket on the seat, 0 while the seat is available.
type Seat struct {
	Code   string
	Row    int
	Letter byte
	Price  int
	Holder int
}

func (s Seat) Available() bool {
	return s.Holder == 0
}

func SeatCode(row int, letter byte) string {
	return strconv.Itoa(row) + string(letter)
}

type Ticket struct {
	ID           int
	Passenger    string
	SeatCode     string
	FlightNumber string
	Date         string
	Price        int
	Active       bool
}

func (t Ticket) Info() TicketInfo {
	return TicketInfo{
		ID:           t.ID,
		Passenger:    t.Passenger,
		FlightNumber: t.FlightNumber,
		Date:         t.Date,
		SeatCode:     t.SeatCode,
		Price:        t.Price,
		Active:       t.Active,
	}
}

// TicketInfo is the read-only view of a ticket handed out by lookups.
type TicketInfo struct {
	ID           int    `json:"id"`
	Passenger    string `json:"passenger"`
	FlightNumber string `json:"flight_number"`
	Date         string `json:"date"`
	SeatCode     string `json:"seat"`
	Price        int    `json:"price"`
	Active       bool   `json:"active"`
}

func (i TicketInfo) String() string {
	if !i.Active {
		return fmt.Sprintf("Ticket ID: %d is cancelled.", i.ID)
	}
	return fmt.Sprintf("Flight Number: %s\nDate: %s\nSeat: %s\nPrice: $%d",
		i.FlightNumber, i.Date, i.SeatCode, i.Price)
}

type AvailableSeat struct {
	Code  string `json:"seat"`
	Price int    `json:"price"`
}
