package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketInfo_String(t *testing.T) {
	info := Ticket{ID: 3, Passenger: "John Doe", SeatCode: "10A", FlightNumber: "HJ114", Date: "11.12.2022", Price: 10, Active: true}.Info()

	assert.Equal(t, "Flight Number: HJ114\nDate: 11.12.2022\nSeat: 10A\nPrice: $10", info.String())

	info.Active = false
	assert.Equal(t, "Ticket ID: 3 is cancelled.", info.String())
}

func TestSeat(t *testing.T) {
	assert.Equal(t, "10A", SeatCode(10, 'A'))
	assert.True(t, Seat{Code: "1A"}.Available())
	assert.False(t, Seat{Code: "1A", Holder: 4}.Available())
}
