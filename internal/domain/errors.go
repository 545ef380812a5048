package domain

import "github.com/cockroachdb/errors"

var (
	ErrParse         = errors.New("malformed flight configuration")
	ErrFlightUnknown = errors.New("flight not found")
	ErrSeatUnknown   = errors.New("seat not found")
	ErrSeatTaken     = errors.New("seat already booked")
	ErrSeatNotBooked = errors.New("seat is not booked")
	ErrTicketUnknown = errors.New("ticket not found")
	ErrNotFound      = errors.New("not found")
)
