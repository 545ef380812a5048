// Package flightconfig reads flight configuration lines of the form
//
//	<date> <flight> <seatsPerRow> <startRow>-<endRow> <price>$ [<range> <price>$ ...]
//
// into a seat inventory.
package flightconfig

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
)

const (
	maxSeatsPerRow = 26
	maxRow         = 9999
	maxSeats       = 50000
)

// Flight is the parsed form of one configuration line.
type Flight struct {
	Number      string
	Date        string
	SeatsPerRow int
	Seats       map[string]domain.Seat
}

func Parse(line string) (Flight, error) {
	tokens := tokenize(line)
	if len(tokens) < 5 {
		return Flight{}, parseErrorf("expected date, flight number, seats per row and at least one range/price pair, got %d tokens", len(tokens))
	}
	if (len(tokens)-3)%2 != 0 {
		return Flight{}, parseErrorf("range %q has no price", tokens[len(tokens)-1])
	}

	seatsPerRow, err := strconv.Atoi(tokens[2])
	if err != nil {
		return Flight{}, errors.Mark(errors.Wrapf(err, "seats per row %q", tokens[2]), domain.ErrParse)
	}
	if seatsPerRow < 1 || seatsPerRow > maxSeatsPerRow {
		return Flight{}, parseErrorf("seats per row %d out of range 1..%d", seatsPerRow, maxSeatsPerRow)
	}

	f := Flight{
		Date:        tokens[0],
		Number:      tokens[1],
		SeatsPerRow: seatsPerRow,
		Seats:       make(map[string]domain.Seat),
	}

	total := 0
	for i := 3; i+1 < len(tokens); i += 2 {
		start, end, err := parseRange(tokens[i])
		if err != nil {
			return Flight{}, err
		}
		price, err := parsePrice(tokens[i+1])
		if err != nil {
			return Flight{}, err
		}
		if start <= end {
			total += (end - start + 1) * seatsPerRow
			if total > maxSeats {
				return Flight{}, parseErrorf("flight declares %d seats, limit is %d", total, maxSeats)
			}
		}
		for row := start; row <= end; row++ {
			for n := 0; n < seatsPerRow; n++ {
				letter := byte('A' + n)
				code := domain.SeatCode(row, letter)
				f.Seats[code] = domain.Seat{Code: code, Row: row, Letter: letter, Price: price}
			}
		}
	}
	return f, nil
}

// ParseLines parses one flight per line. Blank lines and lines starting
// with '#' are skipped. The first bad line aborts with its line number.
func ParseLines(r io.Reader) ([]Flight, error) {
	var flights []Flight
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f, err := Parse(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		flights = append(flights, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read flight configuration")
	}
	return flights, nil
}

func tokenize(line string) []string {
	var tokens []string
	for _, t := range strings.Split(line, " ") {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func parseRange(token string) (int, int, error) {
	from, to, ok := strings.Cut(token, "-")
	if !ok {
		return 0, 0, parseErrorf("row range %q has no '-'", token)
	}
	start, err := strconv.Atoi(from)
	if err != nil || start < 0 {
		return 0, 0, parseErrorf("row range %q: bad start row", token)
	}
	if start > maxRow {
		return 0, 0, parseErrorf("row range %q: start row above %d", token, maxRow)
	}
	end, err := strconv.Atoi(to)
	if err != nil || end < 0 {
		return 0, 0, parseErrorf("row range %q: bad end row", token)
	}
	if end > maxRow {
		return 0, 0, parseErrorf("row range %q: end row above %d", token, maxRow)
	}
	return start, end, nil
}

func parsePrice(token string) (int, error) {
	amount, ok := strings.CutSuffix(token, "$")
	if !ok {
		return 0, parseErrorf("price %q has no trailing '$'", token)
	}
	price, err := strconv.Atoi(amount)
	if err != nil || price < 0 {
		return 0, parseErrorf("price %q is not a non-negative integer", token)
	}
	return price, nil
}

func parseErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), domain.ErrParse)
}
