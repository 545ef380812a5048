package flightconfig_test

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
	"github.com/robertarktes/flight-seat-ledger/internal/flightconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatCodes(f flightconfig.Flight) []string {
	codes := make([]string, 0, len(f.Seats))
	for code := range f.Seats {
		codes = append(codes, code)
	}
	return codes
}

func TestParse_SingleRange(t *testing.T) {
	f, err := flightconfig.Parse("11.12.2022 HJ114 2 1-2 10$")
	require.NoError(t, err)

	assert.Equal(t, "11.12.2022", f.Date)
	assert.Equal(t, "HJ114", f.Number)
	assert.Equal(t, 2, f.SeatsPerRow)
	assert.ElementsMatch(t, []string{"1A", "1B", "2A", "2B"}, seatCodes(f))
	for code, seat := range f.Seats {
		assert.Equal(t, 10, seat.Price, code)
		assert.True(t, seat.Available(), code)
		assert.Equal(t, code, seat.Code)
	}
	assert.Equal(t, 1, f.Seats["1B"].Row)
	assert.Equal(t, byte('B'), f.Seats["1B"].Letter)
}

func TestParse_SeatCountMatchesRanges(t *testing.T) {
	f, err := flightconfig.Parse("11.12.2022 HJ114 3 1-10 10$ 11-20 20$")
	require.NoError(t, err)

	assert.Len(t, f.Seats, 3*20)
	assert.Equal(t, 10, f.Seats["10C"].Price)
	assert.Equal(t, 20, f.Seats["11A"].Price)
	assert.Equal(t, 20, f.Seats["20C"].Price)
	_, ok := f.Seats["20D"]
	assert.False(t, ok)
}

func TestParse_OverlapLastWriteWins(t *testing.T) {
	f, err := flightconfig.Parse("01.01.2023 AB1 2 1-3 10$ 3-4 25$")
	require.NoError(t, err)

	assert.Len(t, f.Seats, 2*4)
	assert.Equal(t, 10, f.Seats["2A"].Price)
	assert.Equal(t, 25, f.Seats["3A"].Price)
	assert.Equal(t, 25, f.Seats["3B"].Price)
}

func TestParse_ReversedRangeIsEmpty(t *testing.T) {
	f, err := flightconfig.Parse("01.01.2023 AB1 2 5-3 10$ 1-1 7$")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"1A", "1B"}, seatCodes(f))
}

func TestParse_HighestRow(t *testing.T) {
	f, err := flightconfig.Parse("11.12.2022 HJ114 2 9998-9999 10$")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"9998A", "9998B", "9999A", "9999B"}, seatCodes(f))
}

func TestParse_ExtraSpaces(t *testing.T) {
	f, err := flightconfig.Parse("  11.12.2022   HJ114 1  1-2   10$ ")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"1A", "2A"}, seatCodes(f))
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"missing price":           "11.12.2022 HJ114 2 1-2",
		"too few tokens":          "11.12.2022 HJ114",
		"empty":                   "",
		"dangling range":          "11.12.2022 HJ114 2 1-2 10$ 3-4",
		"no dash":                 "11.12.2022 HJ114 2 12 10$",
		"no dollar":               "11.12.2022 HJ114 2 1-2 10",
		"dollar not trailing":     "11.12.2022 HJ114 2 1-2 $10",
		"non-numeric row":         "11.12.2022 HJ114 2 a-2 10$",
		"non-numeric end row":     "11.12.2022 HJ114 2 1-b 10$",
		"non-numeric price":       "11.12.2022 HJ114 2 1-2 ten$",
		"non-numeric per row":     "11.12.2022 HJ114 two 1-2 10$",
		"zero per row":            "11.12.2022 HJ114 0 1-2 10$",
		"too many per row":        "11.12.2022 HJ114 27 1-2 10$",
		"bad pair after good":     "11.12.2022 HJ114 2 1-2 10$ 3-4 x",
		"negative price":          "11.12.2022 HJ114 2 1-2 -5$",
		"max int row":             "11.12.2022 HJ114 1 9223372036854775807-9223372036854775807 10$",
		"row above limit":         "11.12.2022 HJ114 26 0-100000000 10$",
		"start row above limit":   "11.12.2022 HJ114 2 10000-10000 10$",
		"too many seats":          "11.12.2022 HJ114 26 1-9999 10$",
		"seats summed over pairs": "11.12.2022 HJ114 26 1-1000 10$ 1001-2000 20$",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := flightconfig.Parse(line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrParse), "got %v", err)
			assert.Nil(t, f.Seats)
		})
	}
}

func TestParseLines(t *testing.T) {
	input := strings.Join([]string{
		"# flights for the week",
		"11.12.2022 HJ114 2 1-2 10$",
		"",
		"12.12.2022 HJ115 1 1-3 15$",
	}, "\n")

	flights, err := flightconfig.ParseLines(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, flights, 2)
	assert.Equal(t, "HJ114", flights[0].Number)
	assert.Equal(t, "HJ115", flights[1].Number)
	assert.Len(t, flights[1].Seats, 3)
}

func TestParseLines_ReportsLineNumber(t *testing.T) {
	input := "11.12.2022 HJ114 2 1-2 10$\n11.12.2022 HJ115 2 1-2\n"

	flights, err := flightconfig.ParseLines(strings.NewReader(input))
	require.Error(t, err)
	assert.Nil(t, flights)
	assert.True(t, errors.Is(err, domain.ErrParse))
	assert.Contains(t, err.Error(), "line 2")
}
