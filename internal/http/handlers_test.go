package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	redisadapter "github.com/robertarktes/flight-seat-ledger/internal/adapters/redis"
	"github.com/robertarktes/flight-seat-ledger/internal/booking"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
	"github.com/robertarktes/flight-seat-ledger/internal/fleet"
	httphandler "github.com/robertarktes/flight-seat-ledger/internal/http"
	"github.com/robertarktes/flight-seat-ledger/internal/idempotency"
	"github.com/robertarktes/flight-seat-ledger/internal/ledger"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
	"github.com/robertarktes/flight-seat-ledger/internal/rateLimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryReplies struct {
	mu      sync.Mutex
	replies map[string]*redisadapter.StoredReply
}

func (m *memoryReplies) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.replies[key]; ok {
		return false, nil
	}
	m.replies[key] = nil
	return true, nil
}

func (m *memoryReplies) Get(_ context.Context, key string) (*redisadapter.StoredReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replies[key], nil
}

func (m *memoryReplies) Save(_ context.Context, key string, reply redisadapter.StoredReply, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[key] = &reply
	return nil
}

func (m *memoryReplies) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.replies, key)
	return nil
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	reg := fleet.NewRegistry(ledger.NewSequence())
	_, err := reg.Load(strings.NewReader("11.12.2022 HJ114 2 1-2 10$\n"))
	require.NoError(t, err)
	logger := observability.NewNopLogger()
	svc := booking.NewService(reg, nil, logger)
	idemp := idempotency.NewIdempotency(&memoryReplies{replies: map[string]*redisadapter.StoredReply{}}, time.Hour)
	return httphandler.SetupRouter(httphandler.NewHandlers(svc, idemp, logger), logger, nil, 0)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seatCodes(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var seats []domain.AvailableSeat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seats))
	out := make([]string, len(seats))
	for i, s := range seats {
		out[i] = s.Code
	}
	return out
}

func TestAPI_BookViewCancel(t *testing.T) {
	srv := newServer(t)

	rec := do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"1A","passenger":"John"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ticket domain.TicketInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	assert.Equal(t, 1, ticket.ID)
	assert.Equal(t, 10, ticket.Price)

	rec = do(t, srv, http.MethodGet, "/v1/flights/1/seats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"1B", "2A", "2B"}, seatCodes(t, rec))

	rec = do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"1A","passenger":"Jane"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/v1/tickets/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ticket_id":1,"status":"cancelled"}`, rec.Body.String())

	rec = do(t, srv, http.MethodDelete, "/v1/tickets/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ticket_id":1,"status":"already cancelled"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/v1/tickets/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	assert.False(t, ticket.Active)

	rec = do(t, srv, http.MethodGet, "/v1/flights/1/seats", "")
	assert.ElementsMatch(t, []string{"1A", "1B", "2A", "2B"}, seatCodes(t, rec))
}

func TestAPI_ErrorMapping(t *testing.T) {
	srv := newServer(t)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/v1/flights/9/seats", "", http.StatusNotFound},
		{http.MethodGet, "/v1/flights/x/seats", "", http.StatusBadRequest},
		{http.MethodPost, "/v1/flights/1/bookings", `{"seat":"9Z","passenger":"John"}`, http.StatusNotFound},
		{http.MethodPost, "/v1/flights/1/bookings", `{"seat":"1A"}`, http.StatusBadRequest},
		{http.MethodPost, "/v1/flights/1/bookings", `not json`, http.StatusBadRequest},
		{http.MethodDelete, "/v1/flights/1/seats/2B", "", http.StatusConflict},
		{http.MethodDelete, "/v1/flights/1/seats/7Q", "", http.StatusNotFound},
		{http.MethodGet, "/v1/tickets/77", "", http.StatusNotFound},
		{http.MethodGet, "/v1/tickets/abc", "", http.StatusBadRequest},
		{http.MethodDelete, "/v1/tickets/77", "", http.StatusNotFound},
		{http.MethodGet, "/v1/tickets", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := do(t, srv, tc.method, tc.path, tc.body)
		assert.Equal(t, tc.want, rec.Code, "%s %s: %s", tc.method, tc.path, rec.Body.String())
	}
}

func TestAPI_ValidationDetails(t *testing.T) {
	srv := newServer(t)

	rec := do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"1-A"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Details, "Seat")
	assert.Contains(t, resp.Details, "Passenger")
}

func TestAPI_CancelSeat(t *testing.T) {
	srv := newServer(t)

	rec := do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"2B","passenger":"John"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/v1/flights/1/seats/2B", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ticket domain.TicketInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	assert.Equal(t, 1, ticket.ID)
	assert.False(t, ticket.Active)
}

func TestAPI_TicketsByPassenger(t *testing.T) {
	srv := newServer(t)

	do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"1A","passenger":"Alice"}`)
	do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"1B","passenger":"alice"}`)
	do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"2A","passenger":"Alice"}`)

	rec := do(t, srv, http.MethodGet, "/v1/tickets?passenger=Alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tickets []domain.TicketInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	require.Len(t, tickets, 2)
	assert.Equal(t, 1, tickets[0].ID)
	assert.Equal(t, 3, tickets[1].ID)

	rec = do(t, srv, http.MethodGet, "/v1/tickets?passenger=Nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAPI_IdempotentBooking(t *testing.T) {
	srv := newServer(t)
	key := []string{"Idempotency-Key", "0f7c2a1e-booking-1"}

	first := do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"1A","passenger":"John"}`, key...)
	require.Equal(t, http.StatusCreated, first.Code)

	replay := do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"1A","passenger":"John"}`, key...)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	rec := do(t, srv, http.MethodGet, "/v1/tickets?passenger=John", "")
	var tickets []domain.TicketInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	assert.Len(t, tickets, 1)
}

func TestAPI_FailedBookingReleasesKey(t *testing.T) {
	srv := newServer(t)
	key := []string{"Idempotency-Key", "0f7c2a1e-booking-2"}

	rec := do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"9Z","passenger":"John"}`, key...)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/v1/flights/1/bookings", `{"seat":"1A","passenger":"John"}`, key...)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAPI_Probes(t *testing.T) {
	srv := newServer(t)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/readyz", "").Code)

	rec := do(t, srv, http.MethodGet, "/v1/flights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var flights []fleet.FlightSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flights))
	require.Len(t, flights, 1)
	assert.Equal(t, "HJ114", flights[0].Number)
}

type countingLimiter struct{ n int64 }

func (c *countingLimiter) Incr(context.Context, string, time.Duration) (int64, error) {
	c.n++
	return c.n, nil
}

func TestAPI_RateLimit(t *testing.T) {
	reg := fleet.NewRegistry(ledger.NewSequence())
	logger := observability.NewNopLogger()
	svc := booking.NewService(reg, nil, logger)
	rl := rateLimit.NewRateLimiter(&countingLimiter{}, logger)
	srv := httphandler.SetupRouter(httphandler.NewHandlers(svc, nil, logger), logger, rl, 2)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/flights", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/flights", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, srv, http.MethodGet, "/v1/flights", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/healthz", "").Code)
}
