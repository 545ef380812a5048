package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/robertarktes/flight-seat-ledger/internal/booking"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
	"github.com/robertarktes/flight-seat-ledger/internal/idempotency"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
)

type Handlers struct {
	svc      *booking.Service
	idemp    *idempotency.Idempotency
	validate *validator.Validate
	logger   observability.Logger
}

// NewHandlers builds the API handlers. idemp may be nil, in which case
// Idempotency-Key headers are ignored.
func NewHandlers(svc *booking.Service, idemp *idempotency.Idempotency, logger observability.Logger) *Handlers {
	return &Handlers{
		svc:      svc,
		idemp:    idemp,
		validate: validator.New(),
		logger:   logger,
	}
}

type bookingRequest struct {
	Seat      string `json:"seat" validate:"required,alphanum,max=8"`
	Passenger string `json:"passenger" validate:"required,max=128"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func (h *Handlers) ListFlights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Flights())
}

func (h *Handlers) AvailableSeats(w http.ResponseWriter, r *http.Request) {
	flight, ok := flightParam(w, r)
	if !ok {
		return
	}
	seats, err := h.svc.AvailableSeats(flight)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seats)
}

func (h *Handlers) BookSeat(w http.ResponseWriter, r *http.Request) {
	flight, ok := flightParam(w, r)
	if !ok {
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, validationResponse(err))
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idemp != nil {
		existing, err := h.idemp.Begin(r.Context(), key)
		if errors.Is(err, idempotency.ErrInFlight) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		if err != nil {
			h.writeError(w, err)
			return
		}
		if existing != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(existing.Status)
			w.Write(existing.Result)
			return
		}
	}

	info, err := h.svc.Book(flight, req.Seat, req.Passenger)
	if err != nil {
		if key != "" && h.idemp != nil {
			h.idemp.Abort(r.Context(), key)
		}
		h.writeError(w, err)
		return
	}

	observability.AnnotateTicket(r.Context(), info)
	var body bytes.Buffer
	json.NewEncoder(&body).Encode(info)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(body.Bytes())

	if key != "" && h.idemp != nil {
		if err := h.idemp.Finish(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: body.Bytes()}); err != nil {
			h.logger.WithError(err).Warn("failed to store idempotent reply")
		}
	}
}

func (h *Handlers) CancelSeat(w http.ResponseWriter, r *http.Request) {
	flight, ok := flightParam(w, r)
	if !ok {
		return
	}
	info, err := h.svc.CancelSeat(flight, chi.URLParam(r, "seat"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	observability.AnnotateTicket(r.Context(), info)
	writeJSON(w, http.StatusOK, info)
}

func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketParam(w, r)
	if !ok {
		return
	}
	info, err := h.svc.Ticket(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	observability.AnnotateTicket(r.Context(), info)
	writeJSON(w, http.StatusOK, info)
}

func (h *Handlers) CancelTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketParam(w, r)
	if !ok {
		return
	}
	outcome, err := h.svc.CancelTicket(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticket_id": id,
		"status":    outcome.String(),
	})
}

func (h *Handlers) TicketsByPassenger(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("passenger")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "passenger query parameter is required"})
		return
	}
	tickets := h.svc.TicketsByPassenger(name)
	if tickets == nil {
		tickets = []domain.TicketInfo{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if len(h.svc.Flights()) == 0 {
		http.Error(w, "no flights loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrFlightUnknown),
		errors.Is(err, domain.ErrSeatUnknown),
		errors.Is(err, domain.ErrTicketUnknown),
		errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSeatTaken),
		errors.Is(err, domain.ErrSeatNotBooked):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func validationResponse(err error) errorResponse {
	resp := errorResponse{Error: "validation failed", Details: map[string]string{}}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Details[fe.Field()] = "failed on '" + fe.Tag() + "'"
		}
	}
	return resp
}

func flightParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "flight"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid flight"})
		return 0, false
	}
	return n, true
}

func ticketParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := booking.ParseTicketID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid ticket id"})
		return 0, false
	}
	return id, true
}
