package observability

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flight-seat-ledger/internal/config"
	"github.com/robertarktes/flight-seat-ledger/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 5 * time.Second

// Attribute keys shared by spans and the process resource.
const (
	AttrFlightsLoaded = attribute.Key("fsl.flights.loaded")
	AttrFlightNumber  = attribute.Key("fsl.flight.number")
	AttrFlightDate    = attribute.Key("fsl.flight.date")
	AttrSeat          = attribute.Key("fsl.seat")
	AttrTicketID      = attribute.Key("fsl.ticket.id")
	AttrTicketActive  = attribute.Key("fsl.ticket.active")
)

// SetupOTel installs a global tracer provider exporting to the configured
// OTLP endpoint. With no endpoint it is a no-op. flights is recorded on the
// resource so traces can be told apart by the fleet a process serves.
func SetupOTel(ctx context.Context, cfg *config.Config, service string, flights int) (func(), error) {
	if cfg.OTLPEndpoint == "" {
		return func() {}, nil
	}

	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, errors.Wrap(err, "otlp exporter")
	}

	res, err := resource.New(ctx, resource.WithAttributes(ResourceAttributes(service, flights)...))
	if err != nil {
		return nil, errors.Wrap(err, "otel resource")
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		tp.Shutdown(ctx)
	}, nil
}

// ResourceAttributes describes the process: service name, module version
// from the build info, and the number of flights it loaded.
func ResourceAttributes(service string, flights int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(service),
		AttrFlightsLoaded.Int(flights),
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(bi.Main.Version))
	}
	return attrs
}

// TicketAttributes describes a ticket on a span.
func TicketAttributes(t domain.TicketInfo) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrTicketID.Int(t.ID),
		AttrTicketActive.Bool(t.Active),
		AttrFlightNumber.String(t.FlightNumber),
		AttrFlightDate.String(t.Date),
		AttrSeat.String(t.SeatCode),
	}
}

// AnnotateTicket adds the ticket's attributes to the span in ctx, if any.
func AnnotateTicket(ctx context.Context, t domain.TicketInfo) {
	trace.SpanFromContext(ctx).SetAttributes(TicketAttributes(t)...)
}
