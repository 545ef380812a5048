// Command ticket-events follows the ticket events published by flight-api
// and logs each one.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/flight-seat-ledger/internal/adapters/rabbit"
	"github.com/robertarktes/flight-seat-ledger/internal/config"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
	"github.com/robertarktes/flight-seat-ledger/internal/outbox"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var queue string
	var keys []string
	flags := pflag.NewFlagSet("ticket-events", pflag.ExitOnError)
	flags.StringVar(&cfg.RabbitURL, "rabbit-url", cfg.RabbitURL, "AMQP URL")
	flags.StringVarP(&queue, "queue", "q", "tickets.log", "queue to bind to the events exchange")
	flags.StringArrayVarP(&keys, "key", "k", nil, "routing key to bind (repeatable, default ticket.*)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flags.Parse(os.Args[1:])

	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL or --rabbit-url is required")
	}

	logger := observability.NewLogger(cfg.LogLevel)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, queue, keys...)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithField("queue", queue).Info("following ticket events")
	err = consumer.Run(ctx,
		func(e outbox.Event) error {
			logger.WithFields(map[string]interface{}{
				"event_id":  e.ID.String(),
				"ticket_id": e.TicketID,
				"flight":    e.FlightNumber,
				"date":      e.Date,
				"seat":      e.Seat,
				"passenger": e.Passenger,
				"price":     e.Price,
			}).Info(e.Type)
			return nil
		},
		func(d amqp.Delivery, err error) {
			logger.WithError(err).WithField("routing_key", d.RoutingKey).Warn("skipping message")
		})
	if err != nil {
		logger.WithError(err).Error("consumer stopped")
	}
	logger.Info("Shutdown ticket events")
}
