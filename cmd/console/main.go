// Command console is the interactive menu for booking seats on the
// flights listed in a configuration file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robertarktes/flight-seat-ledger/internal/booking"
	"github.com/robertarktes/flight-seat-ledger/internal/config"
	"github.com/robertarktes/flight-seat-ledger/internal/console"
	"github.com/robertarktes/flight-seat-ledger/internal/fleet"
	"github.com/robertarktes/flight-seat-ledger/internal/ledger"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
	"github.com/robertarktes/flight-seat-ledger/internal/outbox"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var flightLines []string
	var events bool
	flags := pflag.NewFlagSet("console", pflag.ContinueOnError)
	flags.StringVarP(&cfg.FlightsFile, "flights", "f", cfg.FlightsFile, "flight configuration file, one flight per line")
	flags.StringArrayVarP(&flightLines, "flight", "c", nil, "flight configuration line (repeatable, replaces --flights)")
	flags.StringVar(&cfg.LogLevel, "log-level", "warn", "log level (logs go to stderr)")
	flags.BoolVar(&events, "events", false, "log ticket events to stderr")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel)
	registry := fleet.NewRegistry(ledger.NewSequence())
	if len(flightLines) > 0 {
		if _, err := registry.Load(strings.NewReader(strings.Join(flightLines, "\n"))); err != nil {
			return err
		}
	} else if _, err := registry.LoadFile(cfg.FlightsFile); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupOTel(ctx, cfg, "flight-console", registry.Len())
	if err != nil {
		return err
	}
	defer shutdown()

	var box *outbox.Outbox
	if events {
		box = outbox.New(cfg.OutboxCapacity)
		publisher := outbox.NewPublisher(box, outbox.LogSink{Logger: observability.NewLogger("info").WithField("component", "events")}, logger)
		go publisher.Run(ctx, cfg.OutboxInterval)
	}

	svc := booking.NewService(registry, box, logger)
	c := console.New(svc, os.Stdin, os.Stdout,
		console.WithClearScreen(term.IsTerminal(int(os.Stdout.Fd()))))
	return c.Run(ctx)
}
