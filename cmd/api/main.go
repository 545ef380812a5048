package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/flight-seat-ledger/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/flight-seat-ledger/internal/adapters/redis"
	"github.com/robertarktes/flight-seat-ledger/internal/booking"
	"github.com/robertarktes/flight-seat-ledger/internal/config"
	"github.com/robertarktes/flight-seat-ledger/internal/fleet"
	httphandler "github.com/robertarktes/flight-seat-ledger/internal/http"
	"github.com/robertarktes/flight-seat-ledger/internal/idempotency"
	"github.com/robertarktes/flight-seat-ledger/internal/ledger"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
	"github.com/robertarktes/flight-seat-ledger/internal/outbox"
	"github.com/robertarktes/flight-seat-ledger/internal/rateLimit"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flags := pflag.NewFlagSet("flight-api", pflag.ExitOnError)
	flags.StringVarP(&cfg.FlightsFile, "flights", "f", cfg.FlightsFile, "flight configuration file, one flight per line")
	flags.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flags.Parse(os.Args[1:])

	logger := observability.NewLogger(cfg.LogLevel)
	observability.InitMetrics()

	registry := fleet.NewRegistry(ledger.NewSequence())
	n, err := registry.LoadFile(cfg.FlightsFile)
	if err != nil {
		log.Fatalf("failed to load flights: %v", err)
	}
	logger.WithField("flights", n).Info("flights loaded")

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "flight-api", n)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	box := outbox.New(cfg.OutboxCapacity)
	svc := booking.NewService(registry, box, logger)

	var sink outbox.Sink = outbox.LogSink{Logger: logger.WithField("component", "events")}
	if cfg.RabbitURL != "" {
		rabbitConn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer rabbitConn.Close()
		rabbitPub, err := rabbit.NewPublisher(rabbitConn)
		if err != nil {
			log.Fatalf("failed to create publisher: %v", err)
		}
		defer rabbitPub.Close()
		sink = rabbitPub
	}

	var idemp *idempotency.Idempotency
	var rl *rateLimit.RateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		redisCache := redisadapter.NewCache(redisClient)
		if err := redisCache.Ping(context.Background()); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		idemp = idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), cfg.IdempotencyTTL)
		rl = rateLimit.NewRateLimiter(redisCache, logger)
	}

	handlers := httphandler.NewHandlers(svc, idemp, logger)
	r := httphandler.SetupRouter(handlers, logger, rl, cfg.RateLimitPerMinute)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return outbox.NewPublisher(box, sink, logger.WithField("component", "outbox")).Run(gctx, cfg.OutboxInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown Server ...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
