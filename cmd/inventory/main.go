package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/RashedShahabi/order-system-project/internal/bus"
	"github.com/RashedShahabi/order-system-project/internal/config"
	"github.com/RashedShahabi/order-system-project/internal/event"
	"github.com/RashedShahabi/order-system-project/internal/health"
	"github.com/RashedShahabi/order-system-project/internal/httpx"
	"github.com/RashedShahabi/order-system-project/internal/inventory"
	"github.com/RashedShahabi/order-system-project/internal/logging"
	"github.com/RashedShahabi/order-system-project/internal/postgres"
	"github.com/RashedShahabi/order-system-project/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	service := cfg.ServiceName + "-inventory"
	log := logging.New(service)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.WaitConnect(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	repo := &inventory.Repo{DB: db}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("schema bootstrap", "err", err)
		os.Exit(1)
	}

	prod := bus.NewProducer(cfg.KafkaBrokers, service)
	defer prod.Close()

	svc := &inventory.Service{Store: repo, Bus: prod, Log: log}
	dedup := &redisx.Deduper{Client: rdb, TTL: redisx.TTLDedup}

	hc := health.NewChecker()
	router := httpx.NewRouter(hc)
	(&inventory.Handler{Store: repo, Log: log}).Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// Two logical reactions, two durable queues: reservation and
	// compensation proceed independently.
	reserve := &bus.Consumer{
		Log:     log,
		Brokers: cfg.KafkaBrokers,
		Queue:   bus.QueueInventoryOrderCreated,
		Topics:  []string{string(event.KindOrderCreated)},
		Service: service,
		Handler: svc.HandleEvent,
		Dedup:   dedup,
		DLQ:     prod,
		Health:  hc,
	}
	compensate := &bus.Consumer{
		Log:     log,
		Brokers: cfg.KafkaBrokers,
		Queue:   bus.QueueInventoryPaymentFailed,
		Topics:  []string{string(event.KindPaymentFailed)},
		Service: service,
		Handler: svc.HandleEvent,
		Dedup:   dedup,
		DLQ:     prod,
		Health:  hc,
	}

	hc.SetReady(true)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reserve.Run(ctx) })
	g.Go(func() error { return compensate.Run(ctx) })
	g.Go(func() error {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("service exited", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
