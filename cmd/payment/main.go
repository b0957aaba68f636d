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
	"github.com/RashedShahabi/order-system-project/internal/logging"
	"github.com/RashedShahabi/order-system-project/internal/payment"
	"github.com/RashedShahabi/order-system-project/internal/postgres"
	"github.com/RashedShahabi/order-system-project/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	service := cfg.ServiceName + "-payment"
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

	repo := &payment.Repo{DB: db}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("schema bootstrap", "err", err)
		os.Exit(1)
	}

	prod := bus.NewProducer(cfg.KafkaBrokers, service)
	defer prod.Close()

	svc := &payment.Service{
		Store:          repo,
		Bus:            prod,
		Log:            log,
		Ceiling:        cfg.AuthCeiling,
		RecordRejected: cfg.RecordRejectedPayments,
	}
	dedup := &redisx.Deduper{Client: rdb, TTL: redisx.TTLDedup}

	hc := health.NewChecker()
	router := httpx.NewRouter(hc)
	(&payment.Handler{Store: repo, Log: log}).Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	consumers := []*bus.Consumer{{
		Log:     log,
		Brokers: cfg.KafkaBrokers,
		Queue:   bus.QueuePaymentStockReserved,
		Topics:  []string{string(event.KindStockReserved)},
		Service: service,
		Handler: svc.HandleEvent,
		Dedup:   dedup,
		DLQ:     prod,
		Health:  hc,
	}}
	if cfg.RecordRejectedPayments {
		consumers = append(consumers, &bus.Consumer{
			Log:     log,
			Brokers: cfg.KafkaBrokers,
			Queue:   bus.QueuePaymentStockRejected,
			Topics:  []string{string(event.KindStockRejected)},
			Service: service,
			Handler: svc.HandleEvent,
			Dedup:   dedup,
			DLQ:     prod,
			Health:  hc,
		})
	}

	hc.SetReady(true)

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		c := c
		g.Go(func() error { return c.Run(ctx) })
	}
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
