package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/licenca-shop/licenca/internal/config"
	"github.com/licenca-shop/licenca/internal/fulfillment"
	kafkax "github.com/licenca-shop/licenca/internal/kafka"
	"github.com/licenca-shop/licenca/internal/orders"
	"github.com/licenca-shop/licenca/internal/postgres"
	"github.com/licenca-shop/licenca/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderFinalized, 1024, log)
	prod.Start(ctx)

	svc := &fulfillment.Service{
		Store:       &orders.Repo{DB: db},
		Redis:       rdb,
		Producer:    prod,
		Log:         log,
		ServiceName: cfg.ServiceName + "-fulfillment",
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.FulfillmentGroup,
		orders.TopicOrderCreated, cfg.FulfillmentWorkers, log)

	// liveness endpoint for the worker deployment
	health := &http.Server{Addr: cfg.HealthAddr, Handler: http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"group":   cfg.FulfillmentGroup,
			"topic":   orders.TopicOrderCreated,
			"workers": cfg.FulfillmentWorkers,
		}).Info("fulfillment consumer started")
		return cons.Start(gctx, svc.HandleOrderCreated)
	})
	g.Go(func() error {
		if err := health.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		return health.Shutdown(shutdownCtx)
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer...")
	cancel()

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("worker exit")
	}
	prod.Close()
	prod.WaitClosed()
}
