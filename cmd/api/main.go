package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/licenca-shop/licenca/internal/auth"
	"github.com/licenca-shop/licenca/internal/cache"
	"github.com/licenca-shop/licenca/internal/cart"
	"github.com/licenca-shop/licenca/internal/catalog"
	"github.com/licenca-shop/licenca/internal/config"
	"github.com/licenca-shop/licenca/internal/httpx"
	kafkax "github.com/licenca-shop/licenca/internal/kafka"
	"github.com/licenca-shop/licenca/internal/licensekeys"
	"github.com/licenca-shop/licenca/internal/orders"
	"github.com/licenca-shop/licenca/internal/postgres"
	"github.com/licenca-shop/licenca/internal/redisx"
	"github.com/licenca-shop/licenca/internal/tenant"
	"github.com/licenca-shop/licenca/internal/users"
	"github.com/licenca-shop/licenca/internal/wallet"
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

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
			log.WithError(err).Fatal("migrate")
		}
	}

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	prod.Start(ctx)

	// repos & services
	userRepo := &users.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}
	cartRepo := &cart.Repo{DB: db}
	keyRepo := &licensekeys.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	checkout := &orders.Service{Store: orderRepo}
	walletSvc := &wallet.Service{Users: userRepo, Orders: orderRepo}
	respCache := &cache.Cache{RDB: rdb, Log: log}

	sessions := &auth.Sessions{RDB: rdb, TTL: time.Duration(cfg.SessionTTLHours) * time.Hour}
	authmw := &auth.Middleware{Sessions: sessions}
	resolver := &tenant.Resolver{Hosts: cfg.TenantHosts, Default: cfg.DefaultTenant}

	router := httpx.NewRouter()
	ops := &httpx.Ops{DB: db, Redis: rdb, Cache: respCache}
	ops.Register(router)

	authH := &httpx.AuthHandler{Users: userRepo, Sessions: sessions, Log: log}
	catalogH := &httpx.CatalogHandler{Store: catalogRepo, Cache: respCache}
	cartH := &httpx.CartHandler{Cart: cartRepo}
	ordersH := &httpx.OrdersHandler{
		Checkout: checkout,
		Orders:   orderRepo,
		Redis:    rdb,
		Producer: prod,
		Ops:      ops,
		Service:  cfg.ServiceName,
	}
	walletH := &httpx.WalletHandler{Wallet: walletSvc}
	adminH := &httpx.AdminHandler{
		Catalog: catalogRepo,
		Users:   userRepo,
		Keys:    keyRepo,
		Orders:  orderRepo,
		Cache:   respCache,
		Log:     log,
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(resolver.Middleware)
		authH.Register(r)
		catalogH.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireUser)
			authH.RegisterMe(r)
			cartH.Register(r)
			ordersH.Register(r)
			walletH.Register(r)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.RequireAdmin)
			adminH.Register(r)
		})
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // close inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
