package httpx

import (
	"context"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/licenca-shop/licenca/internal/cache"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	return r
}

// Ops serves the health/readiness/metrics endpoints.
type Ops struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
	Cache *cache.Cache

	start         time.Time
	OrdersCreated atomic.Int64
}

func (o *Ops) Register(r *chi.Mux) {
	o.start = time.Now()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ready", o.ready)
	r.Get("/metrics", o.metrics)
}

func (o *Ops) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := o.DB.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "postgres unreachable"})
		return
	}
	if err := o.Redis.Ping(ctx).Err(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "redis unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (o *Ops) metrics(w http.ResponseWriter, _ *http.Request) {
	m := map[string]any{
		"uptime_seconds": int(time.Since(o.start).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"orders_created": o.OrdersCreated.Load(),
	}
	if o.Cache != nil {
		m["cache_hits"] = o.Cache.Hits()
		m["cache_misses"] = o.Cache.Misses()
	}
	writeJSON(w, http.StatusOK, m)
}
