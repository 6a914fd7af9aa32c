// Command realtime runs the multi-tenant realtime event distribution
// service: the websocket gateway, the connection registry, and the broker
// bridge.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	rthttp "github.com/elevatecrm/realtime/internal/adapter/http"
	"github.com/elevatecrm/realtime/internal/adapter/natsbus"
	"github.com/elevatecrm/realtime/internal/adapter/otel"
	"github.com/elevatecrm/realtime/internal/adapter/postgres"
	"github.com/elevatecrm/realtime/internal/adapter/redisbus"
	"github.com/elevatecrm/realtime/internal/adapter/ristretto"
	"github.com/elevatecrm/realtime/internal/adapter/ws"
	"github.com/elevatecrm/realtime/internal/config"
	"github.com/elevatecrm/realtime/internal/logger"
	"github.com/elevatecrm/realtime/internal/port/directory"
	"github.com/elevatecrm/realtime/internal/port/eventbus"
	"github.com/elevatecrm/realtime/internal/registry"
	"github.com/elevatecrm/realtime/internal/router"
	"github.com/elevatecrm/realtime/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"broker", cfg.Broker.Driver,
		"log_level", cfg.Logging.Level,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// Broker connect failure is non-fatal: the service runs with real-time
	// delivery degraded rather than taking the process down.
	bus := connectBroker(ctx, cfg.Broker)
	if bus != nil {
		defer func() { _ = bus.Close() }()
	}

	// Tenant directory: optional, only needed for tokens without a
	// tenant_id claim.
	var dir directory.Directory
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		dir = postgres.NewDirectory(pool)
		slog.Info("postgres connected")
	}

	claimsCache, err := ristretto.New[service.Claims](cfg.Auth.ClaimsCacheSize)
	if err != nil {
		return fmt.Errorf("claims cache: %w", err)
	}
	defer claimsCache.Close()

	// --- Services ---

	reg := registry.New()
	authSvc := service.NewAuthService(cfg.Auth.JWTSecret, claimsCache, dir)
	realtimeSvc := service.NewRealtimeService(bus, metrics)
	rtr := router.New(bus, reg, metrics)
	gateway := ws.NewGateway(authSvc, realtimeSvc, reg, rtr, metrics)

	// --- HTTP ---

	r := chi.NewRouter()
	r.Use(rthttp.CORS(cfg.Server.CORSOrigin))
	r.Use(rthttp.RequestID)
	r.Use(rthttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	handlers := &rthttp.Handlers{Registry: reg, Bus: bus}
	rthttp.MountRoutes(r, handlers, gateway.HandleWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// connectBroker dials the configured broker, returning nil on failure so
// callers degrade instead of crashing.
func connectBroker(ctx context.Context, cfg config.Broker) eventbus.Bus {
	var (
		bus eventbus.Bus
		err error
	)
	switch cfg.Driver {
	case "nats":
		bus, err = natsbus.Connect(cfg.NATSURL, cfg.ChannelPrefix, cfg.ConnectTimeout)
	default:
		bus, err = redisbus.Connect(ctx, cfg.RedisURL, cfg.ChannelPrefix, cfg.ConnectTimeout)
	}
	if err != nil {
		slog.Error("broker connect failed, realtime delivery degraded", "driver", cfg.Driver, "error", err)
		return nil
	}
	return bus
}
