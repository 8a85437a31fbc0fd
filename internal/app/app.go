// Package app wires the application together: configuration, logger,
// telemetry, store, the entitlement state machine, the bootstrap gate, and
// the HTTP router. Everything is passed explicitly; there are no ambient
// singletons.
package app

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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"poscore/internal/accounts"
	"poscore/internal/config"
	"poscore/internal/infrastructure"
	"poscore/internal/license"
	posmiddleware "poscore/internal/middleware"
	"poscore/internal/security"
	"poscore/internal/services"
	"poscore/internal/store"
	transport "poscore/internal/transport/http"
)

// Version is stamped at build time.
var Version = "dev"

const serviceName = "pos-entitlement-core"

// Application is the assembled service.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Router  *chi.Mux
	Server  *http.Server
	Manager *license.Manager
	Gate    *accounts.Gate
	otel    *infrastructure.OTelProviders
}

// New builds the application from configuration.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds the application from an explicit configuration, for
// tests.
func NewWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("service", serviceName),
		slog.String("version", Version),
	)

	otelProviders, err := infrastructure.InitializeOTel(serviceName, Version, cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	kv, err := store.NewFileStore(cfg.StorePath(), logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	issuerKey, err := cfg.IssuerKey()
	if err != nil {
		return nil, err
	}
	codec, err := license.NewCodec(issuerKey, []byte(cfg.Security.EnvelopeSecret))
	if err != nil {
		return nil, fmt.Errorf("build license codec: %w", err)
	}

	metrics, err := license.NewMetrics(otelProviders.Meter("poscore/license"))
	if err != nil {
		return nil, fmt.Errorf("register entitlement metrics: %w", err)
	}

	fingerprints := security.NewGenerator(logger)
	manager := license.NewManager(kv, codec, fingerprints, logger, metrics)
	gate := accounts.NewGate(kv, logger, cfg.Security.BcryptCost)

	entitlementSvc := services.NewEntitlementService(manager, logger)
	accountsSvc := services.NewAccountsService(gate, logger)

	limiter := rate.NewLimiter(rate.Limit(cfg.Security.ActivationRPS), cfg.Security.ActivationBurst)

	router := buildRouter(cfg, logger, otelProviders,
		transport.NewEntitlementHandler(entitlementSvc, logger, limiter),
		transport.NewAccountsHandler(accountsSvc, logger),
		manager,
	)

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Router:  router,
		Server:  server,
		Manager: manager,
		Gate:    gate,
		otel:    otelProviders,
	}, nil
}

func buildRouter(cfg *config.Config, logger *slog.Logger, otel *infrastructure.OTelProviders,
	entitlement *transport.EntitlementHandler, accountsHandler *transport.AccountsHandler,
	manager *license.Manager) *chi.Mux {

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	health := transport.NewHealthHandler(Version)
	r.Get("/healthz", health.Healthz)
	r.Handle("/metrics", promhttp.HandlerFor(otel.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/entitlement", entitlement.Routes())
		r.Mount("/accounts", accountsHandler.Routes())
		r.Mount("/admin", accountsHandler.AdminRoutes())

		// Everything the surrounding POS application mounts below /app is
		// gated on a live entitlement.
		r.Route("/app", func(r chi.Router) {
			r.Use(posmiddleware.RequireEntitlement(manager, logger))
			r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"status":"entitled"}`))
			})
		})
	})

	return r
}

// Run serves until the context is cancelled or a termination signal arrives,
// then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		a.Logger.Info("shutting down")
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return a.otel.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
