// Copyright 2026 The Workflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/workflowhq/workflow/internal/audit"
	"github.com/workflowhq/workflow/internal/config"
	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/observability/logger"
	"github.com/workflowhq/workflow/internal/observability/metrics"
	"github.com/workflowhq/workflow/internal/observability/tracing"
	"github.com/workflowhq/workflow/internal/seed"
	"github.com/workflowhq/workflow/internal/store/cache"
	"github.com/workflowhq/workflow/internal/store/memory"
	"github.com/workflowhq/workflow/internal/store/postgres"
	"github.com/workflowhq/workflow/internal/workflow"
	transportHTTP "github.com/workflowhq/workflow/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTelBridge:  cfg.Observability.OTELEnabled,
	})

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg)
	case "migrate":
		err = runMigrate(ctx, cfg)
	case "seed":
		err = runSeed(ctx, cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want serve, migrate or seed)\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		slog.Error(cmd+" failed", logger.Error(err))
		os.Exit(1)
	}
}

// backend holds the repositories for the configured storage.
type backend struct {
	stores       workflow.Stores
	translations i18n.Repository
	health       transportHTTP.HealthChecker
	db           *postgres.DB
}

func (b *backend) Close() {
	if b.db != nil {
		b.db.Close()
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("connected to database", logger.Component("postgres"))
	return db, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		mem, err := memory.New()
		if err != nil {
			return nil, err
		}
		slog.Warn("using in-memory storage; data is lost on exit", logger.Component("store"))
		return &backend{
			stores: workflow.Stores{
				Organizations: mem.Organizations(),
				Programs:      mem.Programs(),
				Activities:    mem.Activities(),
				Memberships:   mem.Memberships(),
				Contacts:      mem.Contacts(),
				Users:         mem.Users(),
			},
			translations: mem.Translations(),
		}, nil
	case config.BackendPostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &backend{
			stores: workflow.Stores{
				Organizations: postgres.NewOrganizationRepository(db),
				Programs:      postgres.NewProgramRepository(db),
				Activities:    postgres.NewActivityRepository(db),
				Memberships:   postgres.NewMembershipRepository(db),
				Contacts:      postgres.NewContactRepository(db),
				Users:         postgres.NewUserRepository(db),
			},
			translations: postgres.NewTranslationRepository(db),
			health:       db,
			db:           db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newIdentityService(cfg *config.Config, users identity.UserRepository, auditLogger audit.Logger) *identity.Service {
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
	return identity.NewService(
		users,
		passwordHasher,
		auditLogger,
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
	)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting workflow api",
		slog.String("version", cfg.Observability.ServiceVersion),
		slog.String("storage", cfg.Storage.Backend),
	)

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
		tracer, _ = tracing.New(ctx, tracing.Config{})
	}
	defer tracer.Shutdown(context.Background())

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize meter: %w", err)
	}
	otelRecorder, err := metrics.NewAuthzRecorder(meter)
	if err != nil {
		return fmt.Errorf("failed to initialize authz counters: %w", err)
	}
	prom := metrics.NewMetrics()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	translations := be.translations
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		translations = cache.NewTranslationCache(translations, client, cfg.Redis.TTL).WithObserver(prom)
		slog.Info("translation cache enabled", logger.Component("cache"), slog.String("addr", cfg.Redis.Addr))
	}

	// Initialize services
	auditLogger := audit.NewSlogLogger()
	identityService := newIdentityService(cfg, be.stores.Users, auditLogger)
	translationService := i18n.NewService(translations, auditLogger)
	workflowService := workflow.NewService(be.stores, auditLogger,
		workflow.WithRecorder(metrics.Tee{prom, otelRecorder}),
	)

	// Run Bootstrap (ENV driven)
	if err := identity.NewBootstrapService(identityService, auditLogger).Bootstrap(ctx); err != nil {
		slog.Error("bootstrap failed", logger.Error(err))
	}

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	handler := transportHTTP.NewHandler(workflowService, translationService, identityService, auditLogger, be.health)
	router := transportHTTP.NewRouter(handler, transportHTTP.RouterConfig{
		RateLimiter:    rateLimiter,
		Metrics:        prom,
		RequestTimeout: cfg.Server.RequestTimeout,
		ServeMetrics:   cfg.Observability.MetricsAddr == "",
	})

	servers := []*http.Server{{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}}
	if cfg.Observability.MetricsAddr != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.Observability.MetricsAddr,
			Handler:           prom.Handler(),
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			slog.Info("starting http server",
				logger.Component("server"),
				logger.Operation("listen"),
				slog.String("addr", srv.Addr),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("applying initial schema", logger.Component("migrate"))
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	slog.Info("migration successful", logger.Component("migrate"))
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	file := fs.String("file", "fixtures.yaml", "path to the YAML fixture file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fixtures, err := seed.LoadFile(*file)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	auditLogger := audit.NewSlogLogger()
	identityService := newIdentityService(cfg, be.stores.Users, auditLogger)

	sum, err := seed.NewLoader(be.stores, be.translations, identityService).Apply(ctx, fixtures)
	if err != nil {
		return err
	}
	slog.Info("seed complete",
		logger.Component("seed"),
		slog.String("file", *file),
		slog.Int("programs", sum.Programs),
		slog.Int("activities", sum.Activities),
	)
	return nil
}
