package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/competition-ledger/config"
	"github.com/Dosada05/competition-ledger/db"
	"github.com/Dosada05/competition-ledger/handlers"
	"github.com/Dosada05/competition-ledger/live"
	"github.com/Dosada05/competition-ledger/payments"
	"github.com/Dosada05/competition-ledger/repositories"
	"github.com/Dosada05/competition-ledger/routes"
	"github.com/Dosada05/competition-ledger/services"
	"github.com/Dosada05/competition-ledger/storage"
)

const shutdownTimeout = 15 * time.Second

// app держит всё, что нужно и серверу, и CLI-командам.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	kv     storage.KVStore
	store  *repositories.Store

	hub      *live.Hub
	tracker  *payments.Tracker
	provider payments.PaymentProvider

	auth         services.AuthService
	competitions services.CompetitionService
	teams        services.TeamService
	ledger       services.LedgerService
	payments     services.PaymentService
	cards        services.CardService
	contact      services.ContactService
	admin        services.AdminService
	leaderboard  services.LeaderboardService
	snapshots    services.SnapshotService
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.KVStore, error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		return storage.NewMemoryStore(), nil
	}

	dbConn, err := db.Connect(cfg.StoreDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlStore, err := storage.NewSQLStore(dbConn, storage.Dialect(cfg.StoreDriver))
	if err != nil {
		dbConn.Close()
		return nil, err
	}
	if err := sqlStore.Migrate(ctx); err != nil {
		sqlStore.Close()
		return nil, err
	}
	logger.Info("database connection established", slog.String("driver", cfg.StoreDriver))
	return sqlStore, nil
}

func newUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.FileUploader, error) {
	r2cfg := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if !r2cfg.Enabled() {
		logger.Info("Cloudflare R2 is not configured, snapshot export disabled")
		return nil, nil
	}
	uploader, err := storage.NewCloudflareR2Uploader(ctx, r2cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
	}
	logger.Info("Cloudflare R2 uploader initialized")
	return uploader, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	kv, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	uploader, err := newUploader(ctx, cfg, logger)
	if err != nil {
		kv.Close()
		return nil, err
	}
	provider, err := payments.NewProvider(cfg.PaymentProvider, cfg.PaymentDelay)
	if err != nil {
		kv.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		kv:       kv,
		store:    repositories.NewStore(kv),
		hub:      live.NewHub(logger),
		tracker:  payments.NewTracker(time.Hour),
		provider: provider,
	}

	a.auth = services.NewAuthService(a.store, cfg.AdminEmails, logger)
	a.competitions = services.NewCompetitionService(a.store, a.hub, logger)
	a.teams = services.NewTeamService(a.store, logger)
	a.ledger = services.NewLedgerService(a.store, provider, a.hub, logger)
	a.payments = services.NewPaymentService(a.store, provider, a.tracker, a.hub, logger)
	a.cards = services.NewCardService(a.store)
	a.contact = services.NewContactService(a.store)
	a.admin = services.NewAdminService(a.store, logger)
	a.leaderboard = services.NewLeaderboardService(a.store)
	a.snapshots = services.NewSnapshotService(a.store, uploader, logger)
	return a, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.tracker.Shutdown(ctx); err != nil {
		a.logger.Error("payment tasks did not finish", slog.Any("error", err))
	}
	if err := a.kv.Close(); err != nil {
		a.logger.Error("failed to close store", slog.Any("error", err))
	}
}

func (a *app) writeSnapshotFile(ctx context.Context, path string) error {
	snap, err := a.snapshots.Dump(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	a.logger.Info("snapshot written", slog.String("path", path))
	return nil
}

func (a *app) router() http.Handler {
	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:        handlers.NewAuthHandler(a.auth, a.cfg.JWTSecretKey, a.cfg.TokenTTL),
		User:        handlers.NewUserHandler(a.auth, a.teams),
		Team:        handlers.NewTeamHandler(a.teams),
		Competition: handlers.NewCompetitionHandler(a.competitions),
		Ledger:      handlers.NewLedgerHandler(a.ledger),
		Payment:     handlers.NewPaymentHandler(a.payments),
		Card:        handlers.NewCardHandler(a.cards),
		Contact:     handlers.NewContactHandler(a.contact),
		Dashboard:   handlers.NewDashboardHandler(a.admin, a.leaderboard),
		Admin:       handlers.NewAdminHandler(a.admin, a.snapshots),
		WebSocket:   handlers.NewWebSocketHandler(a.hub, a.ledger, a.cfg.AllowedOrigins),
	}, routes.Options{
		JWTSecret:       a.cfg.JWTSecretKey,
		AllowedOrigins:  a.cfg.AllowedOrigins,
		RateLimit:       a.cfg.RateLimit,
		RateLimitWindow: a.cfg.RateLimitWindow,
	})
	return router
}

// runScheduler периодически переводит соревнования по статусам согласно датам.
func (a *app) runScheduler(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.SchedulerInterval)
	defer ticker.Stop()
	a.logger.Info("competition status scheduler started", slog.Duration("interval", a.cfg.SchedulerInterval))

	run := func() {
		n, err := a.competitions.AutoUpdateStatusesByDates(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				a.logger.Error("scheduler: status update failed", slog.Any("error", err))
			}
			return
		}
		if n > 0 {
			a.logger.Info("scheduler: competition statuses updated", slog.Int("updated", n))
		}
	}

	// Run once immediately at startup, then on ticker
	run()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			run()
		}
	}
}

func runServer(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      a.router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second, // ?wait=true ждёт платёж до 30s
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return a.runScheduler(gctx)
	})
	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("application exited")
	return err
}
