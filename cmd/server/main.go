package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"salon_admin/internal/backend"
	"salon_admin/internal/config"
	"salon_admin/internal/handler"
	"salon_admin/internal/model"
	"salon_admin/internal/repository"
	"salon_admin/internal/service"
	"salon_admin/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Session Storage ---
	var dbPool *pgxpool.Pool
	var store repository.SessionStore
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		dbPool, err = config.ConnectDB(ctx, cfg.Postgres.DSN())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := config.AutoMigrate(ctx, dbPool); err != nil {
			logger.Error("Failed to auto-migrate database", "error", err)
			os.Exit(1)
		}
		store = repository.NewPostgresSessionStore(dbPool, cfg.Storage.Profile, model.SessionRecordKey)
	case config.StorageDriverFile:
		store = repository.NewFileSessionStore(cfg.Storage.Dir, cfg.Storage.Profile, model.SessionRecordKey)
		logger.Info("Session storage", "driver", "file", "dir", cfg.Storage.Dir)
	default:
		logger.Warn("Using in-memory session storage; the admin session will not survive a restart")
		store = repository.NewMemorySessionStore()
	}

	// --- Backend Client & Session Guard ---
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)
	guard := service.NewGuard(store, client, logger)
	client.SetTokenSource(guard)
	client.OnUnauthorized(guard.Expire)
	guard.Initialize(ctx)

	// --- Initialize Services ---
	bookingService := service.NewBookingService(client, client, logger)
	exportService := service.NewExportService(client)
	userService := service.NewUserService(client, logger)
	analyticsService := service.NewAnalyticsService(client)
	calendarService := service.NewCalendarService(client)

	// --- Initialize Handlers ---
	notices := handler.NewNotices(cfg.Notices.NoticeKey(), cfg.Notices.CookieSecure)
	responder := handler.NewResponder(notices, cfg.Server.LoginPath, logger)
	dashboardTokens := utils.NewJWTUtil(cfg.Auth.Secret(), cfg.Auth.TokenTTL)

	routes := &handler.Router{
		Auth:         handler.NewAuthHandler(guard, dashboardTokens, responder, handler.AdminBasePath+"/dashboard", cfg.Notices.CookieSecure),
		Bookings:     handler.NewBookingHandler(bookingService, exportService, responder),
		Users:        handler.NewUserHandler(userService, responder),
		Analytics:    handler.NewAnalyticsHandler(analyticsService, responder),
		Calendar:     handler.NewCalendarHandler(calendarService, responder),
		Gate:         guard,
		Tokens:       dashboardTokens,
		LoginPath:    cfg.Server.LoginPath,
		AllowOrigins: cfg.CORS.AllowOrigins,
		Log:          logger,
		Health: func() (gin.H, bool) {
			details := gin.H{"storage": cfg.Storage.Driver, "session": guard.Decide().String()}
			if dbPool == nil {
				return details, true
			}
			if err := dbPool.Ping(context.Background()); err != nil {
				details["db"] = "unhealthy"
				return details, false
			}
			details["db"] = "healthy"
			return details, true
		},
	}

	// --- Start Server ---
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      routes.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", "addr", cfg.Server.Addr, "backend", cfg.Backend.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exiting")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
