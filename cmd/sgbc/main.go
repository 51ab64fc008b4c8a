package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/library-circulation/internal/application"
	"github.com/example/library-circulation/internal/config"
	httptransport "github.com/example/library-circulation/internal/http"
	"github.com/example/library-circulation/internal/persistence"
	"github.com/example/library-circulation/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional .env for local development; the real environment wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close store", "error", cerr)
		}
	}()

	if err := store.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := func() string { return uuid.NewString() }
	tokenGenerator := func() string { return uuid.NewString() }
	now := time.Now

	if err := store.SeedNetworkAdmin(context.Background(), sqlite.SeedParams{
		Admin: persistence.User{
			ID:           idGenerator(),
			Name:         "Administração Central",
			Email:        cfg.AdminEmail,
			PasswordHash: application.HashPassword(cfg.AdminPassword),
			Role:         persistence.RoleNetworkAdmin,
			Active:       true,
			Consent:      true,
			CreatedAt:    now().UTC(),
		},
		Library: persistence.Library{
			ID:        idGenerator(),
			Name:      "Biblioteca Central (Sede)",
			City:      "Capital",
			Active:    true,
			CreatedAt: now().UTC(),
		},
	}); err != nil {
		logger.Error("failed to seed network administrator", "error", err)
		os.Exit(1)
	}

	libraryRepo := sqlite.NewLibraryRepository(store)
	userRepo := sqlite.NewUserRepository(store)
	bookRepo := sqlite.NewBookRepository(store)
	copyRepo := sqlite.NewCopyRepository(store)
	loanRepo := sqlite.NewLoanRepository(store)
	auditRepo := sqlite.NewAuditRepository(store)
	catalogRepo := sqlite.NewCatalogRepository(store)
	reportRepo := sqlite.NewReportRepository(store)

	sessions := application.NewSessionStore()
	eligibility := application.NewEligibilityEngine(cfg.LoanLimit, now)

	authService := application.NewAuthService(userRepo, libraryRepo, sessions, nil, tokenGenerator, logger)
	libraryService := application.NewLibraryService(libraryRepo, auditRepo, idGenerator, now, logger)
	userService := application.NewUserService(userRepo, libraryRepo, auditRepo, idGenerator, now, logger)
	bookService := application.NewBookService(bookRepo, copyRepo, auditRepo, idGenerator, now, logger)
	circulationService := application.NewCirculationService(loanRepo, auditRepo, eligibility, cfg.LoanPeriodDays, idGenerator, now, logger)
	catalogService := application.NewCatalogService(catalogRepo, libraryRepo)
	reportService := application.NewReportService(reportRepo)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Catalog:        httptransport.NewCatalogHandler(catalogService, logger),
		Libraries:      httptransport.NewLibraryHandler(libraryService, logger),
		Users:          httptransport.NewUserHandler(userService, logger),
		Books:          httptransport.NewBookHandler(bookService, logger),
		Circulation:    httptransport.NewCirculationHandler(circulationService, logger),
		Reports:        httptransport.NewReportHandler(reportService, logger),
		RequireSession: httptransport.RequireSession(authService, logger),
		Middleware:     []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("circulation API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
