package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"treasury-backend/internal/assistant"
	"treasury-backend/internal/auth"
	"treasury-backend/internal/cache"
	"treasury-backend/internal/config"
	"treasury-backend/internal/database"
	"treasury-backend/internal/db"
	"treasury-backend/internal/extraction"
	"treasury-backend/internal/handlers"
	"treasury-backend/internal/health"
	h "treasury-backend/internal/http"
	"treasury-backend/internal/middleware"
	"treasury-backend/internal/realtime"
	"treasury-backend/internal/repositories"
	"treasury-backend/internal/services"
	"treasury-backend/internal/storage"
	"treasury-backend/internal/timeutil"
	"treasury-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	if err := timeutil.SetLocation(cfg.Organization.Timezone); err != nil {
		log.Printf("[Config] Unknown timezone %q, using %s: %v", cfg.Organization.Timezone, timeutil.DefaultZone, err)
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := db.Connect(cfg)
	defer pool.Close()

	// Run database migrations
	log.Println("Running database migrations...")
	migrator := database.NewMigratorWithFS(pool, migrations.FS, ".")
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := migrator.RunMigrations(migrateCtx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	cancel()

	// Initialize Redis cache (optional - in-process fallback if unavailable)
	var redisPinger health.Pinger
	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (using in-process fallback)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
		defer cache.Close()
		client := cache.GetClient()
		redisPinger = health.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	archiver, err := storage.New(ctx, cfg)
	if err != nil {
		log.Printf("[Storage] Archive disabled: %v", err)
		archiver = storage.NoopArchiver{}
	}

	extractor := extraction.NewGeminiExtractor(extraction.GeminiConfig{
		APIKey:   cfg.Extractor.APIKey,
		Model:    cfg.Extractor.Model,
		Endpoint: cfg.Extractor.Endpoint,
		Timeout:  cfg.ExtractorTimeout(),
	})

	hub := realtime.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	memberRepo := repositories.NewMemberRepository(pool)
	collectionRepo := repositories.NewCollectionRepository(pool)
	statusRepo := repositories.NewPaymentStatusRepository(pool)
	treasurerRepo := repositories.NewTreasurerRepository(pool)
	notificationRepo := repositories.NewNotificationRepository(pool)
	settingsRepo := repositories.NewSettingsRepository(pool)

	jwtManager := auth.NewJWTManager(cfg)

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo, settingsRepo)
	authService := services.NewAuthService(treasurerRepo, jwtManager)
	memberService := services.NewMemberService(memberRepo, collectionRepo, statusRepo, hub)
	collectionService := services.NewCollectionService(memberRepo, collectionRepo, statusRepo, notificationService, hub)
	ledgerService := services.NewLedgerService(memberRepo, collectionRepo, statusRepo)
	exportService := services.NewExportService(memberRepo, collectionRepo, statusRepo, treasurerRepo)
	assistantService := services.NewAssistantService(ledgerService, assistant.New(extractor.Client()), cfg.ExtractorTimeout())
	importService := services.NewImportService(
		memberRepo,
		collectionRepo,
		extractor,
		archiver,
		cache.NewExtractionGuard(cfg.UploadLockTimeout()),
		cache.NewPendingImports(cfg.PendingImportTTL()),
		notificationService,
		hub,
		cfg.ExtractorTimeout(),
	)

	if err := authService.EnsureTreasurer(ctx, cfg.Bootstrap.TreasurerName, cfg.Bootstrap.TreasurerEmail, cfg.Bootstrap.TreasurerPassword); err != nil {
		log.Printf("[Auth] Failed to create bootstrap treasurer: %v", err)
	}

	go collectionService.RunDeadlineReminders(ctx, cfg.ReminderInterval())

	healthChecker := health.NewHealthChecker(pool, redisPinger)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, treasurerRepo)
	corsMiddleware := middleware.NewCORS(cfg)
	apiLogging := middleware.NewAPILoggingMiddleware()

	router := h.NewRouter(h.Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		Imports:       handlers.NewImportHandler(importService, exportService, cfg.MaxUploadBytes()),
		Collections:   handlers.NewCollectionHandler(collectionService, exportService),
		Members:       handlers.NewMemberHandler(memberService),
		Ledger:        handlers.NewLedgerHandler(ledgerService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Assistant:     handlers.NewAssistantHandler(assistantService),
		Health:        handlers.NewHealthHandler(healthChecker),
		Realtime:      hub.ServeWS,
	}, authMiddleware)
	router.Use(middleware.MetricsMiddleware)

	// Wrap with panic recovery, CORS and request logging
	handler := middleware.PanicRecovery(corsMiddleware(apiLogging.Handler(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s (%s)", addr, cfg.Organization.Name)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
