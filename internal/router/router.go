package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/realmkit/gov-notify/internal/handlers"
	"github.com/realmkit/gov-notify/internal/indexer"
	"github.com/realmkit/gov-notify/internal/middleware"
	"github.com/realmkit/gov-notify/internal/repositories"
	"github.com/realmkit/gov-notify/internal/scanner"
	"github.com/realmkit/gov-notify/pkg/config"
	"github.com/realmkit/gov-notify/pkg/firebase"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, fb *firebase.App) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	snapshotRepo := repositories.NewFirestoreSnapshotRepository(fb.Firestore)
	subscriptionRepo := repositories.NewFirestoreSubscriptionRepository(fb.Firestore)

	// --- Scan pipeline ---
	indexerClient := indexer.NewClient(cfg.IndexerURL)
	dispatcher := scanner.NewDispatcher(fb.Messaging, cfg.NotificationIconURL, cfg.NotificationBadgeURL)
	orchestrator := scanner.NewOrchestrator(cfg, indexerClient, snapshotRepo, subscriptionRepo, dispatcher)

	api := e.Group("/api/v1")

	// Subscription registration routes
	subscriptionHandler := handlers.NewSubscriptionHandler(cfg, subscriptionRepo)
	subscriptionHandler.RegisterSubscriptionRoutes(api)
	log.Println("Subscription routes configured.")

	// Scan routes (scheduler-triggered)
	scanHandler := handlers.NewScanHandler(cfg, orchestrator)
	scanHandler.RegisterScanRoutes(api, middleware.SecretAuth(cfg.CronSecret, "x-cron-secret"))
	log.Println("Scan routes configured.")

	// Push test routes
	pushHandler := handlers.NewPushHandler(cfg, fb.Messaging)
	pushHandler.RegisterPushRoutes(api, middleware.SecretAuth(cfg.PushTestSecret, "x-push-test-secret"))
	log.Println("Push test routes configured.")

	log.Println("All routes configured.")
}
