package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/database"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/auth"
	"github.com/ecoloop-app/ecoloop-backend/internal/middleware"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	"github.com/ecoloop-app/ecoloop-backend/internal/routes"

	_ "github.com/ecoloop-app/ecoloop-backend/docs"
)

// @title EcoLoop API
// @version 1.0
// @description Backend for the EcoLoop eco-habit challenge app: photo proof
// @description submission, peer validation and points settlement.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	if cfg.AppEnv == "production" {
		logger.UseJSON()
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB: %v", err)
	}
	logger.Info("Connected to MongoDB database %q", cfg.MongoDB)

	fcm, err := auth.InitFirebase(context.Background(), cfg.FirebaseServiceAccountPath)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase: %v", err)
	}
	if fcm == nil {
		logger.Warn("Firebase is not configured, push notifications disabled")
	}

	// Background workers share one lifecycle context
	workerCtx, stopWorkers := context.WithCancel(context.Background())

	bus := events.New(256)
	bus.Start(workerCtx)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.FrontendURL))
	router.Use(middleware.Logger())

	sweeper := routes.Setup(router, db.Database, cfg, fcm, bus)
	sweeper.Start(workerCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown: %v", err)
	}

	stopWorkers()
	bus.Wait()

	if err := db.Disconnect(shutdownCtx); err != nil {
		logger.Error("MongoDB disconnect failed: %v", err)
	}

	logger.Info("Server stopped")
}
