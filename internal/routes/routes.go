package routes

import (
	"net/http"

	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/database"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/auth"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/challenges"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/notifications"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/points"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/reviews"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/safety"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/settlement"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/cloudinary"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
)

// reviewNotifierAdapter breaks the registration cycle between proofs and
// notifications: proofs needs a notifier before the notification service
// (which needs the proof repository) exists.
type reviewNotifierAdapter struct {
	svc *notifications.Service
}

func (a *reviewNotifierAdapter) NotifyReviewAssigned(validatorIDs []primitive.ObjectID, proofID primitive.ObjectID) {
	if a.svc != nil {
		a.svc.NotifyReviewAssigned(validatorIDs, proofID)
	}
}

// Setup registers every feature and background worker on the router
func Setup(router *gin.Engine, db *mongo.Database, cfg *config.Config, fcm *messaging.Client, bus *events.Bus) *settlement.Sweeper {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.AppEnv != "production" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var cld *cloudinary.Service
	if cfg.CloudinaryCloudName != "" {
		var err error
		cld, err = cloudinary.NewService(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryUploadFolder)
		if err != nil {
			logger.Fatal("Failed to initialize cloudinary: %v", err)
		}
	} else {
		logger.Warn("Cloudinary is not configured, photo uploads will fail")
	}

	api := router.Group("/api/v1")

	users := auth.RegisterRoutes(api, db, cfg, cld)
	authMiddleware := auth.NewAuthMiddleware(users, cfg.JWTSecret)

	gates := reviews.NewGateRepository(db)
	challengeRepo := challenges.RegisterRoutes(api, db, cfg, authMiddleware, gates)

	assigner := reviews.NewAssigner(users, cfg.ValidatorsPerProof)
	notifier := &reviewNotifierAdapter{}

	proofRepo := proofs.RegisterRoutes(api, db, cfg, authMiddleware, challengeRepo, cld, assigner, notifier, bus)

	reviews.RegisterRoutes(api, db, cfg, authMiddleware, proofRepo, challengeRepo, gates, bus)

	ledger := points.RegisterRoutes(api, db, authMiddleware)

	notifier.svc = notifications.RegisterRoutes(api, db, authMiddleware, users, proofRepo, fcm, bus)

	safety.RegisterRoutes(api, db, authMiddleware, proofRepo, challengeRepo, users, bus)

	// Settlement consumes decision events; the sweeper handles proofs that
	// never collect enough votes.
	settlementStore := settlement.NewRepository(db, ledger)
	settlement.NewService(settlementStore).Register(bus)

	return settlement.NewSweeper(proofRepo, challengeRepo, database.NewTxnRunner(db.Client()), bus, cfg)
}
