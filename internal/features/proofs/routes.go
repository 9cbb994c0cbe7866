package proofs

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/challenges"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/cloudinary"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/ratelimit"
)

// RegisterRoutes wires the proof endpoints into the API group
func RegisterRoutes(api *gin.RouterGroup, db *mongo.Database, cfg *config.Config, authMiddleware gin.HandlerFunc, instances *challenges.Repository, cld *cloudinary.Service, assigner ValidatorAssigner, notifier ReviewAssignedNotifier, bus *events.Bus) *Repository {
	repo := NewRepository(db)
	handler := NewHandler(repo, instances, cld, assigner, notifier, db.Client(), cfg)
	hub := NewHub(bus)

	submitLimiter := ratelimit.New(10, time.Minute)

	routes := api.Group("/proofs", authMiddleware)
	{
		routes.POST("", ratelimit.UserBasedMiddleware(submitLimiter), handler.Submit)
		routes.GET("/review-queue", handler.ReviewQueue)
		routes.GET("/mine", handler.MyProofs)
		routes.GET("/:id", handler.Get)
		routes.GET("/:id/watch", handler.Watch(hub))
	}

	return repo
}
