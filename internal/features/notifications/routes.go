package notifications

import (
	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecoloop-app/ecoloop-backend/internal/features/auth"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
)

// RegisterRoutes wires the notification endpoints and the event consumers
func RegisterRoutes(api *gin.RouterGroup, db *mongo.Database, authMiddleware gin.HandlerFunc, users *auth.Repository, proofRepo *proofs.Repository, fcm *messaging.Client, bus *events.Bus) *Service {
	repo := NewRepository(db)
	handler := NewHandler(repo)
	service := NewService(repo, users, proofRepo, NewPusher(fcm))
	service.Register(bus)

	routes := api.Group("/notifications", authMiddleware)
	{
		routes.GET("", handler.List)
		routes.GET("/unread-count", handler.UnreadCount)
		routes.POST("/read-all", handler.MarkAllRead)
		routes.POST("/:id/read", handler.MarkRead)
	}

	return service
}
