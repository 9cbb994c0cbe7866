package challenges

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
)

// RegisterRoutes wires the challenge endpoints into the API group
func RegisterRoutes(api *gin.RouterGroup, db *mongo.Database, cfg *config.Config, authMiddleware gin.HandlerFunc, gate GateChecker) *Repository {
	repo := NewRepository(db)
	handler := NewHandler(repo, gate, cfg)

	routes := api.Group("/challenges")
	{
		routes.GET("", handler.ListChallenges)

		routes.POST("/pick", authMiddleware, handler.PickChallenge)
		routes.GET("/current", authMiddleware, handler.CurrentInstance)
		routes.GET("/history", authMiddleware, handler.History)
		routes.POST("/instances/:id/feedback", authMiddleware, handler.SubmitFeedback)
	}

	return repo
}
