package points

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterRoutes wires the points endpoints into the API group
func RegisterRoutes(api *gin.RouterGroup, db *mongo.Database, authMiddleware gin.HandlerFunc) *Repository {
	repo := NewRepository(db)
	handler := NewHandler(repo)

	routes := api.Group("/points", authMiddleware)
	{
		routes.GET("/balance", handler.GetBalance)
		routes.GET("/transactions", handler.ListTransactions)
		routes.POST("/spend", handler.Spend)
	}

	return repo
}
