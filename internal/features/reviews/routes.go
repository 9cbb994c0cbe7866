package reviews

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/database"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/challenges"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
)

// RegisterRoutes wires the review endpoints into the API group. The gate
// repository comes in from outside because the challenges feature reads it
// too.
func RegisterRoutes(api *gin.RouterGroup, db *mongo.Database, cfg *config.Config, authMiddleware gin.HandlerFunc, proofRepo *proofs.Repository, instances *challenges.Repository, gates *GateRepository, bus *events.Bus) {
	handler := NewHandler(proofRepo, instances, gates, database.NewTxnRunner(db.Client()), bus, cfg)

	api.POST("/proofs/:id/vote", authMiddleware, handler.CastVote)
	api.GET("/reviews/gate", authMiddleware, handler.GateProgress)
}
