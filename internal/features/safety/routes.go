package safety

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecoloop-app/ecoloop-backend/internal/database"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/auth"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/challenges"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
)

// RegisterRoutes wires the moderation endpoints into the API group
func RegisterRoutes(api *gin.RouterGroup, db *mongo.Database, authMiddleware gin.HandlerFunc, proofRepo *proofs.Repository, instances *challenges.Repository, users *auth.Repository, bus *events.Bus) {
	repo := NewRepository(db)
	handler := NewHandler(repo, proofRepo, instances, users, database.NewTxnRunner(db.Client()), bus)

	api.POST("/proofs/:id/report", authMiddleware, handler.ReportProof)
	api.POST("/safety/block", authMiddleware, handler.BlockUser)
}
