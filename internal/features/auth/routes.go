package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/cloudinary"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/ratelimit"
)

// RegisterRoutes wires the auth endpoints into the API group
func RegisterRoutes(api *gin.RouterGroup, db *mongo.Database, cfg *config.Config, cld *cloudinary.Service) *Repository {
	repo := NewRepository(db)
	handler := NewHandler(repo, cfg, cld)

	authMiddleware := NewAuthMiddleware(repo, cfg.JWTSecret)
	loginLimiter := ratelimit.New(10, time.Minute)

	routes := api.Group("/auth")
	{
		routes.POST("/register", ratelimit.Middleware(loginLimiter), handler.Register)
		routes.POST("/login", ratelimit.Middleware(loginLimiter), handler.Login)
		routes.POST("/google", ratelimit.Middleware(loginLimiter), handler.GoogleAuth)

		routes.GET("/me", authMiddleware, handler.Me)
		routes.PATCH("/me", authMiddleware, handler.UpdateProfile)
		routes.POST("/me/picture", authMiddleware, handler.UploadProfilePicture)
		routes.PUT("/fcm-token", authMiddleware, handler.UpdateFCMToken)
	}

	return repo
}
