package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/jwt"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
)

// NewAuthMiddleware returns middleware that requires a valid bearer token.
// On success the request context carries the user document and its id.
func NewAuthMiddleware(repo *Repository, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			response.Unauthorized(c, "Authorization token required", "TOKEN_REQUIRED")
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(token, jwtSecret)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token", "TOKEN_INVALID")
			c.Abort()
			return
		}

		user, err := repo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Unauthorized(c, "User not found", "USER_NOT_FOUND")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID.Hex())
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the user when a token is present but lets
// anonymous requests through.
func OptionalAuthMiddleware(repo *Repository, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := jwt.ValidateToken(token, jwtSecret)
		if err != nil {
			c.Next()
			return
		}

		user, err := repo.GetUserByID(c.Request.Context(), claims.UserID)
		if err == nil {
			c.Set("user", user)
			c.Set("userID", user.ID.Hex())
		}

		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// CurrentUser pulls the authenticated user out of the gin context
func CurrentUser(c *gin.Context) (*User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}

	user, ok := value.(*User)
	return user, ok
}
