package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered user in the system
type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	GoogleID          string               `bson:"googleId,omitempty" json:"googleId,omitempty"`
	Email             string               `bson:"email" json:"email"`
	Password          string               `bson:"password,omitempty" json:"-"`
	Username          string               `bson:"username" json:"username"`
	DisplayName       string               `bson:"displayName" json:"displayName"`
	Bio               string               `bson:"bio" json:"bio"`
	ProfilePictureURL string               `bson:"profilePictureUrl" json:"profilePictureUrl"`
	FCMToken          string               `bson:"fcmToken,omitempty" json:"-"`
	BlockedUsers      []primitive.ObjectID `bson:"blockedUsers,omitempty" json:"-"`
	CompletedCount    int                  `bson:"completedCount" json:"completedCount"`
	JoinedAt          time.Time            `bson:"joinedAt" json:"joinedAt"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// RegisterRequest represents the payload for email registration
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Username    string `json:"username" binding:"required,min=3,max=20"`
	DisplayName string `json:"displayName" binding:"omitempty,max=50"`
}

// LoginRequest represents the payload for email login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GoogleAuthRequest represents the payload for Google OAuth login
type GoogleAuthRequest struct {
	GoogleIDToken string `json:"googleIdToken" binding:"required"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
}

// UpdateProfileRequest represents the payload for updating user profile
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"omitempty,min=3,max=50"`
	Bio         string `json:"bio" binding:"omitempty,max=160"`
}

// UpdateFCMTokenRequest registers the device token for push fan-out
type UpdateFCMTokenRequest struct {
	FCMToken string `json:"fcmToken" binding:"required"`
}

// ToPublicUser returns a map of user fields safe for public display
func (u *User) ToPublicUser() map[string]interface{} {
	return map[string]interface{}{
		"id":                u.ID,
		"username":          u.Username,
		"displayName":       u.DisplayName,
		"bio":               u.Bio,
		"profilePictureUrl": u.ProfilePictureURL,
		"completedCount":    u.CompletedCount,
		"joinedAt":          u.JoinedAt,
	}
}
