package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Config represents JWT configuration
type Config struct {
	Secret        string
	AccessExpiry  time.Duration
	Issuer        string
	Audience      string
	SigningMethod jwt.SigningMethod
}

// DefaultConfig returns default JWT configuration
func DefaultConfig(secret string) *Config {
	return &Config{
		Secret:        secret,
		AccessExpiry:  24 * time.Hour,
		Issuer:        "ecoloop-api",
		Audience:      "ecoloop-users",
		SigningMethod: jwt.SigningMethodHS256,
	}
}

// GenerateToken generates a new JWT token
func GenerateToken(userID, email string, cfg *Config) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT config is required")
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
			Audience:  []string{cfg.Audience},
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(cfg.SigningMethod, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ValidateToken validates and parses a JWT token
func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GetTokenExpiry returns the expiry time of a token
func GetTokenExpiry(tokenString, secret string) (time.Time, error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return time.Time{}, err
	}

	return claims.ExpiresAt.Time, nil
}
