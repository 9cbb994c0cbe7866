package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// GoogleTokenClaims holds the verified identity from a Google ID token
type GoogleTokenClaims struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// InitFirebase initializes the Firebase app and returns a messaging client
// for push notifications. Returns nil client when no service account is
// configured so the rest of the app can run without push.
func InitFirebase(ctx context.Context, serviceAccountPath string) (*messaging.Client, error) {
	if serviceAccountPath == "" {
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}

	return client, nil
}

// VerifyGoogleToken validates a Google ID token and extracts the claims
func VerifyGoogleToken(ctx context.Context, idToken, clientID string) (*GoogleTokenClaims, error) {
	payload, err := idtoken.Validate(ctx, idToken, clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google id token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("google token missing email claim")
	}

	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &GoogleTokenClaims{
		GoogleID: payload.Subject,
		Email:    email,
		Name:     name,
		Picture:  picture,
	}, nil
}
