package notifications

import (
	"context"

	"firebase.google.com/go/v4/messaging"

	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
)

// Pusher sends FCM push messages. A nil messaging client disables push
// without disabling in-app notifications.
type Pusher struct {
	client *messaging.Client
}

// NewPusher creates a pusher
func NewPusher(client *messaging.Client) *Pusher {
	return &Pusher{client: client}
}

// Send delivers one push message, best effort
func (p *Pusher) Send(ctx context.Context, token, title, body string, data map[string]string) {
	if p.client == nil || token == "" {
		return
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := p.client.Send(ctx, msg); err != nil {
		logger.Warn("Push delivery failed: %v", err)
	}
}
