package notifications

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/features/auth"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
)

// Service fans events out into in-app notifications and push messages
type Service struct {
	repo   *Repository
	users  *auth.Repository
	proofs *proofs.Repository
	pusher *Pusher
}

// NewService creates the notification service
func NewService(repo *Repository, users *auth.Repository, proofRepo *proofs.Repository, pusher *Pusher) *Service {
	return &Service{repo: repo, users: users, proofs: proofRepo, pusher: pusher}
}

// Register hooks the service into the event bus. Notification delivery is
// best effort; the unique index absorbs any redelivered events anyway.
func (s *Service) Register(bus *events.Bus) {
	bus.Subscribe(events.TypeProofDecided, "notifications", false, s.handleProofDecided)
	bus.Subscribe(events.TypeProofReported, "notifications", false, s.handleProofDecided)
}

func (s *Service) handleProofDecided(ctx context.Context, e events.Event) error {
	proofID, err := primitive.ObjectIDFromHex(e.ProofID)
	if err != nil {
		return nil
	}

	proof, err := s.proofs.GetByID(ctx, proofID)
	if err != nil {
		logger.Warn("Notification skipped, proof %s not loadable: %v", e.ProofID, err)
		return nil
	}

	var notifType, title, body string
	switch e.Status {
	case proofs.StatusApproved:
		notifType = TypeProofApproved
		title = "Challenge validated!"
		body = "Your proof was approved by the community. Points are on the way."
	case proofs.StatusRejected:
		notifType = TypeProofRejected
		title = "Proof not validated"
		body = "Your proof did not pass community review this time."
	case proofs.StatusReported:
		notifType = TypeProofReported
		title = "Proof removed"
		body = "Your proof was reported and removed from review."
	default:
		return nil
	}

	n := &Notification{
		UserID:  proof.SubmitterID,
		Type:    notifType,
		Title:   title,
		Body:    body,
		ProofID: &proofID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		logger.Warn("Failed to store notification: %v", err)
	}

	s.push(ctx, []primitive.ObjectID{proof.SubmitterID}, title, body, map[string]string{
		"proofId": e.ProofID,
		"status":  e.Status,
	})
	return nil
}

// NotifyReviewAssigned tells validators a proof is waiting for them. Called
// asynchronously from the submission path.
func (s *Service) NotifyReviewAssigned(validatorIDs []primitive.ObjectID, proofID primitive.ObjectID) {
	go func() {
		ctx := context.Background()

		title := "New proof to review"
		body := "A community member submitted a proof. Take a look and cast your vote."

		for _, vid := range validatorIDs {
			n := &Notification{
				UserID:  vid,
				Type:    TypeReviewAssigned,
				Title:   title,
				Body:    body,
				ProofID: &proofID,
			}
			if err := s.repo.Create(ctx, n); err != nil {
				logger.Warn("Failed to store review notification: %v", err)
			}
		}

		s.push(ctx, validatorIDs, title, body, map[string]string{"proofId": proofID.Hex()})
	}()
}

func (s *Service) push(ctx context.Context, userIDs []primitive.ObjectID, title, body string, data map[string]string) {
	tokens, err := s.users.FCMTokensForUsers(ctx, userIDs)
	if err != nil {
		logger.Warn("Failed to load push tokens: %v", err)
		return
	}

	for _, token := range tokens {
		s.pusher.Send(ctx, token, title, body, data)
	}
}
