package notifications

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	TypeProofApproved  = "proof_approved"
	TypeProofRejected  = "proof_rejected"
	TypeProofReported  = "proof_reported"
	TypeReviewAssigned = "review_assigned"
)

// Notification is an in-app notification. The (userId, type, proofId) unique
// index deduplicates redelivered events.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"userId" json:"userId"`
	Type      string              `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Body      string              `bson:"body" json:"body"`
	ProofID   *primitive.ObjectID `bson:"proofId,omitempty" json:"proofId,omitempty"`
	Read      bool                `bson:"read" json:"read"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
