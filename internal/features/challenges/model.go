package challenges

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Instance status values. An instance moves active -> pendingValidation ->
// validated or rejected; a validated instance becomes cleared once feedback
// is submitted. A rejected instance closes, the user picks again.
const (
	StatusActive            = "active"
	StatusPendingValidation = "pendingValidation"
	StatusValidated         = "validated"
	StatusRejected          = "rejected"
	StatusCleared           = "cleared"
)

// Challenge is a catalog entry users can take on
type Challenge struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	PointValue  int                `bson:"pointValue" json:"pointValue"`
	Difficulty  string             `bson:"difficulty" json:"difficulty"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Feedback is the user's reflection on a validated challenge
type Feedback struct {
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Instance is one user's run at a challenge. The Open flag backs a partial
// unique index so a user can only have one live instance at a time.
type Instance struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	ChallengeID       primitive.ObjectID `bson:"challengeId" json:"challengeId"`
	Status            string             `bson:"status" json:"status"`
	Open              bool               `bson:"open" json:"-"`
	ProofID           primitive.ObjectID `bson:"proofId,omitempty" json:"proofId,omitempty"`
	FeedbackSubmitted bool               `bson:"feedbackSubmitted" json:"feedbackSubmitted"`
	Feedback          *Feedback          `bson:"feedback,omitempty" json:"feedback,omitempty"`
	StartedAt         time.Time          `bson:"startedAt" json:"startedAt"`
	DecidedAt         *time.Time         `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
	ClearedAt         *time.Time         `bson:"clearedAt,omitempty" json:"clearedAt,omitempty"`
}

// PickChallengeRequest starts a new instance of a catalog challenge
type PickChallengeRequest struct {
	ChallengeID string `json:"challengeId" binding:"required"`
}

// FeedbackRequest is the payload for submitting post-validation feedback
type FeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"omitempty,max=500"`
}

// IsOpen reports whether a status counts as a live instance
func IsOpen(status string) bool {
	return status == StatusActive || status == StatusPendingValidation || status == StatusValidated
}

// CanTransition reports whether an instance may move between two states
func CanTransition(from, to string) bool {
	switch from {
	case StatusActive:
		return to == StatusPendingValidation
	case StatusPendingValidation:
		return to == StatusValidated || to == StatusRejected
	case StatusValidated:
		return to == StatusCleared
	default:
		return false
	}
}
