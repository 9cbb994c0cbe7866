package reviews

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gate is the per-instance counter of peer reviews a user has completed.
// Feedback on a validated challenge stays locked until the counter reaches
// the configured quota.
type Gate struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	InstanceID primitive.ObjectID `bson:"instanceId" json:"instanceId"`
	Count      int                `bson:"count" json:"count"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// VoteRequest is the payload for casting a validation vote
type VoteRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// VoteResult is returned after a vote lands
type VoteResult struct {
	ProofID     primitive.ObjectID `json:"proofId"`
	VoteCounted bool               `json:"voteCounted"`
	ProofStatus string             `json:"proofStatus"`
}
