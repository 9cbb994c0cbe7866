package points

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction types and sources
const (
	TypeEarn  = "earn"
	TypeSpend = "spend"

	SourceProofApproval = "proof_approval"
	SourceRedemption    = "redemption"
)

// Balance is a user's current point total, maintained with atomic increments
type Balance struct {
	UserID    primitive.ObjectID `bson:"_id" json:"userId"`
	Balance   int                `bson:"balance" json:"balance"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Transaction is one immutable ledger entry. Earn entries from proof
// approval carry the proof id; a partial unique index on it makes the
// credit idempotent.
type Transaction struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	Type        string              `bson:"type" json:"type"`
	Amount      int                 `bson:"amount" json:"amount"`
	Source      string              `bson:"source" json:"source"`
	ProofID     *primitive.ObjectID `bson:"proofId,omitempty" json:"proofId,omitempty"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// SpendRequest is the payload for redeeming points
type SpendRequest struct {
	Amount      int    `json:"amount" binding:"required,min=1"`
	Description string `json:"description" binding:"omitempty,max=200"`
}
