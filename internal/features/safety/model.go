package safety

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report reasons accepted from clients
var ValidReportReasons = map[string]bool{
	"inappropriate": true,
	"unrelated":     true,
	"spam":          true,
	"other":         true,
}

// Report is a moderation record for a reported proof
type Report struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProofID    primitive.ObjectID `bson:"proofId" json:"proofId"`
	ReporterID primitive.ObjectID `bson:"reporterId" json:"reporterId"`
	Reason     string             `bson:"reason" json:"reason"`
	Details    string             `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// ReportProofRequest is the payload for reporting a proof
type ReportProofRequest struct {
	Reason  string `json:"reason" binding:"required"`
	Details string `json:"details" binding:"omitempty,max=500"`
}

// BlockUserRequest is the payload for blocking another user
type BlockUserRequest struct {
	UserID string `json:"userId" binding:"required"`
}
