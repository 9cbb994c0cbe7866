package proofs

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Proof status values. A proof is born pending and is decided exactly once;
// reported proofs are pulled from review queues and excluded from settlement.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusReported = "reported"
)

// Photo is the stored reference to an uploaded proof image
type Photo struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"-"`
}

// Proof is a submitted photo plus the validation state built up around it.
// Votes is keyed by validator id hex; a key's presence is the at-most-once
// vote guard, its value is the verdict.
type Proof struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	SubmitterID        primitive.ObjectID   `bson:"submitterId" json:"submitterId"`
	ChallengeID        primitive.ObjectID   `bson:"challengeId" json:"challengeId"`
	InstanceID         primitive.ObjectID   `bson:"instanceId" json:"instanceId"`
	Photo              Photo                `bson:"photo" json:"photo"`
	Comment            string               `bson:"comment,omitempty" json:"comment,omitempty"`
	Status             string               `bson:"status" json:"status"`
	AssignedValidators []primitive.ObjectID `bson:"assignedValidators" json:"-"`
	Votes              map[string]bool      `bson:"votes" json:"-"`
	Stale              bool                 `bson:"stale" json:"stale"`
	Settled            bool                 `bson:"settled" json:"-"`
	Visible            bool                 `bson:"visible" json:"-"`
	CreatedAt          time.Time            `bson:"createdAt" json:"createdAt"`
	DecidedAt          *time.Time           `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
}

// IsDecided reports whether the proof has left the pending state
func (p *Proof) IsDecided() bool {
	return p.Status != StatusPending
}

// IsAssigned reports whether the given user is an assigned validator
func (p *Proof) IsAssigned(userID primitive.ObjectID) bool {
	for _, v := range p.AssignedValidators {
		if v == userID {
			return true
		}
	}
	return false
}

// HasVoted reports whether the given validator already cast a vote
func (p *Proof) HasVoted(userID primitive.ObjectID) bool {
	_, ok := p.Votes[userID.Hex()]
	return ok
}

// VoteCounts tallies the votes cast so far
func (p *Proof) VoteCounts() (approvals, rejections int) {
	for _, approve := range p.Votes {
		if approve {
			approvals++
		} else {
			rejections++
		}
	}
	return approvals, rejections
}

// SubmitProofRequest carries the multipart form fields next to the photo
type SubmitProofRequest struct {
	Comment string `form:"comment" binding:"omitempty,max=500"`
}

// QueueItem is a review queue entry shown to a validator
type QueueItem struct {
	ProofID     primitive.ObjectID `json:"proofId"`
	ChallengeID primitive.ObjectID `json:"challengeId"`
	PhotoURL    string             `json:"photoUrl"`
	Comment     string             `json:"comment,omitempty"`
	SubmittedAt time.Time          `json:"submittedAt"`
}
