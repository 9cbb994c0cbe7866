package proofs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProofIsAssigned(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	p := &Proof{AssignedValidators: []primitive.ObjectID{a, b}}

	require.True(t, p.IsAssigned(a))
	require.True(t, p.IsAssigned(b))
	require.False(t, p.IsAssigned(stranger))
}

func TestProofHasVoted(t *testing.T) {
	voter := primitive.NewObjectID()
	other := primitive.NewObjectID()

	p := &Proof{Votes: map[string]bool{voter.Hex(): true}}

	require.True(t, p.HasVoted(voter))
	require.False(t, p.HasVoted(other))
}

func TestProofVoteCounts(t *testing.T) {
	p := &Proof{Votes: map[string]bool{
		primitive.NewObjectID().Hex(): true,
		primitive.NewObjectID().Hex(): true,
		primitive.NewObjectID().Hex(): false,
	}}

	approvals, rejections := p.VoteCounts()
	require.Equal(t, 2, approvals)
	require.Equal(t, 1, rejections)
}

func TestProofIsDecided(t *testing.T) {
	require.False(t, (&Proof{Status: StatusPending}).IsDecided())
	require.True(t, (&Proof{Status: StatusApproved}).IsDecided())
	require.True(t, (&Proof{Status: StatusRejected}).IsDecided())
	require.True(t, (&Proof{Status: StatusReported}).IsDecided())
}
