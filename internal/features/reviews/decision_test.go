package reviews

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
)

func votes(approvals, rejections int) map[string]bool {
	v := map[string]bool{}
	for i := 0; i < approvals; i++ {
		v[string(rune('a'+i))] = true
	}
	for i := 0; i < rejections; i++ {
		v[string(rune('z'-i))] = false
	}
	return v
}

func TestDeriveDecisionFirstPolicy(t *testing.T) {
	out := DeriveDecision(config.VotePolicyFirst, 3, votes(1, 0))
	require.True(t, out.Decided)
	require.True(t, out.Approved)

	out = DeriveDecision(config.VotePolicyFirst, 3, votes(0, 1))
	require.True(t, out.Decided)
	require.False(t, out.Approved)
}

func TestDeriveDecisionFirstPolicyNoVotes(t *testing.T) {
	out := DeriveDecision(config.VotePolicyFirst, 3, votes(0, 0))
	require.False(t, out.Decided)
}

func TestDeriveDecisionQuorumMajorityApproves(t *testing.T) {
	// 2 of 3 approve
	out := DeriveDecision(config.VotePolicyQuorum, 3, votes(2, 0))
	require.True(t, out.Decided)
	require.True(t, out.Approved)
}

func TestDeriveDecisionQuorumMajorityRejects(t *testing.T) {
	out := DeriveDecision(config.VotePolicyQuorum, 3, votes(0, 2))
	require.True(t, out.Decided)
	require.False(t, out.Approved)
}

func TestDeriveDecisionQuorumNotYetDecided(t *testing.T) {
	out := DeriveDecision(config.VotePolicyQuorum, 3, votes(1, 0))
	require.False(t, out.Decided)

	out = DeriveDecision(config.VotePolicyQuorum, 5, votes(2, 2))
	require.False(t, out.Decided)
}

func TestDeriveDecisionQuorumFullPanelTieRejects(t *testing.T) {
	out := DeriveDecision(config.VotePolicyQuorum, 4, votes(2, 2))
	require.True(t, out.Decided)
	require.False(t, out.Approved)
}

func TestDeriveDecisionQuorumFullPanelMajorityWins(t *testing.T) {
	out := DeriveDecision(config.VotePolicyQuorum, 3, votes(2, 1))
	require.True(t, out.Decided)
	require.True(t, out.Approved)
}

func TestDeriveDecisionNoAssignedValidators(t *testing.T) {
	out := DeriveDecision(config.VotePolicyQuorum, 0, votes(0, 0))
	require.False(t, out.Decided)
}
