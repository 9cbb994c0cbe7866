package reviews

import "github.com/ecoloop-app/ecoloop-backend/internal/config"

// Outcome is the result of evaluating the votes on a proof
type Outcome struct {
	Decided  bool
	Approved bool
}

// DeriveDecision evaluates cast votes against the configured policy.
//
// Under the first-vote policy any single vote decides the proof. Under the
// quorum policy a side wins as soon as it holds a strict majority of the
// assigned panel; once every assigned validator has voted, a tie rejects.
// With no assigned validators the proof stays pending for the sweeper.
func DeriveDecision(policy string, assignedCount int, votes map[string]bool) Outcome {
	if len(votes) == 0 || assignedCount == 0 {
		return Outcome{}
	}

	approvals, rejections := 0, 0
	for _, approve := range votes {
		if approve {
			approvals++
		} else {
			rejections++
		}
	}

	if policy == config.VotePolicyFirst {
		return Outcome{Decided: true, Approved: approvals > 0 && rejections == 0}
	}

	threshold := assignedCount/2 + 1

	if approvals >= threshold {
		return Outcome{Decided: true, Approved: true}
	}
	if rejections >= threshold {
		return Outcome{Decided: true, Approved: false}
	}

	if approvals+rejections >= assignedCount {
		// Full panel voted without a majority
		return Outcome{Decided: true, Approved: approvals > rejections}
	}

	return Outcome{}
}
