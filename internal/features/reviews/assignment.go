package reviews

import (
	"context"
	"math/rand"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
)

// CandidateDirectory lists potential validators. Implemented by the auth
// repository's user id listing.
type CandidateDirectory interface {
	ListUserIDs(ctx context.Context, excluding primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Assigner picks validators for freshly submitted proofs. Assignment is
// best effort: submission never fails because no reviewers were found.
type Assigner struct {
	directory CandidateDirectory
	perProof  int
}

// NewAssigner creates an assigner that picks up to perProof validators
func NewAssigner(directory CandidateDirectory, perProof int) *Assigner {
	if perProof < 1 {
		perProof = 3
	}
	return &Assigner{directory: directory, perProof: perProof}
}

// Assign returns a random set of validators excluding the submitter. Fewer
// candidates than the target just means a smaller panel; an empty directory
// or a lookup failure yields an empty panel, never an error.
func (a *Assigner) Assign(ctx context.Context, submitterID primitive.ObjectID) ([]primitive.ObjectID, error) {
	candidates, err := a.directory.ListUserIDs(ctx, submitterID)
	if err != nil {
		logger.Warn("Validator candidate lookup failed: %v", err)
		return []primitive.ObjectID{}, nil
	}

	if len(candidates) == 0 {
		return []primitive.ObjectID{}, nil
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	n := a.perProof
	if n > len(candidates) {
		n = len(candidates)
	}

	return candidates[:n], nil
}
