package reviews

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeDirectory struct {
	ids []primitive.ObjectID
	err error
}

func (f *fakeDirectory) ListUserIDs(_ context.Context, excluding primitive.ObjectID) ([]primitive.ObjectID, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []primitive.ObjectID{}
	for _, id := range f.ids {
		if id != excluding {
			out = append(out, id)
		}
	}
	return out, nil
}

func makeIDs(n int) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, n)
	for i := range ids {
		ids[i] = primitive.NewObjectID()
	}
	return ids
}

func TestAssignExcludesSubmitter(t *testing.T) {
	ids := makeIDs(10)
	submitter := ids[0]
	a := NewAssigner(&fakeDirectory{ids: ids}, 5)

	got, err := a.Assign(context.Background(), submitter)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, id := range got {
		require.NotEqual(t, submitter, id)
	}
}

func TestAssignFewerCandidatesThanTarget(t *testing.T) {
	ids := makeIDs(3)
	submitter := ids[0]
	a := NewAssigner(&fakeDirectory{ids: ids}, 5)

	got, err := a.Assign(context.Background(), submitter)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestAssignNoCandidates(t *testing.T) {
	submitter := primitive.NewObjectID()
	a := NewAssigner(&fakeDirectory{ids: []primitive.ObjectID{submitter}}, 3)

	got, err := a.Assign(context.Background(), submitter)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAssignDirectoryFailureDoesNotBlock(t *testing.T) {
	a := NewAssigner(&fakeDirectory{err: errors.New("db down")}, 3)

	got, err := a.Assign(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAssignNoDuplicates(t *testing.T) {
	ids := makeIDs(6)
	a := NewAssigner(&fakeDirectory{ids: ids}, 4)

	got, err := a.Assign(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	require.Len(t, got, 4)

	seen := map[primitive.ObjectID]bool{}
	for _, id := range got {
		require.False(t, seen[id])
		seen[id] = true
	}
}
