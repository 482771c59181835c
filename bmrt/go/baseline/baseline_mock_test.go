package baseline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/commitstore/mocks"
	"github.com/lwz9103/conbench/bmrt/go/types"
)

func TestResolve_ParentOfRootCommit_DoesNotWalk(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore(t)
	store.On("RunByID", ctx, "contender").Return(&types.Run{ID: "contender", CommitID: "commit-c1", HardwareID: "hw"}, nil)
	store.On("CommitByID", ctx, "commit-c1").Return(&types.Commit{ID: "commit-c1", Hash: "c1", Repository: repo, OnDefaultBranch: true}, nil)

	res, err := New(store, 0).Resolve(ctx, "contender", Parent)
	require.NoError(t, err)
	assert.Equal(t, ErrNoSuchBaselineCommit, res.Error)
	assert.Nil(t, res.CommitsSkipped)
	store.AssertNotCalled(t, "Ancestors", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_AncestorsFails_ReturnsError(t *testing.T) {
	ctx := context.Background()
	parent := &types.Commit{ID: "commit-c1", Hash: "c1", Repository: repo, OnDefaultBranch: true}
	myErr := errors.New("connection reset")

	store := mocks.NewStore(t)
	store.On("RunByID", ctx, "contender").Return(&types.Run{ID: "contender", CommitID: "commit-c2", HardwareID: "hw"}, nil)
	store.On("CommitByID", ctx, "commit-c2").Return(&types.Commit{ID: "commit-c2", Hash: "c2", ParentHash: "c1", Repository: repo, OnDefaultBranch: true}, nil)
	store.On("CommitByHash", ctx, repo, "c1").Return(parent, nil)
	store.On("ResultKeysForRun", ctx, "contender").Return([]types.CaseContext{{CaseID: "case-1", ContextID: "ctx-1"}}, nil)
	store.On("Ancestors", ctx, parent, mock.Anything).Return(nil, myErr)

	_, err := New(store, 0).Resolve(ctx, "contender", Parent)
	assert.True(t, errors.Is(err, myErr))
}
