// Package commitstoretest has tests shared by all implementations of
// commitstore.Store.
package commitstoretest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/commitstore"
	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/types"
)

// Repository used by every fixture here.
const Repository = "https://github.com/apache/arrow"

// NewStore returns a store implementation loaded with f.
type NewStore func(t *testing.T, f *fixture.Fixture) commitstore.Store

// SubTestFunction is a test run against a single implementation.
type SubTestFunction func(t *testing.T, newStore NewStore)

// SubTests are all the subtests of a commitstore.Store implementation.
var SubTests = map[string]SubTestFunction{
	"RunAndCommitLookups":            RunAndCommitLookups,
	"NotFound":                       NotFound,
	"Ancestors_NearestFirstAndLimit": Ancestors_NearestFirstAndLimit,
	"DefaultBranchCommits":           DefaultBranchCommits,
	"LatestDefaultCommitWithResults": LatestDefaultCommitWithResults,
	"RunsForCommitAndResultKeys":     RunsForCommitAndResultKeys,
}

var start = time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)

// linear builds c1 <- c2 <- c3 <- c4 on the default branch, a branch commit
// p1 forked from c2, results on c1..c3 and an empty run on c4.
func linear() *fixture.Fixture {
	b := fixture.NewBuilder(Repository, start)
	c1 := b.DefaultCommit("c1", "")
	c2 := b.DefaultCommit("c2", "c1")
	c3 := b.DefaultCommit("c3", "c2")
	c4 := b.DefaultCommit("c4", "c3")
	p1 := b.BranchCommit("p1", "c2", "c2")
	for i, c := range []*types.Commit{c1, c2, c3} {
		run := b.Run("run-"+c.Hash, c, "hw-1", "commit")
		b.Result("res-"+c.Hash, run, "file-read", "case-1", "ctx-1", float64(i+1))
		b.Result("res-"+c.Hash+"-b", run, "file-read", "case-2", "ctx-1", float64(i+1))
		b.Result("res-"+c.Hash+"-c", run, "file-read", "case-2", "ctx-1", float64(i+1))
	}
	b.Run("run-c4", c4, "hw-1", "commit")
	pr := b.Run("run-p1", p1, "hw-1", "pull-request")
	b.Result("res-p1", pr, "file-read", "case-1", "ctx-1", 9)
	b.Run("run-loose", nil, "hw-1", "manual")
	return b.Fixture()
}

// RunAndCommitLookups tests RunByID, CommitByID and CommitByHash.
func RunAndCommitLookups(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, linear())

	run, err := s.RunByID(ctx, "run-c2")
	require.NoError(t, err)
	assert.Equal(t, "commit-c2", run.CommitID)
	assert.Equal(t, "hw-1", run.HardwareID)
	assert.Equal(t, "commit", run.Reason)

	loose, err := s.RunByID(ctx, "run-loose")
	require.NoError(t, err)
	assert.Equal(t, "", loose.CommitID)

	c, err := s.CommitByID(ctx, "commit-p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", c.Hash)
	assert.Equal(t, "c2", c.ParentHash)
	assert.Equal(t, "c2", c.ForkPointHash)
	assert.False(t, c.OnDefaultBranch)

	c, err = s.CommitByHash(ctx, Repository, "c3")
	require.NoError(t, err)
	assert.Equal(t, "commit-c3", c.ID)
	assert.True(t, c.OnDefaultBranch)
}

// NotFound tests that unknown ids return commitstore.ErrNotFound.
func NotFound(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, linear())

	_, err := s.RunByID(ctx, "nope")
	assert.True(t, errors.Is(err, commitstore.ErrNotFound))
	_, err = s.CommitByID(ctx, "nope")
	assert.True(t, errors.Is(err, commitstore.ErrNotFound))
	_, err = s.CommitByHash(ctx, "https://github.com/other/repo", "c1")
	assert.True(t, errors.Is(err, commitstore.ErrNotFound))
	_, err = s.LatestDefaultCommitWithResults(ctx, "https://github.com/other/repo")
	assert.True(t, errors.Is(err, commitstore.ErrNotFound))
}

func hashes(commits []*types.Commit) []string {
	ret := []string{}
	for _, c := range commits {
		ret = append(ret, c.Hash)
	}
	return ret
}

// Ancestors_NearestFirstAndLimit tests the ancestry walk.
func Ancestors_NearestFirstAndLimit(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, linear())

	c4, err := s.CommitByHash(ctx, Repository, "c4")
	require.NoError(t, err)
	anc, err := s.Ancestors(ctx, c4, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c3", "c2", "c1"}, hashes(anc))

	anc, err = s.Ancestors(ctx, c4, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c3", "c2"}, hashes(anc))

	p1, err := s.CommitByHash(ctx, Repository, "p1")
	require.NoError(t, err)
	anc, err = s.Ancestors(ctx, p1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1"}, hashes(anc))

	c1, err := s.CommitByHash(ctx, Repository, "c1")
	require.NoError(t, err)
	anc, err = s.Ancestors(ctx, c1, 10)
	require.NoError(t, err)
	assert.Empty(t, anc)
}

// DefaultBranchCommits tests that branch commits are excluded and the
// newest commits come first.
func DefaultBranchCommits(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, linear())
	commits, err := s.DefaultBranchCommits(ctx, Repository, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c4", "c3", "c2", "c1"}, hashes(commits))

	commits, err = s.DefaultBranchCommits(ctx, Repository, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c4", "c3"}, hashes(commits))

	commits, err = s.DefaultBranchCommits(ctx, "https://github.com/other/repo", 10)
	require.NoError(t, err)
	assert.Empty(t, commits)
}

// LatestDefaultCommitWithResults tests that commits without results and
// branch commits are ignored.
func LatestDefaultCommitWithResults(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, linear())
	c, err := s.LatestDefaultCommitWithResults(ctx, Repository)
	require.NoError(t, err)
	assert.Equal(t, "c3", c.Hash)
}

// RunsForCommitAndResultKeys tests run listing and distinct result keys.
func RunsForCommitAndResultKeys(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, linear())

	runs, err := s.RunsForCommit(ctx, "commit-c1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-c1", runs[0].ID)

	runs, err = s.RunsForCommit(ctx, "commit-none")
	require.NoError(t, err)
	assert.Empty(t, runs)

	keys, err := s.ResultKeysForRun(ctx, "run-c1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.CaseContext{
		{CaseID: "case-1", ContextID: "ctx-1"},
		{CaseID: "case-2", ContextID: "ctx-1"},
	}, keys)

	keys, err = s.ResultKeysForRun(ctx, "run-c4")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
