// Package commitstore gives read access to the commit graph and the runs
// attached to it.
package commitstore

import (
	"context"
	"errors"

	"github.com/lwz9103/conbench/bmrt/go/types"
)

// ErrNotFound is returned when a commit or run does not exist.
var ErrNotFound = errors.New("not found")

// Store is the commit and run store consumed by the baseline resolver.
type Store interface {
	// RunByID returns ErrNotFound for an unknown run.
	RunByID(ctx context.Context, id string) (*types.Run, error)

	// CommitByID returns ErrNotFound for an unknown commit.
	CommitByID(ctx context.Context, id string) (*types.Commit, error)

	// CommitByHash returns ErrNotFound for an unknown commit.
	CommitByHash(ctx context.Context, repository, hash string) (*types.Commit, error)

	// Ancestors returns up to limit ancestors of c, nearest first, following
	// ParentHash. c itself is not included. The walk stops early at a root
	// or at a parent that is not in the store.
	Ancestors(ctx context.Context, c *types.Commit, limit int) ([]*types.Commit, error)

	// DefaultBranchCommits returns up to limit default-branch commits of
	// repository, newest first.
	DefaultBranchCommits(ctx context.Context, repository string, limit int) ([]*types.Commit, error)

	// LatestDefaultCommitWithResults returns the most recent default-branch
	// commit of repository that has at least one run with a benchmark
	// result, or ErrNotFound.
	LatestDefaultCommitWithResults(ctx context.Context, repository string) (*types.Commit, error)

	// RunsForCommit returns all runs attached to the commit.
	RunsForCommit(ctx context.Context, commitID string) ([]*types.Run, error)

	// ResultKeysForRun returns the distinct (case, context) pairs of the
	// run's results.
	ResultKeysForRun(ctx context.Context, runID string) ([]types.CaseContext, error)
}
