// Package baseline finds the run a contender run should be compared
// against, by walking the commit graph backwards from a strategy-specific
// starting commit.
package baseline

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lwz9103/conbench/bmrt/go/commitstore"
	"github.com/lwz9103/conbench/bmrt/go/types"
	"github.com/lwz9103/conbench/go/skerr"
)

// Strategy picks the commit the ancestry walk starts from.
type Strategy string

const (
	// Parent starts at the parent of the contender's commit.
	Parent Strategy = "parent"

	// ForkPoint starts at the default-branch commit the contender's branch
	// forked from.
	ForkPoint Strategy = "fork_point"

	// LatestDefault starts at the newest default-branch commit that has
	// results.
	LatestDefault Strategy = "latest_default"
)

// AllStrategies in the order they are reported.
var AllStrategies = []Strategy{Parent, ForkPoint, LatestDefault}

// Reasons returned in Resolution.Error.
const (
	ErrAlreadyOnDefaultBranch = "the contender run is already on the default branch"
	ErrNotConnected           = "the contender run is not connected to the git graph"
	ErrNoSuchBaselineCommit   = "this baseline commit type does not exist for this run"
	ErrNoMatchingBaselineRun  = "no matching baseline run was found"
)

// DefaultMaxAncestorDepth bounds the number of commits visited.
const DefaultMaxAncestorDepth = 1000

// Resolution is the outcome of resolving one strategy. Exactly one of
// BaselineRunID and Error is set.
type Resolution struct {
	BaselineRunID string `json:"baseline_run_id,omitempty"`

	// CommitsSkipped are the hashes visited strictly before the commit the
	// baseline run is on, nearest first. Nil when Error is set.
	CommitsSkipped []string `json:"commits_skipped"`

	Error string `json:"error,omitempty"`
}

func failed(reason string) *Resolution {
	return &Resolution{Error: reason}
}

// Resolver resolves baselines against a commitstore.Store.
type Resolver struct {
	store    commitstore.Store
	maxDepth int
}

// New returns a Resolver. maxDepth <= 0 means DefaultMaxAncestorDepth.
func New(store commitstore.Store, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxAncestorDepth
	}
	return &Resolver{
		store:    store,
		maxDepth: maxDepth,
	}
}

// Resolve finds the baseline run for runID under strategy. The returned
// error is only for store failures and unknown runs or strategies; a
// missing baseline is reported in Resolution.Error.
func (r *Resolver) Resolve(ctx context.Context, runID string, strategy Strategy) (*Resolution, error) {
	switch strategy {
	case Parent, ForkPoint, LatestDefault:
	default:
		return nil, skerr.Fmt("unknown baseline strategy %q", strategy)
	}
	contender, err := r.store.RunByID(ctx, runID)
	if err != nil {
		return nil, skerr.Wrapf(err, "loading contender run")
	}
	if contender.CommitID == "" {
		if strategy == LatestDefault {
			return failed(ErrNoSuchBaselineCommit), nil
		}
		return failed(ErrNotConnected), nil
	}
	commit, err := r.store.CommitByID(ctx, contender.CommitID)
	if errors.Is(err, commitstore.ErrNotFound) {
		return failed(ErrNotConnected), nil
	} else if err != nil {
		return nil, skerr.Wrapf(err, "loading contender commit")
	}
	if commit.OnDefaultBranch && strategy != Parent {
		return failed(ErrAlreadyOnDefaultBranch), nil
	}

	startCommit, err := r.startCommit(ctx, commit, strategy)
	if errors.Is(err, commitstore.ErrNotFound) {
		return failed(ErrNoSuchBaselineCommit), nil
	} else if err != nil {
		return nil, skerr.Wrapf(err, "finding %s commit", strategy)
	}

	keys, err := r.store.ResultKeysForRun(ctx, contender.ID)
	if err != nil {
		return nil, skerr.Wrapf(err, "loading contender results")
	}
	want := make(map[types.CaseContext]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	return r.walk(ctx, contender, want, startCommit)
}

// startCommit returns commitstore.ErrNotFound if the strategy has no commit
// for c.
func (r *Resolver) startCommit(ctx context.Context, c *types.Commit, strategy Strategy) (*types.Commit, error) {
	switch strategy {
	case Parent:
		if c.ParentHash == "" {
			return nil, commitstore.ErrNotFound
		}
		return r.store.CommitByHash(ctx, c.Repository, c.ParentHash)
	case ForkPoint:
		if c.ForkPointHash == "" {
			return nil, commitstore.ErrNotFound
		}
		return r.store.CommitByHash(ctx, c.Repository, c.ForkPointHash)
	default:
		return r.store.LatestDefaultCommitWithResults(ctx, c.Repository)
	}
}

// match is a commit on the walk holding matching runs.
type match struct {
	index int
	runs  []*types.Run
}

func (r *Resolver) walk(ctx context.Context, contender *types.Run, want map[types.CaseContext]bool, startCommit *types.Commit) (*Resolution, error) {
	ancestors, err := r.store.Ancestors(ctx, startCommit, r.maxDepth-1)
	if err != nil {
		return nil, skerr.Wrapf(err, "walking ancestors of %s", startCommit.Hash)
	}
	commits := append([]*types.Commit{startCommit}, ancestors...)

	// Runs with reason "test" only win if no other run matches anywhere on
	// the walk.
	var testMatch *match
	for i, c := range commits {
		nonTest, test, err := r.matchingRuns(ctx, contender, want, c)
		if err != nil {
			return nil, err
		}
		if len(nonTest) > 0 {
			return resolved(contender, commits, match{index: i, runs: nonTest}), nil
		}
		if len(test) > 0 && testMatch == nil {
			testMatch = &match{index: i, runs: test}
		}
	}
	if testMatch != nil {
		return resolved(contender, commits, *testMatch), nil
	}
	return failed(ErrNoMatchingBaselineRun), nil
}

// matchingRuns returns the runs on c with the contender's hardware that
// share at least one (case, context) with it, split by test reason.
func (r *Resolver) matchingRuns(ctx context.Context, contender *types.Run, want map[types.CaseContext]bool, c *types.Commit) ([]*types.Run, []*types.Run, error) {
	runs, err := r.store.RunsForCommit(ctx, c.ID)
	if err != nil {
		return nil, nil, skerr.Wrapf(err, "loading runs for %s", c.Hash)
	}
	var nonTest, test []*types.Run
	for _, run := range runs {
		if run.ID == contender.ID || run.HardwareID != contender.HardwareID {
			continue
		}
		keys, err := r.store.ResultKeysForRun(ctx, run.ID)
		if err != nil {
			return nil, nil, skerr.Wrapf(err, "loading results for run %s", run.ID)
		}
		shared := false
		for _, k := range keys {
			if want[k] {
				shared = true
				break
			}
		}
		if !shared {
			continue
		}
		if run.Reason == types.TestReason {
			test = append(test, run)
		} else {
			nonTest = append(nonTest, run)
		}
	}
	return nonTest, test, nil
}

// resolved picks the best run of m: same reason as the contender first,
// then newest, then lowest id.
func resolved(contender *types.Run, commits []*types.Commit, m match) *Resolution {
	runs := append([]*types.Run(nil), m.runs...)
	sort.Slice(runs, func(i, j int) bool {
		si, sj := runs[i].Reason == contender.Reason, runs[j].Reason == contender.Reason
		if si != sj {
			return si
		}
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.After(runs[j].Timestamp)
		}
		return runs[i].ID < runs[j].ID
	})
	skipped := make([]string, 0, m.index)
	for _, c := range commits[:m.index] {
		skipped = append(skipped, c.Hash)
	}
	return &Resolution{
		BaselineRunID:  runs[0].ID,
		CommitsSkipped: skipped,
	}
}

// ResolveAll resolves every strategy for runID concurrently.
func (r *Resolver) ResolveAll(ctx context.Context, runID string) (map[Strategy]*Resolution, error) {
	var mutex sync.Mutex
	ret := make(map[Strategy]*Resolution, len(AllStrategies))
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range AllStrategies {
		s := s
		g.Go(func() error {
			res, err := r.Resolve(ctx, runID, s)
			if err != nil {
				return skerr.Wrapf(err, "resolving %s", s)
			}
			mutex.Lock()
			defer mutex.Unlock()
			ret[s] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}
