// Package memcommitstore is an in-memory commitstore.Store built from a
// fixture.
package memcommitstore

import (
	"context"
	"sort"
	"sync"

	"github.com/lwz9103/conbench/bmrt/go/commitstore"
	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/types"
	"github.com/lwz9103/conbench/go/skerr"
)

type repoHash struct {
	repository string
	hash       string
}

// Store implements commitstore.Store.
type Store struct {
	mutex        sync.RWMutex
	commits      map[string]*types.Commit
	byHash       map[repoHash]*types.Commit
	runs         map[string]*types.Run
	runsByCommit map[string][]*types.Run
	resultKeys   map[string][]types.CaseContext
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		commits:      map[string]*types.Commit{},
		byHash:       map[repoHash]*types.Commit{},
		runs:         map[string]*types.Run{},
		runsByCommit: map[string][]*types.Run{},
		resultKeys:   map[string][]types.CaseContext{},
	}
}

// NewFromFixture returns a Store holding the commits, runs and result keys
// of f.
func NewFromFixture(f *fixture.Fixture) *Store {
	s := New()
	s.Load(f)
	return s
}

// Load adds everything in f to the store.
func (s *Store) Load(f *fixture.Fixture) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, c := range f.Commits {
		s.commits[c.ID] = c
		s.byHash[repoHash{c.Repository, c.Hash}] = c
	}
	for _, r := range f.Runs {
		s.runs[r.ID] = r
		if r.CommitID != "" {
			s.runsByCommit[r.CommitID] = append(s.runsByCommit[r.CommitID], r)
		}
	}
	seen := map[string]map[types.CaseContext]bool{}
	for _, r := range f.Results {
		cc := types.CaseContext{CaseID: r.CaseID, ContextID: r.ContextID}
		if seen[r.RunID] == nil {
			seen[r.RunID] = map[types.CaseContext]bool{}
		}
		if seen[r.RunID][cc] {
			continue
		}
		seen[r.RunID][cc] = true
		s.resultKeys[r.RunID] = append(s.resultKeys[r.RunID], cc)
	}
}

// RunByID implements commitstore.Store.
func (s *Store) RunByID(ctx context.Context, id string) (*types.Run, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, skerr.Wrapf(commitstore.ErrNotFound, "run %q", id)
	}
	return r, nil
}

// CommitByID implements commitstore.Store.
func (s *Store) CommitByID(ctx context.Context, id string) (*types.Commit, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	c, ok := s.commits[id]
	if !ok {
		return nil, skerr.Wrapf(commitstore.ErrNotFound, "commit %q", id)
	}
	return c, nil
}

// CommitByHash implements commitstore.Store.
func (s *Store) CommitByHash(ctx context.Context, repository, hash string) (*types.Commit, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	c, ok := s.byHash[repoHash{repository, hash}]
	if !ok {
		return nil, skerr.Wrapf(commitstore.ErrNotFound, "commit %q in %q", hash, repository)
	}
	return c, nil
}

// Ancestors implements commitstore.Store.
func (s *Store) Ancestors(ctx context.Context, c *types.Commit, limit int) ([]*types.Commit, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var ret []*types.Commit
	cur := c
	for len(ret) < limit && cur.ParentHash != "" {
		p, ok := s.byHash[repoHash{cur.Repository, cur.ParentHash}]
		if !ok {
			break
		}
		ret = append(ret, p)
		cur = p
	}
	return ret, nil
}

// newer orders commits newest first, ties broken by id.
func newer(a, b *types.Commit) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.ID > b.ID
	}
	return a.Timestamp.After(b.Timestamp)
}

// DefaultBranchCommits implements commitstore.Store.
func (s *Store) DefaultBranchCommits(ctx context.Context, repository string, limit int) ([]*types.Commit, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var ret []*types.Commit
	for _, c := range s.commits {
		if c.Repository == repository && c.OnDefaultBranch {
			ret = append(ret, c)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return newer(ret[i], ret[j]) })
	if len(ret) > limit {
		ret = ret[:limit]
	}
	return ret, nil
}

// LatestDefaultCommitWithResults implements commitstore.Store.
func (s *Store) LatestDefaultCommitWithResults(ctx context.Context, repository string) (*types.Commit, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var latest *types.Commit
	for _, c := range s.commits {
		if c.Repository != repository || !c.OnDefaultBranch {
			continue
		}
		hasResults := false
		for _, r := range s.runsByCommit[c.ID] {
			if len(s.resultKeys[r.ID]) > 0 {
				hasResults = true
				break
			}
		}
		if !hasResults {
			continue
		}
		if latest == nil || newer(c, latest) {
			latest = c
		}
	}
	if latest == nil {
		return nil, skerr.Wrapf(commitstore.ErrNotFound, "no default branch commit with results in %q", repository)
	}
	return latest, nil
}

// RunsForCommit implements commitstore.Store.
func (s *Store) RunsForCommit(ctx context.Context, commitID string) ([]*types.Run, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ret := append([]*types.Run(nil), s.runsByCommit[commitID]...)
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

// ResultKeysForRun implements commitstore.Store.
func (s *Store) ResultKeysForRun(ctx context.Context, runID string) ([]types.CaseContext, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]types.CaseContext(nil), s.resultKeys[runID]...), nil
}

var _ commitstore.Store = (*Store)(nil)
