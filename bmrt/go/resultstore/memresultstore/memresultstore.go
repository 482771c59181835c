// Package memresultstore is an in-memory resultstore.Store, used in tests
// and by the demo server.
package memresultstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/types"
	"github.com/lwz9103/conbench/go/skerr"
)

// Store implements resultstore.Store.
type Store struct {
	mutex sync.RWMutex
	byID  map[string]*resultstore.RawResult

	// sorted newest first, ties by descending id.
	sorted []*resultstore.RawResult
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID: map[string]*resultstore.RawResult{},
	}
}

// Add inserts or replaces results.
func (s *Store) Add(results ...*resultstore.RawResult) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, r := range results {
		cp := *r
		s.byID[r.ID] = &cp
	}
	s.sorted = s.sorted[:0]
	for _, r := range s.byID {
		s.sorted = append(s.sorted, r)
	}
	sort.Slice(s.sorted, func(i, j int) bool {
		a, b := s.sorted[i], s.sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID > b.ID
	})
}

// Len returns the number of stored results.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.byID)
}

func (s *Store) page(offset, n int) []*resultstore.RawResult {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if offset >= len(s.sorted) {
		return nil
	}
	end := offset + n
	if end > len(s.sorted) {
		end = len(s.sorted)
	}
	ret := make([]*resultstore.RawResult, 0, end-offset)
	for _, r := range s.sorted[offset:end] {
		cp := *r
		ret = append(ret, &cp)
	}
	return ret
}

// StreamRecent implements resultstore.ResultStore.
func (s *Store) StreamRecent(ctx context.Context, limit, pageSize int, f func(*resultstore.RawResult) error) error {
	if pageSize <= 0 {
		return skerr.Fmt("pageSize must be positive, got %d", pageSize)
	}
	consumed := 0
	for consumed < limit {
		if err := ctx.Err(); err != nil {
			return skerr.Wrap(err)
		}
		n := pageSize
		if limit-consumed < n {
			n = limit - consumed
		}
		rows := s.page(consumed, n)
		for _, r := range rows {
			if err := f(r); err != nil {
				return err
			}
		}
		consumed += len(rows)
		if len(rows) < n {
			break
		}
	}
	return nil
}

// TimeSeriesHistory implements resultstore.HistoryStore.
func (s *Store) TimeSeriesHistory(ctx context.Context, key types.TimeSeriesKey, before time.Time, limit int) ([]*resultstore.RawResult, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var ret []*resultstore.RawResult
	for _, r := range s.sorted {
		if len(ret) >= limit {
			break
		}
		if r.Key() != key || !r.Timestamp.Before(before) || !r.CommitOnDefaultBranch || !r.HasCommit() {
			continue
		}
		cp := *r
		ret = append(ret, &cp)
	}
	// Oldest first.
	for i, j := 0, len(ret)-1; i < j; i, j = i+1, j-1 {
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret, nil
}

// ResultByID implements resultstore.HistoryStore.
func (s *Store) ResultByID(ctx context.Context, id string) (*resultstore.RawResult, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, skerr.Wrapf(resultstore.ErrNotFound, "id %q", id)
	}
	cp := *r
	return &cp, nil
}

// SetBeginsDistributionChange implements resultstore.Annotator.
func (s *Store) SetBeginsDistributionChange(ctx context.Context, id string, begins bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return skerr.Wrapf(resultstore.ErrNotFound, "id %q", id)
	}
	cp := *r
	cp.BeginsDistributionChange = begins
	s.byID[id] = &cp
	for i, sr := range s.sorted {
		if sr.ID == id {
			s.sorted[i] = &cp
			break
		}
	}
	return nil
}

var _ resultstore.Store = (*Store)(nil)
