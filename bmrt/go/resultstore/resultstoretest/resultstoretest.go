// Package resultstoretest has tests shared by all implementations of
// resultstore.Store.
package resultstoretest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/types"
)

// NewStore returns a store implementation loaded with f.
type NewStore func(t *testing.T, f *fixture.Fixture) resultstore.Store

// SubTestFunction is a test run against a single implementation.
type SubTestFunction func(t *testing.T, newStore NewStore)

// SubTests are all the subtests of a resultstore.Store implementation.
var SubTests = map[string]SubTestFunction{
	"StreamRecent_NewestFirstAcrossPages": StreamRecent_NewestFirstAcrossPages,
	"StreamRecent_RespectsLimit":          StreamRecent_RespectsLimit,
	"StreamRecent_CallbackErrorStops":     StreamRecent_CallbackErrorStops,
	"StreamRecent_JoinedColumns":          StreamRecent_JoinedColumns,
	"TimeSeriesHistory":                   TimeSeriesHistory,
	"ResultByID_And_Annotate":             ResultByID_And_Annotate,
}

var start = time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)

// Repository used by the fixtures here.
const Repository = "https://github.com/apache/arrow"

// history builds five default-branch commits, one run each, one result per
// run, plus a branch run and a commit-less run.
func history() *fixture.Fixture {
	b := fixture.NewBuilder(Repository, start)
	parent := ""
	for i, h := range []string{"c1", "c2", "c3", "c4", "c5"} {
		c := b.DefaultCommit(h, parent)
		parent = h
		run := b.Run("run-"+h, c, "hw-1", "commit")
		b.Result("res-"+h, run, "file-read", "case-1", "ctx-1", float64(10+i))
	}
	p := b.BranchCommit("p1", "c3", "c3")
	b.Result("res-p1", b.Run("run-p1", p, "hw-1", "pull-request"), "file-read", "case-1", "ctx-1", 99)
	b.Result("res-loose", b.Run("run-loose", nil, "hw-1", ""), "file-read", "case-1", "ctx-1", 98)
	return b.Fixture()
}

func collect(t *testing.T, s resultstore.ResultStore, limit, pageSize int) []*resultstore.RawResult {
	var ret []*resultstore.RawResult
	err := s.StreamRecent(context.Background(), limit, pageSize, func(r *resultstore.RawResult) error {
		ret = append(ret, r)
		return nil
	})
	require.NoError(t, err)
	return ret
}

func ids(rows []*resultstore.RawResult) []string {
	ret := []string{}
	for _, r := range rows {
		ret = append(ret, r.ID)
	}
	return ret
}

// StreamRecent_NewestFirstAcrossPages tests that paging doesn't lose or
// repeat rows.
func StreamRecent_NewestFirstAcrossPages(t *testing.T, newStore NewStore) {
	s := newStore(t, history())
	expected := []string{"res-loose", "res-p1", "res-c5", "res-c4", "res-c3", "res-c2", "res-c1"}
	assert.Equal(t, expected, ids(collect(t, s, 100, 2)))
	assert.Equal(t, expected, ids(collect(t, s, 100, 100)))
}

// StreamRecent_RespectsLimit tests the limit, including one that ends mid
// page.
func StreamRecent_RespectsLimit(t *testing.T, newStore NewStore) {
	s := newStore(t, history())
	assert.Equal(t, []string{"res-loose", "res-p1", "res-c5"}, ids(collect(t, s, 3, 2)))
	assert.Empty(t, collect(t, s, 0, 2))
}

// StreamRecent_CallbackErrorStops tests that a callback error is returned.
func StreamRecent_CallbackErrorStops(t *testing.T, newStore NewStore) {
	s := newStore(t, history())
	myErr := errors.New("stop")
	n := 0
	err := s.StreamRecent(context.Background(), 100, 2, func(r *resultstore.RawResult) error {
		n++
		if n == 3 {
			return myErr
		}
		return nil
	})
	assert.True(t, errors.Is(err, myErr))
	assert.Equal(t, 3, n)
}

// StreamRecent_JoinedColumns tests the columns joined from other tables.
func StreamRecent_JoinedColumns(t *testing.T, newStore NewStore) {
	s := newStore(t, history())
	rows := collect(t, s, 100, 10)
	byID := map[string]*resultstore.RawResult{}
	for _, r := range rows {
		byID[r.ID] = r
	}

	c5 := byID["res-c5"]
	require.NotNil(t, c5)
	assert.Equal(t, "run-c5", c5.RunID)
	assert.Equal(t, "file-read", c5.BenchmarkName)
	assert.Equal(t, map[string]string{"case": "case-1"}, c5.CaseDict)
	assert.Equal(t, map[string]string{"context": "ctx-1"}, c5.ContextDict)
	require.NotNil(t, c5.SVS)
	assert.Equal(t, 14.0, *c5.SVS)
	require.Len(t, c5.Data, 1)
	assert.Equal(t, 14.0, *c5.Data[0])
	assert.Equal(t, "s", c5.Unit)
	assert.Equal(t, "hw-1", c5.HardwareID)
	assert.Equal(t, "name-hw-1", c5.HardwareName)
	assert.Equal(t, "commit", c5.RunReason)
	assert.Equal(t, "c5", c5.CommitHash)
	assert.True(t, c5.CommitOnDefaultBranch)

	p1 := byID["res-p1"]
	require.NotNil(t, p1)
	assert.Equal(t, "p1", p1.CommitHash)
	assert.False(t, p1.CommitOnDefaultBranch)

	loose := byID["res-loose"]
	require.NotNil(t, loose)
	assert.False(t, loose.HasCommit())
	assert.Equal(t, "", loose.RunReason)
}

// TimeSeriesHistory tests history lookups for a key.
func TimeSeriesHistory(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	f := history()
	s := newStore(t, f)
	key := types.TimeSeriesKey{BenchmarkName: "file-read", CaseID: "case-1", ContextID: "ctx-1", HardwareID: "hw-1"}

	var c4 time.Time
	for _, r := range f.Results {
		if r.ID == "res-c4" {
			c4 = r.Timestamp
		}
	}
	rows, err := s.TimeSeriesHistory(ctx, key, c4, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"res-c1", "res-c2", "res-c3"}, ids(rows))

	// Limit keeps the most recent.
	rows, err = s.TimeSeriesHistory(ctx, key, c4, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"res-c2", "res-c3"}, ids(rows))

	// Branch and commit-less results are never history.
	rows, err = s.TimeSeriesHistory(ctx, key, start.Add(24*time.Hour), 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"res-c1", "res-c2", "res-c3", "res-c4", "res-c5"}, ids(rows))

	other := key
	other.HardwareID = "hw-2"
	rows, err = s.TimeSeriesHistory(ctx, other, start.Add(24*time.Hour), 100)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// ResultByID_And_Annotate tests lookups and the distribution change flag.
func ResultByID_And_Annotate(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, history())

	r, err := s.ResultByID(ctx, "res-c2")
	require.NoError(t, err)
	assert.False(t, r.BeginsDistributionChange)
	assert.Equal(t, "c2", r.CommitHash)

	require.NoError(t, s.SetBeginsDistributionChange(ctx, "res-c2", true))
	r, err = s.ResultByID(ctx, "res-c2")
	require.NoError(t, err)
	assert.True(t, r.BeginsDistributionChange)

	rows := collect(t, s, 100, 3)
	for _, row := range rows {
		assert.Equal(t, row.ID == "res-c2", row.BeginsDistributionChange, row.ID)
	}

	_, err = s.ResultByID(ctx, "nope")
	assert.True(t, errors.Is(err, resultstore.ErrNotFound))
	assert.True(t, errors.Is(s.SetBeginsDistributionChange(ctx, "nope", true), resultstore.ErrNotFound))
}
