package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/resultstore/memresultstore"
	"github.com/lwz9103/conbench/bmrt/go/types"
)

const repo = "https://github.com/apache/arrow"

var start = time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)

func storeFor(f *fixture.Fixture) *memresultstore.Store {
	s := memresultstore.New()
	s.Add(f.RawResults()...)
	return s
}

// twoSeries has two series on the default branch, one branch result and one
// commit-less result.
func twoSeries() *fixture.Fixture {
	b := fixture.NewBuilder(repo, start)
	c1 := b.DefaultCommit("c1", "")
	r1 := b.Run("run-1", c1, "hw-1", "commit")
	b.Result("a1", r1, "file-read", "case-1", "ctx-1", 1)
	b.Result("b1", r1, "file-write", "case-2", "ctx-1", 10)
	c2 := b.DefaultCommit("c2", "c1")
	r2 := b.Run("run-2", c2, "hw-1", "commit")
	b.Result("a2", r2, "file-read", "case-1", "ctx-1", 2)
	b.Result("b2", r2, "file-write", "case-2", "ctx-1", 11)

	p := b.BranchCommit("p1", "c2", "c2")
	b.Result("pr", b.Run("run-pr", p, "hw-1", "pull-request"), "file-read", "case-1", "ctx-1", 3)
	b.Result("loose", b.Run("run-loose", nil, "hw-1", ""), "file-read", "case-1", "ctx-1", 4)
	return b.Fixture()
}

func TestBuild_IndexesAreConsistent(t *testing.T) {
	snap, err := Build(context.Background(), storeFor(twoSeries()), Options{PageSize: 2})
	require.NoError(t, err)

	md := snap.Metadata()
	assert.Equal(t, 4, md.ResultCount)
	assert.Equal(t, 6, md.RowsConsumed)
	assert.Equal(t, 1, md.SkippedNoCommit)
	assert.Equal(t, 1, md.SkippedNotDefaultBranch)
	assert.Equal(t, 2, md.TimeSeriesCount)

	// Every result in byID appears exactly once in its name, case and
	// series index.
	count := func(rs []*types.BenchmarkResult, id string) int {
		n := 0
		for _, r := range rs {
			if r.ID == id {
				n++
			}
		}
		return n
	}
	for _, id := range []string{"a1", "a2", "b1", "b2"} {
		r, ok := snap.ByID(id)
		require.True(t, ok, id)
		assert.Equal(t, 1, count(snap.ByName(r.BenchmarkName), id))
		assert.Equal(t, 1, count(snap.ByCaseID(r.CaseID), id))
		ts, ok := snap.TimeSeries(r.Key())
		require.True(t, ok)
		assert.Equal(t, 1, count(ts.Results, id))
	}
	total := 0
	for _, k := range snap.Keys() {
		ts, _ := snap.TimeSeries(k)
		total += len(ts.Results)
	}
	assert.Equal(t, md.ResultCount, total)
	assert.Equal(t, []string{"file-read", "file-write"}, snap.BenchmarkNames())
}

func TestBuild_ExcludedIDsAreDistinguishable(t *testing.T) {
	snap, err := Build(context.Background(), storeFor(twoSeries()), Options{})
	require.NoError(t, err)

	_, ok := snap.ByID("pr")
	assert.False(t, ok)
	assert.Equal(t, ExcludedNotDefaultBranch, snap.Excluded("pr"))
	assert.Equal(t, ExcludedNoCommit, snap.Excluded("loose"))
	assert.Equal(t, NotExcluded, snap.Excluded("a1"))
	assert.Equal(t, NotExcluded, snap.Excluded("never-seen"))
	assert.Equal(t, "run has no commit", ExcludedNoCommit.String())
}

func TestBuild_ByNameIsNewestFirst_SeriesOldestFirst(t *testing.T) {
	snap, err := Build(context.Background(), storeFor(twoSeries()), Options{})
	require.NoError(t, err)

	byName := snap.ByName("file-read")
	require.Len(t, byName, 2)
	assert.Equal(t, "a2", byName[0].ID)
	assert.Equal(t, "a1", byName[1].ID)

	ts, ok := snap.TimeSeries(byName[0].Key())
	require.True(t, ok)
	require.Len(t, ts.Results, 2)
	assert.Equal(t, "a1", ts.Results[0].ID)
	assert.Equal(t, "a2", ts.Results[1].ID)
	for i := 1; i < len(ts.Points); i++ {
		assert.False(t, ts.Points[i].Time.Before(ts.Points[i-1].Time))
	}
	assert.Equal(t, []Point{
		{Time: ts.Results[0].StartedAt, Value: 1},
		{Time: ts.Results[1].StartedAt, Value: 2},
	}, ts.Points)
}

func TestBuild_MetadataUsesFirstAndLastConsumedRows(t *testing.T) {
	f := twoSeries()
	snap, err := Build(context.Background(), storeFor(f), Options{})
	require.NoError(t, err)
	md := snap.Metadata()

	var newest, oldest time.Time
	for _, r := range f.Results {
		switch r.ID {
		case "loose":
			newest = r.Timestamp
		case "a1":
			oldest = r.Timestamp
		}
	}
	// The newest row is skipped but still defines Newest.
	assert.Equal(t, newest, md.Newest)
	assert.Equal(t, oldest, md.Oldest)
	assert.Equal(t, types.DisplayTime(newest), md.NewestDisplay)
	assert.Equal(t, 0, md.CoveredDays)
}

func TestBuild_CoveredDaysIsFloor(t *testing.T) {
	b := fixture.NewBuilder(repo, start)
	c1 := b.DefaultCommit("c1", "")
	b.Result("old", b.Run("r1", c1, "hw", "commit"), "x", "case", "ctx", 1)
	b.At(start.Add(50 * time.Hour))
	c2 := b.DefaultCommit("c2", "c1")
	b.Result("new", b.Run("r2", c2, "hw", "commit"), "x", "case", "ctx", 1)

	snap, err := Build(context.Background(), storeFor(b.Fixture()), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Metadata().CoveredDays)
}

func TestBuild_Limit_ConsumesOnlyNewestRows(t *testing.T) {
	snap, err := Build(context.Background(), storeFor(twoSeries()), Options{Limit: 4, PageSize: 3})
	require.NoError(t, err)
	md := snap.Metadata()
	assert.Equal(t, 4, md.RowsConsumed)
	// loose, pr, b2, a2.
	assert.Equal(t, 2, md.ResultCount)
	_, ok := snap.ByID("a1")
	assert.False(t, ok)
	assert.Equal(t, NotExcluded, snap.Excluded("a1"))
}

func TestBuild_IsIdempotent(t *testing.T) {
	s := storeFor(twoSeries())
	first, err := Build(context.Background(), s, Options{PageSize: 1})
	require.NoError(t, err)
	second, err := Build(context.Background(), s, Options{PageSize: 5})
	require.NoError(t, err)

	m1, m2 := first.Metadata(), second.Metadata()
	m1.BuiltAt, m2.BuiltAt = time.Time{}, time.Time{}
	m1.BuildDuration, m2.BuildDuration = 0, 0
	assert.Equal(t, m1, m2)
	assert.Equal(t, first.Keys(), second.Keys())
}

func TestBuild_OnlyExcludedRows_ReturnsErrEmpty(t *testing.T) {
	b := fixture.NewBuilder(repo, start)
	b.Result("loose", b.Run("run", nil, "hw", ""), "x", "case", "ctx", 1)
	_, err := Build(context.Background(), storeFor(b.Fixture()), Options{})
	assert.Equal(t, ErrEmpty, err)

	_, err = Build(context.Background(), memresultstore.New(), Options{})
	assert.Equal(t, ErrEmpty, err)
}

type failingStore struct{}

var errBoom = errors.New("connection reset")

func (failingStore) StreamRecent(ctx context.Context, limit, pageSize int, f func(*resultstore.RawResult) error) error {
	return errBoom
}

func TestBuild_StoreError_IsWrapped(t *testing.T) {
	_, err := Build(context.Background(), failingStore{}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	assert.NotEqual(t, ErrEmpty, err)
}

func TestProject_DefaultsAndSentinels(t *testing.T) {
	dicts := map[string]map[string]string{}
	raw := &resultstore.RawResult{
		ID:          "r",
		CaseDict:    map[string]string{"b": "2", "a": "1"},
		ContextID:   "ctx",
		ContextDict: map[string]string{"arch": "amd64"},
		Data:        []*float64{fixture.Float(1), nil},
		Timestamp:   start,
	}
	r := project(raw, dicts)
	assert.Equal(t, []float64{1, types.MissingDataSentinel}, r.Measurements)
	assert.False(t, r.HasValue())
	assert.Equal(t, types.NotAvailable, r.Unit)
	assert.Equal(t, types.NotAvailable, r.RunReason)
	assert.Equal(t, "a=1 b=2", r.CaseText)
	assert.Equal(t, "2023-03-01 00:00:00 UTC", r.StartedAtDisplay)
	assert.Equal(t, types.NotAvailable, r.HardwareShort)

	named := *raw
	named.HardwareName = "ursa-i9-9960x-long-name"
	assert.Equal(t, "ursa-i9-9960x-lo...", Project(&named).HardwareShort)

	// A second row with the same context id shares the first one's dict.
	raw2 := *raw
	raw2.ContextDict = map[string]string{"arch": "amd64"}
	r2 := project(&raw2, dicts)
	r.ContextDict["marker"] = "x"
	assert.Equal(t, "x", r2.ContextDict["marker"])
}
