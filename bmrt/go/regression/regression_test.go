package regression

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/resultstore/memresultstore"
	"github.com/lwz9103/conbench/bmrt/go/snapshot"
	"github.com/lwz9103/conbench/bmrt/go/types"
)

const repo = "https://github.com/apache/arrow"

var start = time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)

type staticSource struct {
	snap *snapshot.Snapshot
}

func (s staticSource) Get() *snapshot.Snapshot {
	return s.snap
}

func TestComparePairwise_TenPercentFaster_IsImprovement(t *testing.T) {
	p := ComparePairwise(10, 9, true, DefaultThreshold)
	require.NotNil(t, p.PercentChange)
	assert.InDelta(t, -10.0, *p.PercentChange, 1e-9)
	assert.Equal(t, Improvement, p.Verdict)
	assert.Equal(t, DefaultThreshold, p.Threshold)
}

func TestComparePairwise_SignedLogic(t *testing.T) {
	assert.Equal(t, Regression, ComparePairwise(10, 11, true, 5).Verdict)
	assert.Equal(t, NoChange, ComparePairwise(10, 10.4, true, 5).Verdict)
	// Throughput: larger is better.
	assert.Equal(t, Improvement, ComparePairwise(10, 11, false, 5).Verdict)
	assert.Equal(t, Regression, ComparePairwise(10, 9, false, 5).Verdict)
	// Exactly at the threshold is not a change.
	assert.Equal(t, NoChange, ComparePairwise(100, 105, true, 5).Verdict)
}

func TestComparePairwise_Undefined(t *testing.T) {
	for name, p := range map[string]*Pairwise{
		"zero baseline":     ComparePairwise(0, 9, true, 5),
		"missing baseline":  ComparePairwise(types.MissingDataSentinel, 9, true, 5),
		"missing contender": ComparePairwise(10, types.MissingDataSentinel, true, 5),
		"nan contender":     ComparePairwise(10, math.NaN(), true, 5),
	} {
		assert.Nil(t, p.PercentChange, name)
		assert.Equal(t, NoChange, p.Verdict, name)
	}
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "regression", Regression.String())
	assert.Equal(t, "improvement", Improvement.String())
	assert.Equal(t, "no_change", NoChange.String())
}

// series builds one commit and one result per value on the default branch.
// flags marks results that begin a distribution change.
func series(values []float64, flags map[int]bool) *fixture.Fixture {
	b := fixture.NewBuilder(repo, start)
	parent := ""
	for i, v := range values {
		hash := fmt.Sprintf("c%02d", i)
		c := b.DefaultCommit(hash, parent)
		parent = hash
		r := b.Result(fmt.Sprintf("res-%02d", i), b.Run("run-"+hash, c, "hw", "commit"), "file-read", "case", "ctx", v)
		r.BeginsDistributionChange = flags[i]
	}
	return b.Fixture()
}

func build(t *testing.T, f *fixture.Fixture) (*snapshot.Snapshot, *memresultstore.Store) {
	s := memresultstore.New()
	s.Add(f.RawResults()...)
	snap, err := snapshot.Build(context.Background(), s, snapshot.Options{})
	require.NoError(t, err)
	return snap, s
}

func TestLookbackZScore_FromCache(t *testing.T) {
	snap, _ := build(t, series([]float64{9, 11, 9, 11, 30}, nil))
	contender, ok := snap.ByID("res-04")
	require.True(t, ok)

	z := New(staticSource{snap}, nil, 0).LookbackZScore(context.Background(), contender, DefaultThresholdZ)
	require.NotNil(t, z.ZScore)
	assert.True(t, z.FromCache)
	assert.Equal(t, 4, z.HistorySize)
	assert.InDelta(t, 10.0, z.Mean, 1e-9)
	// Sample stddev of 9, 11, 9, 11.
	sd := math.Sqrt(4.0 / 3.0)
	assert.InDelta(t, sd, z.StdDev, 1e-9)
	assert.InDelta(t, 20/sd, *z.ZScore, 1e-9)
	assert.Equal(t, Regression, z.Verdict)
}

func TestLookbackZScore_FewerThanTwoPoints_Nil(t *testing.T) {
	snap, _ := build(t, series([]float64{10, 12}, nil))
	contender, _ := snap.ByID("res-01")
	z := New(staticSource{snap}, nil, 0).LookbackZScore(context.Background(), contender, 5)
	assert.Nil(t, z.ZScore)
	assert.Equal(t, 1, z.HistorySize)
	assert.Equal(t, NoChange, z.Verdict)
}

func TestLookbackZScore_ZeroStdDev_Nil(t *testing.T) {
	snap, _ := build(t, series([]float64{10, 10, 10, 12}, nil))
	contender, _ := snap.ByID("res-03")
	z := New(staticSource{snap}, nil, 0).LookbackZScore(context.Background(), contender, 5)
	assert.Nil(t, z.ZScore)
	assert.Equal(t, 3, z.HistorySize)
}

func TestLookbackZScore_MissingContenderValue_Nil(t *testing.T) {
	snap, _ := build(t, series([]float64{9, 11, 9, types.MissingDataSentinel}, nil))
	contender, _ := snap.ByID("res-03")
	z := New(staticSource{snap}, nil, 0).LookbackZScore(context.Background(), contender, 5)
	assert.Nil(t, z.ZScore)
}

func TestLookbackZScore_MissingHistoryValuesExcluded(t *testing.T) {
	snap, _ := build(t, series([]float64{9, types.MissingDataSentinel, 11, 10}, nil))
	contender, _ := snap.ByID("res-03")
	z := New(staticSource{snap}, nil, 0).LookbackZScore(context.Background(), contender, 5)
	assert.Equal(t, 2, z.HistorySize)
	require.NotNil(t, z.ZScore)
	assert.InDelta(t, 0, *z.ZScore, 1e-9)
}

func TestLookbackZScore_DistributionChangeResetsHistory(t *testing.T) {
	// The step at index 3 is flagged, so only 100, 102, 98 count.
	snap, _ := build(t, series([]float64{10, 11, 9, 100, 102, 98, 101}, map[int]bool{3: true}))
	contender, _ := snap.ByID("res-06")
	z := New(staticSource{snap}, nil, 0).LookbackZScore(context.Background(), contender, 5)
	assert.Equal(t, 3, z.HistorySize)
	assert.InDelta(t, 100.0, z.Mean, 1e-9)
	require.NotNil(t, z.ZScore)
	assert.Equal(t, NoChange, z.Verdict)
}

func TestLookbackZScore_ContenderOwnFlagIgnored(t *testing.T) {
	snap, _ := build(t, series([]float64{9, 11, 9, 11, 10}, map[int]bool{4: true}))
	contender, _ := snap.ByID("res-04")
	z := New(staticSource{snap}, nil, 0).LookbackZScore(context.Background(), contender, 5)
	assert.Equal(t, 4, z.HistorySize)
}

func TestLookbackZScore_Window(t *testing.T) {
	snap, _ := build(t, series([]float64{1000, 9, 11, 10}, nil))
	contender, _ := snap.ByID("res-03")
	z := New(staticSource{snap}, nil, 2).LookbackZScore(context.Background(), contender, 5)
	assert.Equal(t, 2, z.HistorySize)
	assert.InDelta(t, 10.0, z.Mean, 1e-9)
}

func TestLookbackZScore_ExcludesContenderCommit(t *testing.T) {
	b := fixture.NewBuilder(repo, start)
	c1 := b.DefaultCommit("c1", "")
	c2 := b.DefaultCommit("c2", "c1")
	c3 := b.DefaultCommit("c3", "c2")
	b.Result("h1", b.Run("r1", c1, "hw", "commit"), "file-read", "case", "ctx", 9)
	b.Result("h2", b.Run("r2", c2, "hw", "commit"), "file-read", "case", "ctx", 11)
	// An earlier run on the contender's commit.
	b.Result("same-commit", b.Run("r3a", c3, "hw", "commit"), "file-read", "case", "ctx", 500)
	b.Result("contender", b.Run("r3b", c3, "hw", "commit"), "file-read", "case", "ctx", 10)
	snap, _ := build(t, b.Fixture())

	contender, _ := snap.ByID("contender")
	z := New(staticSource{snap}, nil, 0).LookbackZScore(context.Background(), contender, 5)
	assert.Equal(t, 2, z.HistorySize)
	assert.InDelta(t, 10.0, z.Mean, 1e-9)
}

func TestLookbackZScore_NotInCache_FallsBackToStore(t *testing.T) {
	f := series([]float64{9, 11, 9, 11, 30}, nil)
	_, store := build(t, f)
	raw, err := store.ResultByID(context.Background(), "res-04")
	require.NoError(t, err)
	contender := snapshot.Project(raw)

	// An empty source, so nothing is cache resident.
	z := New(staticSource{}, store, 0).LookbackZScore(context.Background(), contender, 5)
	assert.False(t, z.FromCache)
	assert.Equal(t, 4, z.HistorySize)
	require.NotNil(t, z.ZScore)
	assert.Equal(t, Regression, z.Verdict)
}

type brokenHistory struct {
	resultstore.HistoryStore
}

func (brokenHistory) TimeSeriesHistory(ctx context.Context, key types.TimeSeriesKey, before time.Time, limit int) ([]*resultstore.RawResult, error) {
	return nil, errors.New("timeout")
}

func TestLookbackZScore_StoreError_Nil(t *testing.T) {
	contender := &types.BenchmarkResult{ID: "x", SVS: 1, StartedAt: start}
	z := New(staticSource{}, brokenHistory{}, 0).LookbackZScore(context.Background(), contender, 5)
	assert.Nil(t, z.ZScore)
	assert.Equal(t, 0, z.HistorySize)
}

func TestCompareSamples(t *testing.T) {
	slow := []float64{10.1, 10.3, 10.2, 10.4, 10.0, 10.2, 10.3, 10.1}
	fast := []float64{8.1, 8.3, 8.2, 8.0, 8.2, 8.1, 8.3, 8.2}
	st := CompareSamples(slow, fast, DefaultAlpha)
	require.NotNil(t, st.PValue)
	assert.Less(t, *st.PValue, DefaultAlpha)
	assert.True(t, st.Different)

	assert.Nil(t, CompareSamples([]float64{1}, fast, DefaultAlpha).PValue)
}

func TestAnalyzer_Compare_CombinesStatistics(t *testing.T) {
	snap, _ := build(t, series([]float64{9, 11, 9, 11, 30}, nil))
	baseline, _ := snap.ByID("res-03")
	contender, _ := snap.ByID("res-04")

	c := New(staticSource{snap}, nil, 0).Compare(context.Background(), baseline, contender, DefaultThreshold, DefaultThresholdZ)
	assert.Equal(t, "res-03", c.BaselineID)
	assert.Equal(t, "res-04", c.ContenderID)
	assert.Equal(t, "s", c.Unit)
	assert.True(t, c.LessIsBetter)
	require.NotNil(t, c.Pairwise.PercentChange)
	assert.InDelta(t, (30.0-11.0)/11.0*100, *c.Pairwise.PercentChange, 1e-9)
	assert.Equal(t, Regression, c.Pairwise.Verdict)
	assert.Equal(t, Regression, c.LookbackZ.Verdict)
	// One sample each.
	assert.Nil(t, c.Samples.PValue)
}
