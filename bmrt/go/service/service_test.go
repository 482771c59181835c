package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwz9103/conbench/bmrt/go/baseline"
	"github.com/lwz9103/conbench/bmrt/go/commitstore/memcommitstore"
	"github.com/lwz9103/conbench/bmrt/go/config"
	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/refresher"
	"github.com/lwz9103/conbench/bmrt/go/regression"
	"github.com/lwz9103/conbench/bmrt/go/resultstore/memresultstore"
	"github.com/lwz9103/conbench/bmrt/go/types"
)

const repo = "https://github.com/apache/arrow"

// history is six default-branch commits with one run and result each, the
// last one a clear regression.
func history() *fixture.Fixture {
	b := fixture.NewBuilder(repo, fixture.Epoch)
	parent := ""
	for i, v := range []float64{9, 11, 9, 11, 10, 30} {
		hash := fmt.Sprintf("c%d", i+1)
		c := b.DefaultCommit(hash, parent)
		parent = hash
		b.Result("res-"+hash, b.Run("run-"+hash, c, "hw", "commit"), "file-read", "case", "ctx", v)
	}
	return b.Fixture()
}

func newService(t *testing.T, limit int) (*Service, *memresultstore.Store) {
	f := history()
	results := memresultstore.New()
	results.Add(f.RawResults()...)
	cfg := config.TestingInstanceConfig()
	cfg.Cache.Limit = limit
	cfg.Cache.PageSize = 2
	return New(cfg, results, memcommitstore.NewFromFixture(f)), results
}

func TestService_BeforeFirstRefresh_NothingCached(t *testing.T) {
	s, _ := newService(t, 100)
	_, ok := s.GetSnapshotMetadata()
	assert.False(t, ok)
	assert.Nil(t, s.LookupByName("file-read"))
	_, ok = s.LookupTimeSeries(types.TimeSeriesKey{BenchmarkName: "file-read", CaseID: "case", ContextID: "ctx", HardwareID: "hw"})
	assert.False(t, ok)

	// The store still answers.
	r, err := s.LookupByID(context.Background(), "res-c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", r.CommitHash)
}

func TestService_Refresh_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, 100)
	require.NoError(t, s.Refresh(ctx))

	md, ok := s.GetSnapshotMetadata()
	require.True(t, ok)
	assert.Equal(t, 6, md.ResultCount)
	assert.Len(t, s.LookupByName("file-read"), 6)

	ts, ok := s.LookupTimeSeries(types.TimeSeriesKey{BenchmarkName: "file-read", CaseID: "case", ContextID: "ctx", HardwareID: "hw"})
	require.True(t, ok)
	assert.Len(t, ts.Points, 6)
}

func TestService_LookupByID_OutsideCacheWindow_FallsBackToStore(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, 2)
	require.NoError(t, s.Refresh(ctx))
	md, _ := s.GetSnapshotMetadata()
	assert.Equal(t, 2, md.ResultCount)

	r, err := s.LookupByID(ctx, "res-c1")
	require.NoError(t, err)
	assert.Equal(t, 9.0, r.SVS)

	_, err = s.LookupByID(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestService_ResolveBaseline(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, 100)
	res, err := s.ResolveBaseline(ctx, "run-c6", baseline.Parent)
	require.NoError(t, err)
	assert.Equal(t, "run-c5", res.BaselineRunID)
	assert.Equal(t, []string{}, res.CommitsSkipped)

	all, err := s.ResolveAllBaselines(ctx, "run-c6")
	require.NoError(t, err)
	assert.Equal(t, baseline.ErrAlreadyOnDefaultBranch, all[baseline.ForkPoint].Error)
}

func TestService_Compare_UsesConfiguredDefaults(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, 100)
	require.NoError(t, s.Refresh(ctx))

	c, err := s.Compare(ctx, "res-c5", "res-c6", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, regression.DefaultThreshold, c.Pairwise.Threshold)
	assert.Equal(t, regression.Regression, c.Pairwise.Verdict)
	assert.True(t, c.LookbackZ.FromCache)
	assert.Equal(t, 5, c.LookbackZ.HistorySize)

	_, err = s.Compare(ctx, "nope", "res-c6", 0, 0)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestService_SetBeginsDistributionChange_VisibleAfterRefresh(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, 100)
	require.NoError(t, s.SetBeginsDistributionChange(ctx, "res-c6", true))
	require.NoError(t, s.Refresh(ctx))
	r, err := s.LookupByID(ctx, "res-c6")
	require.NoError(t, err)
	assert.True(t, r.BeginsDistributionChange)

	assert.True(t, errors.Is(s.SetBeginsDistributionChange(ctx, "nope", true), ErrNotFound))
}

func TestService_StartAndShutdown(t *testing.T) {
	f := history()
	results := memresultstore.New()
	results.Add(f.RawResults()...)
	cfg := config.TestingInstanceConfig()
	cfg.Cache.InitialDelay.Duration = time.Millisecond
	s := New(cfg, results, memcommitstore.NewFromFixture(f))

	s.Start(context.Background())
	require.Eventually(t, func() bool {
		_, ok := s.GetSnapshotMetadata()
		return ok
	}, 5*time.Second, 5*time.Millisecond)
	s.RequestShutdown()
	s.Wait()
	assert.Equal(t, refresher.Stopped, s.State())
}
