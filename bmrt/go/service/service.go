// Package service is the read API of the BMRT cache. It ties the refresher,
// the baseline resolver and the regression analyzer together and falls back
// to the result store for results that aren't cache resident.
package service

import (
	"context"
	"errors"

	"github.com/lwz9103/conbench/bmrt/go/baseline"
	"github.com/lwz9103/conbench/bmrt/go/commitstore"
	"github.com/lwz9103/conbench/bmrt/go/config"
	"github.com/lwz9103/conbench/bmrt/go/refresher"
	"github.com/lwz9103/conbench/bmrt/go/regression"
	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/snapshot"
	"github.com/lwz9103/conbench/bmrt/go/types"
	"github.com/lwz9103/conbench/go/metrics2"
	"github.com/lwz9103/conbench/go/skerr"
)

// ErrNotFound is returned by lookups when a result is neither in the cache
// nor in the store.
var ErrNotFound = errors.New("benchmark result not found")

// Service implements the exposed operations.
type Service struct {
	results   resultstore.Store
	refresher *refresher.Refresher
	resolver  *baseline.Resolver
	analyzer  *regression.Analyzer

	threshold  float64
	thresholdZ float64

	cacheHits    metrics2.Counter
	storeHits    metrics2.Counter
	lookupMisses metrics2.Counter
}

// New returns a Service configured by cfg. Call Start to begin refreshing.
func New(cfg *config.InstanceConfig, results resultstore.Store, commits commitstore.Store) *Service {
	r := refresher.New(results, cfg.RefresherOptions())
	return &Service{
		results:      results,
		refresher:    r,
		resolver:     baseline.New(commits, cfg.Baseline.MaxAncestorDepth),
		analyzer:     regression.New(r, results, cfg.Regression.LookbackWindow),
		threshold:    cfg.Regression.Threshold,
		thresholdZ:   cfg.Regression.ThresholdZ,
		cacheHits:    metrics2.GetCounter("bmrt_lookup", map[string]string{"source": "cache"}),
		storeHits:    metrics2.GetCounter("bmrt_lookup", map[string]string{"source": "store"}),
		lookupMisses: metrics2.GetCounter("bmrt_lookup", map[string]string{"source": "none"}),
	}
}

// Start the background refresh loop.
func (s *Service) Start(ctx context.Context) {
	s.refresher.Start(ctx)
}

// RequestShutdown stops the refresh loop. It doesn't block.
func (s *Service) RequestShutdown() {
	s.refresher.RequestShutdown()
}

// Wait blocks until the refresh loop has exited.
func (s *Service) Wait() {
	s.refresher.Wait()
}

// Refresh builds and publishes a snapshot right now.
func (s *Service) Refresh(ctx context.Context) error {
	return s.refresher.RefreshOnce(ctx)
}

// State of the refresh loop.
func (s *Service) State() refresher.State {
	return s.refresher.State()
}

// GetSnapshotMetadata returns the metadata of the current snapshot, or false
// if no snapshot has been published yet.
func (s *Service) GetSnapshotMetadata() (snapshot.Metadata, bool) {
	snap := s.refresher.Get()
	if snap == nil {
		return snapshot.Metadata{}, false
	}
	return snap.Metadata(), true
}

// LookupByID returns the result with the given id, from the cache if
// possible and otherwise from the store.
func (s *Service) LookupByID(ctx context.Context, id string) (*types.BenchmarkResult, error) {
	if snap := s.refresher.Get(); snap != nil {
		if r, ok := snap.ByID(id); ok {
			s.cacheHits.Inc(1)
			return r, nil
		}
	}
	raw, err := s.results.ResultByID(ctx, id)
	if errors.Is(err, resultstore.ErrNotFound) {
		s.lookupMisses.Inc(1)
		return nil, skerr.Wrapf(ErrNotFound, "id %q", id)
	}
	if err != nil {
		return nil, skerr.Wrapf(err, "loading result %q", id)
	}
	s.storeHits.Inc(1)
	return snapshot.Project(raw), nil
}

// LookupByName returns the cached results of a benchmark. Results older
// than the cache window are not returned.
func (s *Service) LookupByName(name string) []*types.BenchmarkResult {
	snap := s.refresher.Get()
	if snap == nil {
		return nil
	}
	return snap.ByName(name)
}

// LookupTimeSeries returns the cached series for key.
func (s *Service) LookupTimeSeries(key types.TimeSeriesKey) (*snapshot.TimeSeries, bool) {
	snap := s.refresher.Get()
	if snap == nil {
		return nil, false
	}
	return snap.TimeSeries(key)
}

// ResolveBaseline finds the baseline run of runID for strategy.
func (s *Service) ResolveBaseline(ctx context.Context, runID string, strategy baseline.Strategy) (*baseline.Resolution, error) {
	return s.resolver.Resolve(ctx, runID, strategy)
}

// ResolveAllBaselines resolves every strategy for runID.
func (s *Service) ResolveAllBaselines(ctx context.Context, runID string) (map[baseline.Strategy]*baseline.Resolution, error) {
	return s.resolver.ResolveAll(ctx, runID)
}

// Compare the results baselineID and contenderID. Thresholds <= 0 use the
// configured defaults.
func (s *Service) Compare(ctx context.Context, baselineID, contenderID string, threshold, thresholdZ float64) (*regression.Comparison, error) {
	if threshold <= 0 {
		threshold = s.threshold
	}
	if thresholdZ <= 0 {
		thresholdZ = s.thresholdZ
	}
	b, err := s.LookupByID(ctx, baselineID)
	if err != nil {
		return nil, skerr.Wrapf(err, "baseline")
	}
	c, err := s.LookupByID(ctx, contenderID)
	if err != nil {
		return nil, skerr.Wrapf(err, "contender")
	}
	return s.analyzer.Compare(ctx, b, c, threshold, thresholdZ), nil
}

// SetBeginsDistributionChange flags or clears the distribution change
// annotation of a result. The cache picks it up on the next refresh.
func (s *Service) SetBeginsDistributionChange(ctx context.Context, id string, begins bool) error {
	err := s.results.SetBeginsDistributionChange(ctx, id, begins)
	if errors.Is(err, resultstore.ErrNotFound) {
		return skerr.Wrapf(ErrNotFound, "id %q", id)
	}
	return skerr.Wrap(err)
}
