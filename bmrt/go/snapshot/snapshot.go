// Package snapshot builds the immutable, multi-indexed view of the most
// recent benchmark results that the BMRT cache publishes.
//
// A Snapshot is never modified after Build returns, so it can be read from
// any number of goroutines without locking.
package snapshot

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"time"

	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/types"
	"github.com/lwz9103/conbench/go/now"
	"github.com/lwz9103/conbench/go/skerr"
)

// ErrEmpty is returned by Build when no result was admitted. Callers
// should keep whatever they had before.
var ErrEmpty = errors.New("no results to cache")

const (
	// DefaultLimit is the number of most recent rows to consume.
	DefaultLimit = 800000

	// DefaultPageSize is the number of rows fetched from the store at a time.
	DefaultPageSize = 2000
)

// ExclusionReason says why a consumed row is not in the snapshot.
type ExclusionReason int

const (
	NotExcluded ExclusionReason = iota
	ExcludedNoCommit
	ExcludedNotDefaultBranch
)

func (e ExclusionReason) String() string {
	switch e {
	case NotExcluded:
		return "not excluded"
	case ExcludedNoCommit:
		return "run has no commit"
	case ExcludedNotDefaultBranch:
		return "commit is not on the default branch"
	}
	return "unknown"
}

// Point is a single (start time, single value summary) pair. Value is
// types.MissingDataSentinel if the result has no summary.
type Point struct {
	Time  time.Time
	Value float64
}

// TimeSeries is all results for one TimeSeriesKey, oldest first.
type TimeSeries struct {
	Key     types.TimeSeriesKey
	Results []*types.BenchmarkResult
	Points  []Point
}

// Metadata describes a snapshot.
type Metadata struct {
	// ResultCount is the number of admitted results.
	ResultCount     int
	TimeSeriesCount int

	// RowsConsumed includes skipped rows.
	RowsConsumed            int
	SkippedNoCommit         int
	SkippedNotDefaultBranch int

	// Newest and Oldest are the start times of the first and last consumed
	// rows.
	Newest        time.Time
	Oldest        time.Time
	NewestDisplay string
	OldestDisplay string

	// CoveredDays is the whole number of days between Oldest and Newest.
	CoveredDays int

	BuiltAt       time.Time
	BuildDuration time.Duration
}

// Options for Build. Zero values pick the defaults.
type Options struct {
	Limit    int
	PageSize int

	// YieldEvery, if positive, yields the processor every that many rows
	// so a build doesn't starve request handling goroutines.
	YieldEvery int
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	return o
}

// Snapshot is an immutable set of indexes over benchmark results.
type Snapshot struct {
	metadata Metadata
	byID     map[string]*types.BenchmarkResult
	byName   map[string][]*types.BenchmarkResult
	byCase   map[string][]*types.BenchmarkResult
	series   map[types.TimeSeriesKey]*TimeSeries
	excluded map[string]ExclusionReason
}

// Metadata returns the metadata of the snapshot.
func (s *Snapshot) Metadata() Metadata {
	return s.metadata
}

// ByID returns the result with the given id.
func (s *Snapshot) ByID(id string) (*types.BenchmarkResult, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Excluded returns why id was consumed but not admitted. It returns
// NotExcluded both for admitted ids and ids that were never seen.
func (s *Snapshot) Excluded(id string) ExclusionReason {
	return s.excluded[id]
}

// ByName returns all results for a benchmark name, in consumption order,
// i.e. newest first. The returned slice must not be modified.
func (s *Snapshot) ByName(name string) []*types.BenchmarkResult {
	return s.byName[name]
}

// ByCaseID returns all results for a case id, newest first. The returned
// slice must not be modified.
func (s *Snapshot) ByCaseID(caseID string) []*types.BenchmarkResult {
	return s.byCase[caseID]
}

// TimeSeries returns the series for key.
func (s *Snapshot) TimeSeries(key types.TimeSeriesKey) (*TimeSeries, bool) {
	ts, ok := s.series[key]
	return ts, ok
}

// Keys returns all time series keys, sorted by their String form.
func (s *Snapshot) Keys() []types.TimeSeriesKey {
	ret := make([]types.TimeSeriesKey, 0, len(s.series))
	for k := range s.series {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].String() < ret[j].String() })
	return ret
}

// BenchmarkNames returns all benchmark names, sorted.
func (s *Snapshot) BenchmarkNames() []string {
	ret := make([]string, 0, len(s.byName))
	for name := range s.byName {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// builder holds the mutable state of a single Build.
type builder struct {
	snap         *Snapshot
	contextDicts map[string]map[string]string
	consumed     int
}

func (b *builder) add(raw *resultstore.RawResult) {
	md := &b.snap.metadata
	if b.consumed == 0 {
		md.Newest = raw.Timestamp
	}
	md.Oldest = raw.Timestamp
	b.consumed++

	if !raw.HasCommit() {
		md.SkippedNoCommit++
		b.snap.excluded[raw.ID] = ExcludedNoCommit
		return
	}
	if !raw.CommitOnDefaultBranch {
		md.SkippedNotDefaultBranch++
		b.snap.excluded[raw.ID] = ExcludedNotDefaultBranch
		return
	}

	r := project(raw, b.contextDicts)
	b.snap.byID[r.ID] = r
	b.snap.byName[r.BenchmarkName] = append(b.snap.byName[r.BenchmarkName], r)
	b.snap.byCase[r.CaseID] = append(b.snap.byCase[r.CaseID], r)
	key := r.Key()
	ts, ok := b.snap.series[key]
	if !ok {
		ts = &TimeSeries{Key: key}
		b.snap.series[key] = ts
	}
	ts.Results = append(ts.Results, r)
}

// project maps a stored row onto the cache-resident type. Context dicts are
// interned per context id.
func project(raw *resultstore.RawResult, contextDicts map[string]map[string]string) *types.BenchmarkResult {
	measurements := make([]float64, len(raw.Data))
	for i, d := range raw.Data {
		if d == nil {
			measurements[i] = types.MissingDataSentinel
		} else {
			measurements[i] = *d
		}
	}
	svs := types.MissingDataSentinel
	if raw.SVS != nil {
		svs = *raw.SVS
	}
	unit := raw.Unit
	if unit == "" {
		unit = types.NotAvailable
	}
	contextDict, ok := contextDicts[raw.ContextID]
	if !ok {
		contextDict = raw.ContextDict
		contextDicts[raw.ContextID] = contextDict
	}
	return &types.BenchmarkResult{
		ID:                       raw.ID,
		RunID:                    raw.RunID,
		CaseID:                   raw.CaseID,
		ContextID:                raw.ContextID,
		BenchmarkName:            raw.BenchmarkName,
		Measurements:             measurements,
		SVS:                      svs,
		SVSType:                  raw.SVSType,
		Unit:                     unit,
		StartedAt:                raw.Timestamp,
		StartedAtDisplay:         types.DisplayTime(raw.Timestamp),
		HardwareID:               raw.HardwareID,
		HardwareName:             raw.HardwareName,
		HardwareShort:            types.HardwareShort(raw.HardwareName),
		CaseDict:                 raw.CaseDict,
		CaseText:                 types.CaseText(raw.CaseDict),
		ContextDict:              contextDict,
		RunReason:                types.ReasonOrNotAvailable(raw.RunReason),
		CommitHash:               raw.CommitHash,
		BeginsDistributionChange: raw.BeginsDistributionChange,
	}
}

// Project maps a single stored row onto the cache-resident type, for rows
// read outside of a Build.
func Project(raw *resultstore.RawResult) *types.BenchmarkResult {
	return project(raw, map[string]map[string]string{})
}

func (b *builder) finish() {
	md := &b.snap.metadata
	for _, ts := range b.snap.series {
		sort.SliceStable(ts.Results, func(i, j int) bool {
			return ts.Results[i].StartedAt.Before(ts.Results[j].StartedAt)
		})
		ts.Points = make([]Point, len(ts.Results))
		for i, r := range ts.Results {
			ts.Points[i] = Point{Time: r.StartedAt, Value: r.SVS}
		}
	}
	md.RowsConsumed = b.consumed
	md.ResultCount = len(b.snap.byID)
	md.TimeSeriesCount = len(b.snap.series)
	md.NewestDisplay = types.DisplayTime(md.Newest)
	md.OldestDisplay = types.DisplayTime(md.Oldest)
	md.CoveredDays = int(md.Newest.Sub(md.Oldest) / (24 * time.Hour))
}

// Build consumes up to opts.Limit of the most recent rows from store and
// returns a new Snapshot. It returns ErrEmpty if no row was admitted.
func Build(ctx context.Context, store resultstore.ResultStore, opts Options) (*Snapshot, error) {
	opts = opts.withDefaults()
	begin := now.Now(ctx)
	b := &builder{
		snap: &Snapshot{
			byID:     map[string]*types.BenchmarkResult{},
			byName:   map[string][]*types.BenchmarkResult{},
			byCase:   map[string][]*types.BenchmarkResult{},
			series:   map[types.TimeSeriesKey]*TimeSeries{},
			excluded: map[string]ExclusionReason{},
		},
		contextDicts: map[string]map[string]string{},
	}
	err := store.StreamRecent(ctx, opts.Limit, opts.PageSize, func(raw *resultstore.RawResult) error {
		b.add(raw)
		if opts.YieldEvery > 0 && b.consumed%opts.YieldEvery == 0 {
			runtime.Gosched()
		}
		return nil
	})
	if err != nil {
		return nil, skerr.Wrapf(err, "streaming results after %d rows", b.consumed)
	}
	if len(b.snap.byID) == 0 {
		return nil, ErrEmpty
	}
	b.finish()
	b.snap.metadata.BuiltAt = now.Now(ctx)
	b.snap.metadata.BuildDuration = b.snap.metadata.BuiltAt.Sub(begin)
	return b.snap, nil
}
