// Package regression decides whether a contender result regressed
// relative to a baseline result and to the history of its time series.
//
// Two statistics are computed:
//   - the pairwise percent change between the baseline and contender
//     single value summaries,
//   - the lookback z-score of the contender against the earlier points of
//     its time series.
//
// For both, a change beyond the threshold in the "worse" direction is a
// regression and in the "better" direction an improvement. Which direction
// is worse depends on the unit, see types.LessIsBetter.
package regression

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/snapshot"
	"github.com/lwz9103/conbench/bmrt/go/types"
	"github.com/lwz9103/conbench/go/sklog"
)

const (
	// DefaultThreshold is the percent change threshold.
	DefaultThreshold = 5.0

	// DefaultThresholdZ is the z-score threshold.
	DefaultThresholdZ = 5.0

	// DefaultLookbackWindow is the number of most recent history points
	// the z-score is computed over.
	DefaultLookbackWindow = 100

	// DefaultAlpha is the significance level of the sample test.
	DefaultAlpha = 0.05
)

// Verdict of a single statistic.
type Verdict int

const (
	// NoChange means the statistic is within the threshold, or could not be
	// computed.
	NoChange Verdict = iota
	Regression
	Improvement
)

func (v Verdict) String() string {
	switch v {
	case NoChange:
		return "no_change"
	case Regression:
		return "regression"
	case Improvement:
		return "improvement"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// classify applies the signed threshold logic shared by both statistics.
// change is positive when the contender's value is larger.
func classify(change, threshold float64, lessIsBetter bool) Verdict {
	switch {
	case change > threshold:
		if lessIsBetter {
			return Regression
		}
		return Improvement
	case change < -threshold:
		if lessIsBetter {
			return Improvement
		}
		return Regression
	}
	return NoChange
}

// Pairwise is the percent change from baseline to contender.
type Pairwise struct {
	// PercentChange is (contender - baseline) / baseline * 100, nil if it
	// could not be computed.
	PercentChange *float64 `json:"percent_change"`
	Threshold     float64  `json:"threshold"`
	Verdict       Verdict  `json:"verdict"`
}

// ComparePairwise computes the percent change from baseline to contender.
// PercentChange is nil when baseline is zero or either value is missing.
func ComparePairwise(baseline, contender float64, lessIsBetter bool, threshold float64) *Pairwise {
	ret := &Pairwise{Threshold: threshold}
	if types.IsMissing(baseline) || types.IsMissing(contender) || baseline == 0 {
		return ret
	}
	pc := (contender - baseline) / baseline * 100
	ret.PercentChange = &pc
	ret.Verdict = classify(pc, threshold, lessIsBetter)
	return ret
}

// LookbackZ is the z-score of the contender against its history.
type LookbackZ struct {
	// ZScore is nil with fewer than two history points, zero spread in the
	// history, or a missing contender value.
	ZScore    *float64 `json:"z_score"`
	Threshold float64  `json:"z_threshold"`
	Verdict   Verdict  `json:"verdict"`

	HistorySize int     `json:"history_size"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"stddev"`

	// FromCache is false if the history was read from the store because
	// the time series is not resident in the cache.
	FromCache bool `json:"from_cache"`
}

// SampleTest is a Mann-Whitney U test over the raw samples of baseline and
// contender.
type SampleTest struct {
	// PValue is nil if either side has fewer than two samples or the test
	// could not be computed.
	PValue    *float64 `json:"p_value"`
	Alpha     float64  `json:"alpha"`
	Different bool     `json:"different"`
}

// CompareSamples runs the rank test on the non-missing samples.
func CompareSamples(baseline, contender []float64, alpha float64) *SampleTest {
	ret := &SampleTest{Alpha: alpha}
	if len(baseline) < 2 || len(contender) < 2 {
		return ret
	}
	res, err := stats.MannWhitneyUTest(baseline, contender, stats.LocationDiffers)
	if err != nil {
		sklog.Debugf("Mann-Whitney U test not computed: %s", err)
		return ret
	}
	p := res.P
	ret.PValue = &p
	ret.Different = p < alpha
	return ret
}

// Comparison bundles all statistics for one baseline/contender pair.
type Comparison struct {
	BaselineID   string      `json:"baseline_id"`
	ContenderID  string      `json:"contender_id"`
	Unit         string      `json:"unit"`
	LessIsBetter bool        `json:"less_is_better"`
	Pairwise     *Pairwise   `json:"pairwise"`
	LookbackZ    *LookbackZ  `json:"lookback_z"`
	Samples      *SampleTest `json:"samples"`
}

// SnapshotSource returns the current snapshot, or nil. It is implemented by
// *refresher.Refresher.
type SnapshotSource interface {
	Get() *snapshot.Snapshot
}

// Analyzer computes comparisons. It never fails: statistics that can't be
// computed are left nil.
type Analyzer struct {
	snapshots SnapshotSource
	history   resultstore.HistoryStore
	window    int
	alpha     float64
}

// New returns an Analyzer. history may be nil, in which case series that
// aren't cache resident have no history. window <= 0 means
// DefaultLookbackWindow.
func New(snapshots SnapshotSource, history resultstore.HistoryStore, window int) *Analyzer {
	if window <= 0 {
		window = DefaultLookbackWindow
	}
	return &Analyzer{
		snapshots: snapshots,
		history:   history,
		window:    window,
		alpha:     DefaultAlpha,
	}
}

// Compare computes all statistics for baseline and contender.
func (a *Analyzer) Compare(ctx context.Context, baseline, contender *types.BenchmarkResult, threshold, thresholdZ float64) *Comparison {
	lessIsBetter := types.LessIsBetter(contender.Unit)
	return &Comparison{
		BaselineID:   baseline.ID,
		ContenderID:  contender.ID,
		Unit:         contender.Unit,
		LessIsBetter: lessIsBetter,
		Pairwise:     ComparePairwise(baseline.SVS, contender.SVS, lessIsBetter, threshold),
		LookbackZ:    a.LookbackZScore(ctx, contender, thresholdZ),
		Samples:      CompareSamples(baseline.Samples(), contender.Samples(), a.alpha),
	}
}

// point is a single history entry.
type point struct {
	startedAt time.Time
	value     float64
	commit    string
	id        string
	begins    bool
}

// LookbackZScore computes the z-score of contender against the earlier
// points of its time series.
func (a *Analyzer) LookbackZScore(ctx context.Context, contender *types.BenchmarkResult, thresholdZ float64) *LookbackZ {
	ret := &LookbackZ{Threshold: thresholdZ}
	points, fromCache := a.historyPoints(ctx, contender)
	ret.FromCache = fromCache
	values := window(eligible(points, contender), a.window)
	ret.HistorySize = len(values)
	if len(values) < 2 {
		return ret
	}
	ret.Mean = stats.Mean(values)
	ret.StdDev = stats.StdDev(values)
	if !contender.HasValue() || ret.StdDev == 0 || math.IsNaN(ret.StdDev) {
		return ret
	}
	z := (contender.SVS - ret.Mean) / ret.StdDev
	ret.ZScore = &z
	ret.Verdict = classify(z, thresholdZ, types.LessIsBetter(contender.Unit))
	return ret
}

// historyPoints returns the series of contender oldest first, from the
// cache if it holds the series, otherwise from the store.
func (a *Analyzer) historyPoints(ctx context.Context, contender *types.BenchmarkResult) ([]point, bool) {
	key := contender.Key()
	if a.snapshots != nil {
		if snap := a.snapshots.Get(); snap != nil {
			if ts, ok := snap.TimeSeries(key); ok {
				ret := make([]point, len(ts.Results))
				for i, r := range ts.Results {
					ret[i] = point{startedAt: r.StartedAt, value: r.SVS, commit: r.CommitHash, id: r.ID, begins: r.BeginsDistributionChange}
				}
				return ret, true
			}
		}
	}
	if a.history == nil {
		return nil, false
	}
	// Extra rows make up for points dropped from the contender's commit.
	rows, err := a.history.TimeSeriesHistory(ctx, key, contender.StartedAt, 2*a.window)
	if err != nil {
		sklog.Warningf("Failed to load history for %s, skipping lookback z-score: %s", key, err)
		return nil, false
	}
	ret := make([]point, len(rows))
	for i, r := range rows {
		v := types.MissingDataSentinel
		if r.SVS != nil {
			v = *r.SVS
		}
		ret[i] = point{startedAt: r.Timestamp, value: v, commit: r.CommitHash, id: r.ID, begins: r.BeginsDistributionChange}
	}
	return ret, false
}

// eligible keeps the points before the contender that aren't on its commit,
// drops everything before the most recent distribution change, and returns
// the non-missing values oldest first.
func eligible(points []point, contender *types.BenchmarkResult) []float64 {
	var kept []point
	for _, p := range points {
		if p.id == contender.ID || !p.startedAt.Before(contender.StartedAt) || p.commit == contender.CommitHash {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept) - 1; i >= 0; i-- {
		if kept[i].begins {
			kept = kept[i:]
			break
		}
	}
	values := make([]float64, 0, len(kept))
	for _, p := range kept {
		if !types.IsMissing(p.value) {
			values = append(values, p.value)
		}
	}
	return values
}

// window returns the last n values.
func window(values []float64, n int) []float64 {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}
