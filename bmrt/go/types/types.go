// Package types holds the core types shared by the BMRT cache, the baseline
// resolver and the regression analyzer.
package types

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// MissingDataSentinel marks a measurement or summary value that is absent.
// Any value >= this is treated as missing.
const MissingDataSentinel = 1e32

// IsMissing returns true if v is the sentinel, larger, or NaN.
func IsMissing(v float64) bool {
	return math.IsNaN(v) || v >= MissingDataSentinel
}

// NotAvailable is displayed for unit and reason when none was recorded.
const NotAvailable = "n/a"

// TestReason is the run reason that is deprioritized when picking a
// baseline.
const TestReason = "test"

// DisplayTimeFormat is how start times are rendered for humans.
const DisplayTimeFormat = "2006-01-02 15:04:05 UTC"

// TimeSeriesKey identifies a single time series. It is comparable and can
// be used directly as a map key.
type TimeSeriesKey struct {
	BenchmarkName string
	CaseID        string
	ContextID     string
	HardwareID    string
}

func (k TimeSeriesKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.BenchmarkName, k.CaseID, k.ContextID, k.HardwareID)
}

// CaseContext is the (case id, context id) pair used to match a contender
// against candidate baseline runs.
type CaseContext struct {
	CaseID    string
	ContextID string
}

// CaseText returns the canonical text form of a case dictionary: the
// key=value pairs sorted by key and joined by a single space.
func CaseText(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, " ")
}

// LessIsBetter returns false for throughput units such as "i/s" or "B/s",
// and true for everything else.
func LessIsBetter(unit string) bool {
	return !strings.HasSuffix(unit, "/s")
}

// hardwareShortLen is the number of characters HardwareShort keeps.
const hardwareShortLen = 16

// HardwareShort abbreviates a hardware name for tables: names longer than
// hardwareShortLen characters are cut and end in "...".
func HardwareShort(name string) string {
	if name == "" {
		return NotAvailable
	}
	r := []rune(name)
	if len(r) <= hardwareShortLen {
		return name
	}
	return string(r[:hardwareShortLen]) + "..."
}

// DisplayTime renders t in DisplayTimeFormat.
func DisplayTime(t time.Time) string {
	return t.UTC().Format(DisplayTimeFormat)
}

// BenchmarkResult is the cache-resident projection of a single benchmark
// result. It is immutable once built and owned by the snapshot that built
// it.
type BenchmarkResult struct {
	ID        string
	RunID     string
	CaseID    string
	ContextID string

	BenchmarkName string

	// Measurements are the raw samples, missing entries are
	// MissingDataSentinel.
	Measurements []float64

	// SVS is the single value summary, MissingDataSentinel if absent.
	SVS     float64
	SVSType string
	Unit    string

	StartedAt        time.Time
	StartedAtDisplay string

	HardwareID    string
	HardwareName  string
	HardwareShort string

	CaseDict map[string]string
	CaseText string

	// ContextDict is shared between all results with the same ContextID in
	// a snapshot, so it must not be modified.
	ContextDict map[string]string

	RunReason  string
	CommitHash string

	// BeginsDistributionChange, when set, means this result starts a new
	// distribution and earlier history should be ignored by lookback
	// analysis.
	BeginsDistributionChange bool
}

// Key returns the time series this result belongs to.
func (b *BenchmarkResult) Key() TimeSeriesKey {
	return TimeSeriesKey{
		BenchmarkName: b.BenchmarkName,
		CaseID:        b.CaseID,
		ContextID:     b.ContextID,
		HardwareID:    b.HardwareID,
	}
}

// CaseContext returns the (case, context) pair of this result.
func (b *BenchmarkResult) CaseContext() CaseContext {
	return CaseContext{CaseID: b.CaseID, ContextID: b.ContextID}
}

// HasValue is true if the single value summary is present.
func (b *BenchmarkResult) HasValue() bool {
	return !IsMissing(b.SVS)
}

// EpochSeconds returns the start time as fractional seconds since the epoch.
func (b *BenchmarkResult) EpochSeconds() float64 {
	return float64(b.StartedAt.UnixNano()) / 1e9
}

// StartedAtISO returns the start time as an RFC 3339 UTC string that
// browsers parse as timezone aware.
func (b *BenchmarkResult) StartedAtISO() string {
	return b.StartedAt.UTC().Format(time.RFC3339)
}

// Samples returns the non-missing measurements.
func (b *BenchmarkResult) Samples() []float64 {
	ret := make([]float64, 0, len(b.Measurements))
	for _, m := range b.Measurements {
		if !IsMissing(m) {
			ret = append(ret, m)
		}
	}
	return ret
}

// NonNullSampleCount is the number of non-missing measurements.
func (b *BenchmarkResult) NonNullSampleCount() int {
	return len(b.Samples())
}

// Commit is a node in the commit graph.
type Commit struct {
	ID         string
	Hash       string
	Repository string

	// ParentHash is empty for a root commit.
	ParentHash string

	// ForkPointHash is the default-branch commit a PR branch forked from.
	// Empty for default-branch commits or when unknown.
	ForkPointHash string

	OnDefaultBranch bool
	Timestamp       time.Time
}

// Run is a single benchmark run.
type Run struct {
	ID   string
	Name string

	// CommitID is empty for runs not connected to the commit graph.
	CommitID string

	HardwareID string
	Reason     string
	Timestamp  time.Time
}

// ReasonOrNotAvailable returns the run reason, or NotAvailable if unset.
func ReasonOrNotAvailable(reason string) string {
	if reason == "" {
		return NotAvailable
	}
	return reason
}
