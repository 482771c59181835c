// Package resultstore defines how benchmark results are read from, and
// annotated in, persistent storage.
package resultstore

import (
	"context"
	"errors"
	"time"

	"github.com/lwz9103/conbench/bmrt/go/types"
)

// ErrNotFound is returned when a result does not exist.
var ErrNotFound = errors.New("result not found")

// RawResult is a single benchmark result row as stored, joined with the
// run, hardware and commit rows it refers to.
type RawResult struct {
	ID        string
	RunID     string
	CaseID    string
	ContextID string

	BenchmarkName string
	CaseDict      map[string]string
	ContextDict   map[string]string

	// Data holds the raw samples. A nil entry is a missing sample.
	Data []*float64

	// SVS is nil if the result has no single value summary, e.g. because
	// it errored.
	SVS     *float64
	SVSType string
	Unit    string

	Timestamp time.Time

	HardwareID   string
	HardwareName string
	RunReason    string

	// CommitHash is empty if the run is not associated with a commit.
	CommitHash            string
	CommitOnDefaultBranch bool

	BeginsDistributionChange bool
}

// HasCommit is true if the result's run is tied to a commit.
func (r *RawResult) HasCommit() bool {
	return r.CommitHash != ""
}

// Key returns the time series key of the row.
func (r *RawResult) Key() types.TimeSeriesKey {
	return types.TimeSeriesKey{
		BenchmarkName: r.BenchmarkName,
		CaseID:        r.CaseID,
		ContextID:     r.ContextID,
		HardwareID:    r.HardwareID,
	}
}

// ResultStore streams the most recent results.
type ResultStore interface {
	// StreamRecent calls f once per row for at most limit rows, newest
	// first, with ties broken by descending id. Rows are read in pages of
	// pageSize so memory stays bounded. If f returns an error the stream
	// stops and that error is returned.
	StreamRecent(ctx context.Context, limit, pageSize int, f func(*RawResult) error) error
}

// HistoryStore answers history queries for time series that are not
// resident in the cache.
type HistoryStore interface {
	// TimeSeriesHistory returns up to limit default-branch results for key
	// that started strictly before before, oldest first.
	TimeSeriesHistory(ctx context.Context, key types.TimeSeriesKey, before time.Time, limit int) ([]*RawResult, error)

	// ResultByID returns ErrNotFound if there is no such result.
	ResultByID(ctx context.Context, id string) (*RawResult, error)
}

// Annotator changes caller-settable annotations on results.
type Annotator interface {
	// SetBeginsDistributionChange returns ErrNotFound if there is no such
	// result.
	SetBeginsDistributionChange(ctx context.Context, id string, begins bool) error
}

// Store is everything the service needs from result storage.
type Store interface {
	ResultStore
	HistoryStore
	Annotator
}
