// Package fixture describes a self-contained set of commits, runs and
// results that can be loaded into any of the stores. It backs tests and the
// demo server.
package fixture

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/types"
)

// Result is a benchmark result as written by a benchmark runner.
type Result struct {
	ID            string
	RunID         string
	BenchmarkName string
	CaseID        string
	CaseDict      map[string]string
	ContextID     string
	ContextDict   map[string]string
	Data          []*float64
	SVS           *float64
	SVSType       string
	Unit          string
	Timestamp     time.Time

	BeginsDistributionChange bool
}

// Fixture is a consistent set of rows.
type Fixture struct {
	Commits []*types.Commit
	Runs    []*types.Run
	// Hardware maps hardware id to name.
	Hardware map[string]string
	Results  []*Result
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Floats returns pointers to each of vs.
func Floats(vs ...float64) []*float64 {
	ret := make([]*float64, len(vs))
	for i := range vs {
		ret[i] = Float(vs[i])
	}
	return ret
}

// RawResults joins Results with their runs, hardware and commits, the way
// the SQL store does.
func (f *Fixture) RawResults() []*resultstore.RawResult {
	runs := map[string]*types.Run{}
	for _, r := range f.Runs {
		runs[r.ID] = r
	}
	commits := map[string]*types.Commit{}
	for _, c := range f.Commits {
		commits[c.ID] = c
	}
	ret := make([]*resultstore.RawResult, 0, len(f.Results))
	for _, r := range f.Results {
		raw := &resultstore.RawResult{
			ID:                       r.ID,
			RunID:                    r.RunID,
			CaseID:                   r.CaseID,
			ContextID:                r.ContextID,
			BenchmarkName:            r.BenchmarkName,
			CaseDict:                 r.CaseDict,
			ContextDict:              r.ContextDict,
			Data:                     r.Data,
			SVS:                      r.SVS,
			SVSType:                  r.SVSType,
			Unit:                     r.Unit,
			Timestamp:                r.Timestamp,
			BeginsDistributionChange: r.BeginsDistributionChange,
		}
		if run, ok := runs[r.RunID]; ok {
			raw.HardwareID = run.HardwareID
			raw.HardwareName = f.Hardware[run.HardwareID]
			raw.RunReason = run.Reason
			if c, ok := commits[run.CommitID]; ok {
				raw.CommitHash = c.Hash
				raw.CommitOnDefaultBranch = c.OnDefaultBranch
			}
		}
		ret = append(ret, raw)
	}
	return ret
}

// SyntheticOptions controls Synthetic.
type SyntheticOptions struct {
	Repository     string
	Commits        int
	Benchmarks     int
	CasesPerBench  int
	Hardware       int
	SamplesPerCase int
	Start          time.Time
	Step           time.Duration
	Seed           int64
}

// Synthetic generates a linear default-branch history with one run per
// commit per hardware, plus a PR commit forked from the middle of the
// history. Values are noisy around a per-series baseline.
func Synthetic(opts SyntheticOptions) *Fixture {
	rnd := rand.New(rand.NewSource(opts.Seed))
	f := &Fixture{Hardware: map[string]string{}}
	var hardwareIDs []string
	for h := 0; h < opts.Hardware; h++ {
		id := uuid.NewString()
		hardwareIDs = append(hardwareIDs, id)
		f.Hardware[id] = fmt.Sprintf("machine-%d", h)
	}
	contextID := uuid.NewString()
	contextDict := map[string]string{"arrow_compiler_id": "GNU", "benchmark_language": "Python"}

	type bench struct {
		name, caseID string
		caseDict     map[string]string
		base         float64
	}
	var benches []bench
	for b := 0; b < opts.Benchmarks; b++ {
		for c := 0; c < opts.CasesPerBench; c++ {
			benches = append(benches, bench{
				name:     fmt.Sprintf("bench-%d", b),
				caseID:   uuid.NewString(),
				caseDict: map[string]string{"dataset": fmt.Sprintf("ds-%d", c), "threads": "1"},
				base:     10 + rnd.Float64()*90,
			})
		}
	}

	parent := ""
	ts := opts.Start
	addRuns := func(commit *types.Commit, reason string) {
		for _, hw := range hardwareIDs {
			run := &types.Run{
				ID:         uuid.NewString(),
				Name:       reason + ": " + commit.Hash[:7],
				CommitID:   commit.ID,
				HardwareID: hw,
				Reason:     reason,
				Timestamp:  commit.Timestamp,
			}
			f.Runs = append(f.Runs, run)
			for i, b := range benches {
				data := make([]float64, opts.SamplesPerCase)
				sum := 0.0
				for s := range data {
					data[s] = b.base * (1 + 0.02*rnd.NormFloat64())
					sum += data[s]
				}
				f.Results = append(f.Results, &Result{
					ID:            uuid.NewString(),
					RunID:         run.ID,
					BenchmarkName: b.name,
					CaseID:        b.caseID,
					CaseDict:      b.caseDict,
					ContextID:     contextID,
					ContextDict:   contextDict,
					Data:          Floats(data...),
					SVS:           Float(sum / float64(len(data))),
					SVSType:       "mean",
					Unit:          "s",
					Timestamp:     commit.Timestamp.Add(time.Duration(i) * time.Millisecond),
				})
			}
		}
	}
	var forkPoint *types.Commit
	for i := 0; i < opts.Commits; i++ {
		c := &types.Commit{
			ID:              uuid.NewString(),
			Hash:            fmt.Sprintf("%040x", rnd.Uint64()),
			Repository:      opts.Repository,
			ParentHash:      parent,
			OnDefaultBranch: true,
			Timestamp:       ts,
		}
		f.Commits = append(f.Commits, c)
		addRuns(c, "commit")
		parent = c.Hash
		ts = ts.Add(opts.Step)
		if i == opts.Commits/2 {
			forkPoint = c
		}
	}
	if forkPoint != nil {
		pr := &types.Commit{
			ID:            uuid.NewString(),
			Hash:          fmt.Sprintf("%040x", rnd.Uint64()),
			Repository:    opts.Repository,
			ParentHash:    forkPoint.Hash,
			ForkPointHash: forkPoint.Hash,
			Timestamp:     ts,
		}
		f.Commits = append(f.Commits, pr)
		addRuns(pr, "pull-request")
	}
	return f
}
