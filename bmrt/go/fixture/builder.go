package fixture

import (
	"time"

	"github.com/lwz9103/conbench/bmrt/go/types"
)

// Epoch is a fixed start time for hand-written fixtures.
var Epoch = time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)

// Builder assembles small hand-written fixtures with deterministic ids.
// Each commit, run and result gets a timestamp one minute after the
// previous one unless set with At.
type Builder struct {
	repository string
	next       time.Time
	f          *Fixture
}

// NewBuilder starts a fixture for repository.
func NewBuilder(repository string, start time.Time) *Builder {
	return &Builder{
		repository: repository,
		next:       start,
		f:          &Fixture{Hardware: map[string]string{}},
	}
}

func (b *Builder) tick() time.Time {
	ts := b.next
	b.next = b.next.Add(time.Minute)
	return ts
}

// At moves the clock so the next row is stamped ts.
func (b *Builder) At(ts time.Time) *Builder {
	b.next = ts
	return b
}

// DefaultCommit adds a default-branch commit with id "commit-"+hash.
func (b *Builder) DefaultCommit(hash, parentHash string) *types.Commit {
	c := &types.Commit{
		ID:              "commit-" + hash,
		Hash:            hash,
		Repository:      b.repository,
		ParentHash:      parentHash,
		OnDefaultBranch: true,
		Timestamp:       b.tick(),
	}
	b.f.Commits = append(b.f.Commits, c)
	return c
}

// BranchCommit adds a non-default-branch commit.
func (b *Builder) BranchCommit(hash, parentHash, forkPointHash string) *types.Commit {
	c := &types.Commit{
		ID:            "commit-" + hash,
		Hash:          hash,
		Repository:    b.repository,
		ParentHash:    parentHash,
		ForkPointHash: forkPointHash,
		Timestamp:     b.tick(),
	}
	b.f.Commits = append(b.f.Commits, c)
	return c
}

// Run adds a run on commit c, which may be nil for a commit-less run.
func (b *Builder) Run(id string, c *types.Commit, hardwareID, reason string) *types.Run {
	r := &types.Run{
		ID:         id,
		Name:       id,
		HardwareID: hardwareID,
		Reason:     reason,
		Timestamp:  b.tick(),
	}
	if c != nil {
		r.CommitID = c.ID
	}
	if _, ok := b.f.Hardware[hardwareID]; !ok {
		b.f.Hardware[hardwareID] = "name-" + hardwareID
	}
	b.f.Runs = append(b.f.Runs, r)
	return r
}

// Result adds a result to run with a single value summary of svs and one
// sample of the same value. The case dict is {"case": caseID}.
func (b *Builder) Result(id string, run *types.Run, benchmarkName, caseID, contextID string, svs float64) *Result {
	r := &Result{
		ID:            id,
		RunID:         run.ID,
		BenchmarkName: benchmarkName,
		CaseID:        caseID,
		CaseDict:      map[string]string{"case": caseID},
		ContextID:     contextID,
		ContextDict:   map[string]string{"context": contextID},
		Data:          Floats(svs),
		SVS:           Float(svs),
		SVSType:       "mean",
		Unit:          "s",
		Timestamp:     b.tick(),
	}
	b.f.Results = append(b.f.Results, r)
	return r
}

// Fixture returns everything built so far.
func (b *Builder) Fixture() *Fixture {
	return b.f
}
