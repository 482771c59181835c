package fixture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestBuilder_RawResults_JoinsRunHardwareAndCommit(t *testing.T) {
	b := NewBuilder("https://github.com/apache/arrow", start)
	c := b.DefaultCommit("aaa", "")
	run := b.Run("run-1", c, "hw-1", "commit")
	b.Result("res-1", run, "file-read", "case-1", "ctx-1", 2.5)

	loose := b.Run("run-2", nil, "hw-1", "manual")
	b.Result("res-2", loose, "file-read", "case-1", "ctx-1", 3)

	raws := b.Fixture().RawResults()
	require.Len(t, raws, 2)
	assert.Equal(t, "aaa", raws[0].CommitHash)
	assert.True(t, raws[0].CommitOnDefaultBranch)
	assert.Equal(t, "name-hw-1", raws[0].HardwareName)
	assert.Equal(t, "commit", raws[0].RunReason)
	assert.Equal(t, 2.5, *raws[0].SVS)

	assert.False(t, raws[1].HasCommit())
	assert.True(t, raws[1].Timestamp.After(raws[0].Timestamp))
}

func TestSynthetic_Shape(t *testing.T) {
	f := Synthetic(SyntheticOptions{
		Repository:     "https://github.com/apache/arrow",
		Commits:        4,
		Benchmarks:     2,
		CasesPerBench:  3,
		Hardware:       2,
		SamplesPerCase: 5,
		Start:          start,
		Step:           time.Hour,
		Seed:           1,
	})
	// 4 default commits plus one PR commit.
	require.Len(t, f.Commits, 5)
	assert.Len(t, f.Runs, 5*2)
	assert.Len(t, f.Results, 5*2*2*3)
	pr := f.Commits[4]
	assert.False(t, pr.OnDefaultBranch)
	assert.Equal(t, f.Commits[2].Hash, pr.ForkPointHash)
	for _, r := range f.Results {
		assert.Len(t, r.Data, 5)
	}
}
