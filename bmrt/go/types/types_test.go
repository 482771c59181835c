package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseText_SortsKeysAndJoinsWithSpace(t *testing.T) {
	assert.Equal(t, "a=1 b=2 zeta=last", CaseText(map[string]string{"zeta": "last", "b": "2", "a": "1"}))
	assert.Equal(t, "", CaseText(map[string]string{}))
	assert.Equal(t, "", CaseText(nil))
}

func TestTimeSeriesKey_IsComparableMapKey(t *testing.T) {
	m := map[TimeSeriesKey]int{}
	k1 := TimeSeriesKey{BenchmarkName: "file-read", CaseID: "c1", ContextID: "x1", HardwareID: "h1"}
	k2 := TimeSeriesKey{BenchmarkName: "file-read", CaseID: "c1", ContextID: "x1", HardwareID: "h1"}
	m[k1]++
	m[k2]++
	assert.Equal(t, 2, m[k1])
	assert.Equal(t, "file-read/c1/x1/h1", k1.String())
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(MissingDataSentinel))
	assert.True(t, IsMissing(math.NaN()))
	assert.False(t, IsMissing(0))
	assert.False(t, IsMissing(-12.5))
}

func TestLessIsBetter(t *testing.T) {
	assert.True(t, LessIsBetter("s"))
	assert.True(t, LessIsBetter("ns"))
	assert.True(t, LessIsBetter(""))
	assert.False(t, LessIsBetter("i/s"))
	assert.False(t, LessIsBetter("B/s"))
}

func TestBenchmarkResult_DisplayHelpers(t *testing.T) {
	ts := time.Date(2023, time.May, 4, 10, 11, 12, 0, time.UTC)
	b := &BenchmarkResult{
		Measurements: []float64{1, MissingDataSentinel, 3},
		Unit:         "s",
		StartedAt:    ts,
		SVS:          2,
	}
	assert.Equal(t, 2, b.NonNullSampleCount())
	assert.Equal(t, []float64{1, 3}, b.Samples())
	assert.Equal(t, "2023-05-04T10:11:12Z", b.StartedAtISO())
	assert.Equal(t, "2023-05-04 10:11:12 UTC", DisplayTime(ts))
	assert.Equal(t, float64(ts.Unix()), b.EpochSeconds())
	assert.True(t, b.HasValue())
	assert.Equal(t, "2 ± 1.4 s", b.MeanAndUncertainty())

	rel, ok := b.RelativeSEM()
	require.True(t, ok)
	// stddev sqrt(2), sem 1, mean 2.
	assert.InDelta(t, 50.0, rel, 1e-9)
	assert.Equal(t, "50.00 %", b.RelativeSEMDisplay())
}

func TestBenchmarkResult_NoSamples(t *testing.T) {
	b := &BenchmarkResult{SVS: MissingDataSentinel}
	assert.False(t, b.HasValue())
	assert.Equal(t, "no data", b.MeanAndUncertainty())
	assert.Equal(t, NotAvailable, b.RelativeSEMDisplay())
}

func TestReasonOrNotAvailable(t *testing.T) {
	assert.Equal(t, NotAvailable, ReasonOrNotAvailable(""))
	assert.Equal(t, "commit", ReasonOrNotAvailable("commit"))
}

func TestHardwareShort(t *testing.T) {
	assert.Equal(t, "ec2-m5-4xlarge", HardwareShort("ec2-m5-4xlarge"))
	assert.Equal(t, "ursa-i9-9960x-lo...", HardwareShort("ursa-i9-9960x-long-name"))
	assert.Equal(t, "0123456789abcdef", HardwareShort("0123456789abcdef"))
	assert.Equal(t, "äöüäöüäöüäöüäöüä...", HardwareShort("äöüäöüäöüäöüäöüäöü"))
	assert.Equal(t, NotAvailable, HardwareShort(""))
}
