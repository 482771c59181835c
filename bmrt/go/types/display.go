package types

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
)

// MeanAndUncertainty renders the mean of the samples with their standard
// deviation, e.g. "1.234 ± 0.056 s". With a single sample only the value
// is shown.
func (b *BenchmarkResult) MeanAndUncertainty() string {
	samples := b.Samples()
	unit := b.Unit
	if unit == "" {
		unit = NotAvailable
	}
	switch len(samples) {
	case 0:
		return "no data"
	case 1:
		return fmt.Sprintf("%.4g %s", samples[0], unit)
	}
	return fmt.Sprintf("%.4g ± %.2g %s", stats.Mean(samples), stats.StdDev(samples), unit)
}

// RelativeSEM returns the standard error of the mean relative to the mean,
// in percent. ok is false with fewer than two samples or a zero mean.
func (b *BenchmarkResult) RelativeSEM() (float64, bool) {
	samples := b.Samples()
	if len(samples) < 2 {
		return 0, false
	}
	mean := stats.Mean(samples)
	if mean == 0 {
		return 0, false
	}
	sem := stats.StdDev(samples) / math.Sqrt(float64(len(samples)))
	return math.Abs(sem/mean) * 100, true
}

// RelativeSEMDisplay renders RelativeSEM, or NotAvailable.
func (b *BenchmarkResult) RelativeSEMDisplay() string {
	v, ok := b.RelativeSEM()
	if !ok {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f %%", v)
}
