// Package zones measures how long entities dwell in bands along the surface width.
package zones

import (
	"github.com/OCAP2/courtstats/pkg/core"
	"gonum.org/v1/gonum/floats"
)

// Distribution is the dwell-time split across an ordered zone list.
// Counts and Percentages are index-aligned with the zones passed to Classify.
type Distribution struct {
	Counts      []int
	Percentages []float64

	Classified int // samples that matched a zone
	Unmatched  int // localised samples outside every zone
	Skipped    int // records with no position
}

// Classify assigns each localised sample accepted by filter to the first zone, in list order,
// whose [Low, High) interval contains its y coordinate. Overlapping zones therefore resolve to
// the earliest one. Samples matching no zone are left out of both counts and total.
//
// Percentages sum to 100 when at least one sample was classified and are all zero otherwise.
func Classify(src core.Source, zs []core.Zone, filter core.EntityFilter) (Distribution, error) {
	if err := core.ValidateZones(zs); err != nil {
		return Distribution{}, err
	}

	d := Distribution{
		Counts:      make([]int, len(zs)),
		Percentages: make([]float64, len(zs)),
	}
	if src == nil {
		return d, nil
	}

	src.Each(func(_ int, id core.EntityID, rec core.Record) {
		if !filter.Match(id) {
			return
		}
		if rec.Position == nil {
			d.Skipped++
			return
		}
		if i := Match(zs, rec.Position.Y); i >= 0 {
			d.Counts[i]++
			d.Classified++
			return
		}
		d.Unmatched++
	})

	d.Percentages = Normalize(d.Counts)
	return d, nil
}

// Match returns the index of the first zone containing y, or -1.
func Match(zs []core.Zone, y float64) int {
	for i, z := range zs {
		if z.Contains(y) {
			return i
		}
	}
	return -1
}

// Normalize converts counts into percentages of their sum.
// An all-zero (or empty) input yields all zeros rather than NaN.
func Normalize(counts []int) []float64 {
	pct := make([]float64, len(counts))
	for i, c := range counts {
		pct[i] = float64(c)
	}

	total := floats.Sum(pct)
	if total == 0 {
		return pct
	}

	floats.Scale(100/total, pct)
	return pct
}
