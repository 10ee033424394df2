package geo

import (
	"fmt"
	"math"

	"github.com/OCAP2/courtstats/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// SURFACE COORDINATES
// Positions arrive already transformed into surface units with the origin at one corner,
// x along the length and y along the width. Nothing here reprojects them.

// CellIndex maps a coordinate to a bin index in [0, n) for a surface extent split into n bins.
// The raw index is floor(v / extent * n). Indices outside the range are clamped to the nearest
// edge bin and reported with clamped=true; a NaN coordinate is clamped into bin 0.
// extent and n must already be validated as positive.
func CellIndex(v, extent float64, n int) (idx int, clamped bool) {
	raw := math.Floor(v / extent * float64(n))
	switch {
	case math.IsNaN(raw):
		return 0, true
	case raw < 0:
		return 0, true
	case raw >= float64(n):
		return n - 1, true
	}
	return int(raw), false
}

// Cell maps a position onto a rows x cols grid covering the surface.
// Column follows x (length) and row follows y (width).
func Cell(p core.Position2D, s core.Surface, g core.GridSize) (row, col int, clamped bool) {
	col, cClamped := CellIndex(p.X, s.Length, g.Cols)
	row, rClamped := CellIndex(p.Y, s.Width, g.Rows)
	return row, col, cClamped || rClamped
}

// Envelope returns the closed rectangle [0, length] x [0, width] covered by the surface.
func Envelope(s core.Surface) (geom.Envelope, error) {
	env, err := geom.NewEnvelope([]geom.XY{
		{X: 0, Y: 0},
		{X: s.Length, Y: s.Width},
	})
	if err != nil {
		return geom.Envelope{}, fmt.Errorf("%w: surface envelope: %v", core.ErrInvalidConfiguration, err)
	}
	return env, nil
}

// OnSurface reports whether p lies inside the closed surface envelope.
func OnSurface(env geom.Envelope, p core.Position2D) bool {
	return env.Contains(geom.XY{X: p.X, Y: p.Y})
}

// CellCenter returns the surface coordinates of the middle of grid cell (row, col).
func CellCenter(row, col int, s core.Surface, g core.GridSize) core.Position2D {
	return core.Position2D{
		X: (float64(col) + 0.5) * s.Length / float64(g.Cols),
		Y: (float64(row) + 0.5) * s.Width / float64(g.Rows),
	}
}
