package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/OCAP2/courtstats/internal/geo"
	"github.com/OCAP2/courtstats/internal/heatmap"
	"github.com/OCAP2/courtstats/pkg/core"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var skyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}

// gridXYZ adapts a heatmap grid to plotter.GridXYZ with cell centres in surface units.
type gridXYZ struct {
	grid    heatmap.Grid
	surface core.Surface
	size    core.GridSize
}

func newGridXYZ(g heatmap.Grid, s core.Surface) gridXYZ {
	rows, cols := g.Dims()
	return gridXYZ{grid: g, surface: s, size: core.GridSize{Rows: rows, Cols: cols}}
}

func (g gridXYZ) Dims() (c, r int) {
	return g.size.Cols, g.size.Rows
}

func (g gridXYZ) Z(c, r int) float64 {
	return float64(g.grid[r][c])
}

func (g gridXYZ) X(c int) float64 {
	return geo.CellCenter(0, c, g.surface, g.size).X
}

func (g gridXYZ) Y(r int) float64 {
	return geo.CellCenter(r, 0, g.surface, g.size).Y
}

// HeatmapPNG writes the grid as a PNG heatmap. Rows run up the y axis.
func HeatmapPNG(w io.Writer, g heatmap.Grid, s core.Surface, title string) error {
	rows, cols := g.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("%w: empty grid", core.ErrInvalidConfiguration)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = LabelLength
	p.Y.Label.Text = LabelWidth

	hm := plotter.NewHeatMap(newGridXYZ(g, s), coolwarm(pngHeatSteps))
	hm.Min = 0
	hm.Max = math.Max(1, float64(g.Max()))
	p.Add(hm)

	return writePNG(w, p, 10*vg.Inch, 8*vg.Inch)
}

// ZonesPNG writes a bar chart of zone percentages.
func ZonesPNG(w io.Writer, pct []float64, zs []core.Zone, title string) error {
	if len(pct) != len(zs) {
		return fmt.Errorf("%d percentages for %d zones", len(pct), len(zs))
	}
	if len(zs) == 0 {
		return fmt.Errorf("%w: no zones", core.ErrInvalidConfiguration)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = LabelTimeSpent
	p.Y.Min = 0
	p.Y.Max = 100

	bars, err := plotter.NewBarChart(plotter.Values(pct), vg.Points(40))
	if err != nil {
		return fmt.Errorf("building bar chart: %w", err)
	}
	bars.Color = skyBlue
	bars.LineStyle.Width = 0
	p.Add(bars)

	p.NominalX(ZoneLabels(zs)...)
	p.X.Tick.Label.Rotation = math.Pi / 4

	return writePNG(w, p, 10*vg.Inch, 6*vg.Inch)
}

func writePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("creating png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing png: %w", err)
	}
	return nil
}
