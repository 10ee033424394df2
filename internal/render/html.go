package render

import (
	"fmt"
	"io"

	"github.com/OCAP2/courtstats/internal/heatmap"
	"github.com/OCAP2/courtstats/pkg/core"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func cellLabels(n int, extent float64) []string {
	labels := make([]string, n)
	step := extent / float64(n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%s-%s", meters(roundCm(float64(i)*step)), meters(roundCm(float64(i+1)*step)))
	}
	return labels
}

func roundCm(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// HeatmapHTML writes the grid as an interactive go-echarts heatmap page.
func HeatmapHTML(w io.Writer, g heatmap.Grid, s core.Surface, title string) error {
	rows, cols := g.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("%w: empty grid", core.ErrInvalidConfiguration)
	}

	data := make([]opts.HeatMapData, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, r, g[r][c]}})
		}
	}

	maxCount := g.Max()
	if maxCount == 0 {
		maxCount = 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1000px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("samples=%d", g.Total())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: LabelLength, NameLocation: "middle", NameGap: 30, Data: cellLabels(cols, s.Length)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: LabelWidth, NameLocation: "middle", NameGap: 60, Data: cellLabels(rows, s.Width)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			InRange:    &opts.VisualMapInRange{Color: coolwarmHex(htmlHeatSteps)},
		}),
	)
	hm.AddSeries("occupancy", data)

	return hm.Render(w)
}

// ZonesHTML writes a go-echarts bar chart of zone percentages.
func ZonesHTML(w io.Writer, pct []float64, zs []core.Zone, title string) error {
	if len(pct) != len(zs) {
		return fmt.Errorf("%d percentages for %d zones", len(pct), len(zs))
	}

	data := make([]opts.BarData, len(pct))
	for i, v := range pct {
		data[i] = opts.BarData{Value: roundCm(v)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: LabelTimeSpent, Min: 0, Max: 100}),
	)
	bar.SetXAxis(ZoneLabels(zs)).
		AddSeries(LabelTimeSpent, data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "skyblue"}),
		)

	return bar.Render(w)
}
