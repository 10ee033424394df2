package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// Steps of the colour ramp used by the PNG and HTML heatmaps.
const (
	pngHeatSteps  = 12
	htmlHeatSteps = 7
)

// coolwarm is Moreland's blue-to-red diverging ramp.
func coolwarm(n int) palette.Palette {
	return moreland.SmoothBlueRed().Palette(n)
}

// coolwarmHex renders the same ramp as CSS hex colours for go-echarts.
func coolwarmHex(n int) []string {
	colors := coolwarm(n).Colors()
	out := make([]string, len(colors))
	for i, c := range colors {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		out[i] = fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
	}
	return out
}
