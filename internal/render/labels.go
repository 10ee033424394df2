// Package render draws heatmaps and zone distributions as PNG (gonum/plot) or HTML (go-echarts).
package render

import (
	"fmt"
	"strconv"

	"github.com/OCAP2/courtstats/pkg/core"
)

// Axis and series labels
const (
	LabelLength    = "Field Length (Court X)"
	LabelWidth     = "Field Width (Court Y)"
	LabelTimeSpent = "Time Spent (%)"
	TitleZones     = "Player Performance in Different Zones"
)

func meters(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ZoneLabels returns "Zone N (low-highm)" for each zone, using the zone name in place of
// "Zone N" when one is set.
func ZoneLabels(zs []core.Zone) []string {
	labels := make([]string, len(zs))
	for i, z := range zs {
		name := z.Name
		if name == "" {
			name = "Zone " + strconv.Itoa(i+1)
		}
		labels[i] = fmt.Sprintf("%s (%s-%sm)", name, meters(z.Low), meters(z.High))
	}
	return labels
}

// HeatmapTitle names the population a heatmap covers.
func HeatmapTitle(filter core.EntityFilter) string {
	if id, ok := filter.Entity(); ok {
		return fmt.Sprintf("Heatmap for Player %d", id)
	}
	return "Heatmap for All Players"
}

// ZonesTitle names the population a zone chart covers.
func ZonesTitle(filter core.EntityFilter) string {
	if id, ok := filter.Entity(); ok {
		return fmt.Sprintf("%s (Player %d)", TitleZones, id)
	}
	return TitleZones
}
