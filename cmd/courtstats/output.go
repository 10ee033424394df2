package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OCAP2/courtstats/internal/analysis"
	"github.com/OCAP2/courtstats/internal/render"
	"github.com/OCAP2/courtstats/pkg/core"
)

type heatmapOutput struct {
	RunID      string       `json:"runId"`
	Entity     *int         `json:"entity,omitempty"`
	Surface    core.Surface `json:"surface"`
	Grid       [][]int      `json:"grid"`
	Samples    int          `json:"samples"`
	Skipped    int          `json:"skipped"`
	Clamped    int          `json:"clamped"`
	OffSurface int          `json:"offSurface"`
}

type zoneOutput struct {
	Name    string  `json:"name,omitempty"`
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type zonesOutput struct {
	RunID      string       `json:"runId"`
	Entity     *int         `json:"entity,omitempty"`
	Zones      []zoneOutput `json:"zones"`
	Classified int          `json:"classified"`
	Unmatched  int          `json:"unmatched"`
	Skipped    int          `json:"skipped"`
}

func entityPtr(f core.EntityFilter) *int {
	if id, ok := f.Entity(); ok {
		v := int(id)
		return &v
	}
	return nil
}

func writeHeatmap(w io.Writer, format string, run analysis.HeatmapRun, s core.Surface) error {
	title := render.HeatmapTitle(run.Entity)
	switch format {
	case "png":
		return render.HeatmapPNG(w, run.Grid, s, title)
	case "html":
		return render.HeatmapHTML(w, run.Grid, s, title)
	case "json":
		return writeJSON(w, heatmapOutput{
			RunID:      run.RunID,
			Entity:     entityPtr(run.Entity),
			Surface:    s,
			Grid:       run.Grid,
			Samples:    run.Stats.Samples,
			Skipped:    run.Stats.Skipped,
			Clamped:    run.Stats.Clamped,
			OffSurface: run.Stats.OffSurface,
		})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeZones(w io.Writer, format string, run analysis.ZonesRun) error {
	title := render.ZonesTitle(run.Entity)
	switch format {
	case "png":
		return render.ZonesPNG(w, run.Percentages, run.Zones, title)
	case "html":
		return render.ZonesHTML(w, run.Percentages, run.Zones, title)
	case "json":
		out := zonesOutput{
			RunID:      run.RunID,
			Entity:     entityPtr(run.Entity),
			Zones:      make([]zoneOutput, len(run.Zones)),
			Classified: run.Classified,
			Unmatched:  run.Unmatched,
			Skipped:    run.Skipped,
		}
		for i, z := range run.Zones {
			out.Zones[i] = zoneOutput{Name: z.Name, Low: z.Low, High: z.High, Count: run.Counts[i], Percent: run.Percentages[i]}
		}
		return writeJSON(w, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFile creates path and its parent directory and hands the file to fn.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// emit writes to out when set; JSON goes to stdout otherwise and image formats are refused.
func emit(stdout io.Writer, out, format string, fn func(io.Writer) error) error {
	if out == "" {
		if format != "json" {
			return fmt.Errorf("--out is required for %s output", format)
		}
		return fn(stdout)
	}
	if err := writeFile(out, fn); err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	return nil
}
