// Package heatmap accumulates entity positions into a fixed-resolution occupancy grid.
package heatmap

import (
	"github.com/OCAP2/courtstats/internal/geo"
	"github.com/OCAP2/courtstats/pkg/core"
)

// Config is the full set of parameters for one accumulation pass.
type Config struct {
	Surface core.Surface
	Grid    core.GridSize
	Filter  core.EntityFilter
}

// Validate checks the surface and grid before any sample is read.
func (c Config) Validate() error {
	if err := c.Surface.Validate(); err != nil {
		return err
	}
	return c.Grid.Validate()
}

// Grid holds occupancy counts. Grid[row][col]; rows follow the width axis and
// columns the length axis.
type Grid [][]int

// NewGrid returns a zero-filled grid.
func NewGrid(size core.GridSize) Grid {
	cells := make([]int, size.Rows*size.Cols)
	g := make(Grid, size.Rows)
	for r := range g {
		g[r] = cells[r*size.Cols : (r+1)*size.Cols : (r+1)*size.Cols]
	}
	return g
}

// Dims returns the number of rows and columns.
func (g Grid) Dims() (rows, cols int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g), len(g[0])
}

// Total is the sum of all cells.
func (g Grid) Total() int {
	total := 0
	for _, row := range g {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// Max is the largest cell count (0 for an empty grid).
func (g Grid) Max() int {
	m := 0
	for _, row := range g {
		for _, v := range row {
			if v > m {
				m = v
			}
		}
	}
	return m
}

// Stats describes how the input samples were handled.
type Stats struct {
	Samples    int // positions counted into the grid
	Skipped    int // records with no position
	Clamped    int // positions whose cell index had to be clamped
	OffSurface int // positions outside the closed surface rectangle
}

// Result is the outcome of Accumulate.
type Result struct {
	Grid  Grid
	Stats Stats
}

// Accumulate bins every localised sample accepted by cfg.Filter into a fresh grid.
// Records without a position are skipped. Positions whose index falls outside the grid,
// including x == length or y == width, are clamped to the nearest edge cell, so the
// grid total always equals Stats.Samples.
func Accumulate(src core.Source, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	env, err := geo.Envelope(cfg.Surface)
	if err != nil {
		return Result{}, err
	}

	res := Result{Grid: NewGrid(cfg.Grid)}
	if src == nil {
		return res, nil
	}

	src.Each(func(_ int, id core.EntityID, rec core.Record) {
		if !cfg.Filter.Match(id) {
			return
		}
		if rec.Position == nil {
			res.Stats.Skipped++
			return
		}

		row, col, clamped := geo.Cell(*rec.Position, cfg.Surface, cfg.Grid)
		res.Grid[row][col]++
		res.Stats.Samples++
		if clamped {
			res.Stats.Clamped++
		}
		if !geo.OnSurface(env, *rec.Position) {
			res.Stats.OffSurface++
		}
	})

	return res, nil
}
