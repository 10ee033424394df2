// pkg/core/surface.go
package core

import (
	"fmt"
	"math"
)

// Surface is the bounded playing area positions are measured on.
// Length is the extent along x, Width the extent along y.
type Surface struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
}

// Validate fails with ErrInvalidConfiguration unless both extents are finite and positive.
func (s Surface) Validate() error {
	if !positiveFinite(s.Length) || !positiveFinite(s.Width) {
		return fmt.Errorf("%w: surface extents must be positive, got length=%v width=%v",
			ErrInvalidConfiguration, s.Length, s.Width)
	}
	return nil
}

// GridSize is the resolution of an occupancy grid.
type GridSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Validate fails with ErrInvalidConfiguration unless both dimensions are positive.
func (g GridSize) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("%w: grid size must be positive, got %dx%d",
			ErrInvalidConfiguration, g.Rows, g.Cols)
	}
	return nil
}

// Zone is a half-open band [Low, High) along the y axis.
// Name is optional and only used for display.
type Zone struct {
	Low  float64 `json:"low" mapstructure:"low"`
	High float64 `json:"high" mapstructure:"high"`
	Name string  `json:"name,omitempty" mapstructure:"name"`
}

// Contains reports whether y falls in [Low, High).
func (z Zone) Contains(y float64) bool {
	return z.Low <= y && y < z.High
}

// ValidateZones fails with ErrInvalidConfiguration for an empty list or a zone whose
// bounds are not finite or not increasing. Overlap and ordering are left to the caller.
func ValidateZones(zones []Zone) error {
	if len(zones) == 0 {
		return fmt.Errorf("%w: zone list is empty", ErrInvalidConfiguration)
	}
	for i, z := range zones {
		if math.IsNaN(z.Low) || math.IsNaN(z.High) || math.IsInf(z.Low, 0) || math.IsInf(z.High, 0) {
			return fmt.Errorf("%w: zone %d has non-finite bounds", ErrInvalidConfiguration, i)
		}
		if z.Low >= z.High {
			return fmt.Errorf("%w: zone %d has low %v >= high %v", ErrInvalidConfiguration, i, z.Low, z.High)
		}
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
