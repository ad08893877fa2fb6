package anim

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultStops is the velocity palette, slowest subsidence to uplift.
var DefaultStops = []string{"#fda34b", "#ff7882", "#c8699e", "#7046aa", "#0c1db8", "#2eaaac"}

// Default velocity domain in mm/year.
const (
	DefaultVelocityMin = -30.0
	DefaultVelocityMax = 10.0
)

// ColorScale maps a value in [Min, Max] onto evenly spaced color stops,
// interpolating in RGB and clamping outside the domain.
type ColorScale struct {
	stops    []colorful.Color
	min, max float64
}

// NewColorScale parses hex stops. At least one stop is required and max must exceed min.
func NewColorScale(hexes []string, min, max float64) (*ColorScale, error) {
	if len(hexes) == 0 {
		return nil, fmt.Errorf("color scale: no stops")
	}
	if !(max > min) {
		return nil, fmt.Errorf("color scale: empty domain [%g, %g]", min, max)
	}
	cs := &ColorScale{min: min, max: max}
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("color scale: %w", err)
		}
		cs.stops = append(cs.stops, c)
	}
	return cs, nil
}

// DefaultColorScale is the six-stop velocity scale over [-30, 10] mm/year.
func DefaultColorScale() *ColorScale {
	cs, err := NewColorScale(DefaultStops, DefaultVelocityMin, DefaultVelocityMax)
	if err != nil {
		panic(err)
	}
	return cs
}

// At returns the color for v.
func (c *ColorScale) At(v float64) colorful.Color {
	if len(c.stops) == 1 || math.IsNaN(v) {
		return c.stops[0]
	}
	t := (v - c.min) / (c.max - c.min)
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(c.stops)-1)
	i := int(pos)
	if i >= len(c.stops)-1 {
		return c.stops[len(c.stops)-1]
	}
	return c.stops[i].BlendRgb(c.stops[i+1], pos-float64(i))
}
