package geom

import "github.com/paulmach/orb"

// Property keys of the InSAR point products.
const (
	HeightKey   = "h_cop30m"
	VelocityKey = "vel_avg"
)

// PointFeature is one measurement point as loaded from a source.
// Keys keeps the property names in the order they appeared in the source,
// which defines the frame order of the displacement timeline.
type PointFeature struct {
	ID         string
	Coord      orb.Point
	Height     float64
	Velocity   float64
	Keys       []string
	Properties map[string]any
}

func (f *PointFeature) Lon() float64 { return f.Coord[0] }
func (f *PointFeature) Lat() float64 { return f.Coord[1] }

// Bound returns the lon/lat bound of the features. ok is false for an empty slice.
func Bound(features []*PointFeature) (b orb.Bound, ok bool) {
	for i, f := range features {
		if i == 0 {
			b = f.Coord.Bound()
			continue
		}
		b = b.Extend(f.Coord)
	}
	return b, len(features) > 0
}
