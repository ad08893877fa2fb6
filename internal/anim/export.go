package anim

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"
)

// WriteGeoJSON dumps a frame as a FeatureCollection of points carrying the
// current height and color next to the source properties.
func WriteGeoJSON(w io.Writer, f Frame) error {
	fc := geojson.NewFeatureCollection()
	for _, p := range f.Points {
		feat := geojson.NewFeature(p.Feature.Coord)
		if p.Feature.ID != "" {
			feat.ID = p.Feature.ID
		}
		for k, v := range p.Feature.Properties {
			feat.Properties[k] = v
		}
		feat.Properties["height"] = p.Height
		feat.Properties["baseline"] = p.Baseline
		feat.Properties["color"] = p.Color.Hex()
		fc.Append(feat)
	}
	fc.ExtraMembers = geojson.Properties{
		"frame": f.Index,
		"date":  f.Date,
		"mode":  f.Mode.String(),
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encoding frame %d: %w", f.Index, err)
	}
	_, err = w.Write(data)
	return err
}
