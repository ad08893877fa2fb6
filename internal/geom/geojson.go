package geom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
)

var (
	ErrNotPoint      = errors.New("geometry is not a point")
	ErrMissingHeight = errors.New("missing numeric " + HeightKey)
)

type rawFeature struct {
	ID         any             `json:"id"`
	Geometry   *rawGeometry    `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

type rawGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// ParseFeatures decodes point features from a GeoJSON FeatureCollection, a single
// Feature, or a bare JSON array of features. Features that are not points or
// lack a numeric height are skipped and counted; the document itself failing to
// decode is an error.
func ParseFeatures(data []byte) (features []*PointFeature, skipped int, err error) {
	raws, err := splitFeatures(data)
	if err != nil {
		return nil, 0, err
	}
	features = make([]*PointFeature, 0, len(raws))
	for _, raw := range raws {
		f, err := parseFeature(raw)
		if err != nil {
			skipped++
			continue
		}
		features = append(features, f)
	}
	return features, skipped, nil
}

func splitFeatures(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("geojson: empty document")
	}
	switch data[0] {
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, fmt.Errorf("geojson: %w", err)
		}
		return arr, nil
	case '{':
		var head struct {
			Type     string            `json:"type"`
			Features []json.RawMessage `json:"features"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			return nil, fmt.Errorf("geojson: %w", err)
		}
		switch head.Type {
		case "FeatureCollection":
			return head.Features, nil
		case "Feature", "":
			return []json.RawMessage{data}, nil
		default:
			return nil, errors.New("unsupported geojson type: " + head.Type)
		}
	}
	return nil, errors.New("geojson: expected object or array")
}

func parseFeature(raw json.RawMessage) (*PointFeature, error) {
	var rf rawFeature
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, err
	}
	g := rf.Geometry
	if g == nil || (g.Type != "" && g.Type != "Point") || len(g.Coordinates) < 2 {
		return nil, ErrNotPoint
	}
	props, keys, err := scanProperties(rf.Properties)
	if err != nil {
		return nil, err
	}
	h, ok := props[HeightKey].(float64)
	if !ok {
		return nil, ErrMissingHeight
	}
	vel, _ := props[VelocityKey].(float64)
	return &PointFeature{
		ID:         featureID(rf.ID, props),
		Coord:      orb.Point{g.Coordinates[0], g.Coordinates[1]},
		Height:     h,
		Velocity:   vel,
		Keys:       keys,
		Properties: props,
	}, nil
}

// scanProperties decodes a properties object keeping the key order of the
// document. A repeated key keeps its first position and its last value.
func scanProperties(raw json.RawMessage) (map[string]any, []string, error) {
	props := map[string]any{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return props, nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("properties: expected object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, seen := props[key]; !seen {
			keys = append(keys, key)
		}
		props[key] = v
	}
	return props, keys, nil
}

func featureID(id any, props map[string]any) string {
	if id == nil {
		id = props["id"]
	}
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
