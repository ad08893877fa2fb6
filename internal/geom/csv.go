package geom

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ParseCSV reads point features from a CSV with latitude/longitude columns.
// Column detection: lat|latitude|y and lon|lng|long|longitude|x (case-insensitive).
// All other columns become properties in header order; empty cells are null.
func ParseCSV(r io.Reader) (features []*PointFeature, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, 0, err
	}
	if len(recs) == 0 {
		return nil, 0, errors.New("empty csv")
	}
	header := recs[0]
	idxLat, idxLon := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		}
	}
	if idxLat == -1 || idxLon == -1 {
		return nil, 0, errors.New("csv: latitude/longitude columns not found")
	}
	for _, row := range recs[1:] {
		if idxLon >= len(row) || idxLat >= len(row) {
			skipped++
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}
		props := make(map[string]any, len(header))
		keys := make([]string, 0, len(header))
		for i, h := range header {
			if i == idxLat || i == idxLon {
				continue
			}
			key := strings.TrimSpace(h)
			keys = append(keys, key)
			props[key] = csvValue(row, i)
		}
		h, ok := props[HeightKey].(float64)
		if !ok {
			skipped++
			continue
		}
		vel, _ := props[VelocityKey].(float64)
		features = append(features, &PointFeature{
			ID:         featureID(nil, props),
			Coord:      orb.Point{lon, lat},
			Height:     h,
			Velocity:   vel,
			Keys:       keys,
			Properties: props,
		})
	}
	return features, skipped, nil
}

func csvValue(row []string, i int) any {
	if i >= len(row) {
		return nil
	}
	s := strings.TrimSpace(row[i])
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
