package geom

import (
	"github.com/paulmach/orb"
	"github.com/wroge/wgs84"
)

// All screen work happens in web mercator (EPSG:3857) so the terminal map
// keeps the shape a slippy-map user expects.
var toMercator = wgs84.EPSG().Transform(4326, 3857)

// Mercator projects a lon/lat point to EPSG:3857 meters.
func Mercator(p orb.Point) orb.Point {
	x, y, _ := toMercator(p[0], p[1], 0)
	return orb.Point{x, y}
}

// MercatorBound projects both corners of a lon/lat bound.
func MercatorBound(b orb.Bound) orb.Bound {
	return orb.Bound{Min: Mercator(b.Min), Max: Mercator(b.Max)}
}

var fromMercator = wgs84.EPSG().Transform(3857, 4326)

// LonLat inverts Mercator.
func LonLat(p orb.Point) orb.Point {
	lon, lat, _ := fromMercator(p[0], p[1], 0)
	return orb.Point{lon, lat}
}
