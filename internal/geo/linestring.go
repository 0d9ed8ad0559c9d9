package geo

import (
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

// LineStringGeoJSON encodes an ordered polyline as a GeoJSON LineString.
// An empty polyline encodes to the empty string.
func LineStringGeoJSON(points []Point) (string, error) {
	if len(points) == 0 {
		return "", nil
	}
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		// GeoJSON is lng,lat ordered
		flat = append(flat, p.Lng, p.Lat)
	}
	ls := geom.NewLineStringFlat(geom.XY, flat)
	b, err := gjson.Marshal(ls)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
