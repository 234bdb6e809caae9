// Package geometry implements the in-process point-in-polygon test used by
// boundary impact analysis. Coordinates follow GeoJSON order: [lng, lat].
package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnsupportedGeometry = errors.New("geometry type must be Polygon or MultiPolygon")

// Geometry is a parsed GeoJSON Polygon or MultiPolygon. For a Polygon,
// Polygons has exactly one element. Each polygon is a list of rings; ring 0
// is the outer ring, the rest are holes.
type Geometry struct {
	Type     string
	Polygons [][][][2]float64
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseGeometry decodes a GeoJSON geometry object. Anything other than
// Polygon or MultiPolygon fails with ErrUnsupportedGeometry.
func ParseGeometry(data []byte) (Geometry, error) {
	var raw rawGeometry
	if err := json.Unmarshal(data, &raw); err != nil {
		return Geometry{}, fmt.Errorf("invalid GeoJSON: %w", err)
	}

	switch raw.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(raw.Coordinates, &rings); err != nil {
			return Geometry{}, fmt.Errorf("invalid Polygon coordinates: %w", err)
		}
		if len(rings) == 0 || len(rings[0]) == 0 {
			return Geometry{}, fmt.Errorf("polygon has no outer ring")
		}
		return Geometry{Type: raw.Type, Polygons: [][][][2]float64{rings}}, nil
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(raw.Coordinates, &polys); err != nil {
			return Geometry{}, fmt.Errorf("invalid MultiPolygon coordinates: %w", err)
		}
		if len(polys) == 0 {
			return Geometry{}, fmt.Errorf("multipolygon has no members")
		}
		return Geometry{Type: raw.Type, Polygons: polys}, nil
	default:
		return Geometry{}, ErrUnsupportedGeometry
	}
}

// Contains reports whether the point lies inside the geometry. Only the
// outer ring of each polygon is tested; interior rings (holes) are NOT
// subtracted. A MultiPolygon contains the point if any member does.
// Points exactly on an edge have implementation-dependent membership.
func Contains(g Geometry, lng, lat float64) bool {
	for _, poly := range g.Polygons {
		if len(poly) == 0 {
			continue
		}
		if ringContains(poly[0], lng, lat) {
			return true
		}
	}
	return false
}

// ringContains is a standard ray cast: count crossings of a horizontal ray
// from the point to +infinity against each ring edge.
func ringContains(ring [][2]float64, lng, lat float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]

		intersects := (yi > lat) != (yj > lat) &&
			lng < (xj-xi)*(lat-yi)/(yj-yi)+xi
		if intersects {
			inside = !inside
		}
	}
	return inside
}

// VertexCount sums the vertex counts of every ring, holes included.
func VertexCount(g Geometry) int {
	total := 0
	for _, poly := range g.Polygons {
		for _, ring := range poly {
			total += len(ring)
		}
	}
	return total
}
