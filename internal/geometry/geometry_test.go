package geometry_test

import (
	"errors"
	"math"
	"testing"

	"github.com/GeoVista/GV-Backend/internal/geometry"
)

const squarePolygon = `{
	"type": "Polygon",
	"coordinates": [[[0,0],[0,10],[10,10],[10,0],[0,0]]]
}`

const donutPolygon = `{
	"type": "Polygon",
	"coordinates": [
		[[0,0],[0,10],[10,10],[10,0],[0,0]],
		[[4,4],[4,6],[6,6],[6,4],[4,4]]
	]
}`

const twoSquares = `{
	"type": "MultiPolygon",
	"coordinates": [
		[[[0,0],[0,10],[10,10],[10,0],[0,0]]],
		[[[20,20],[20,30],[30,30],[30,20],[20,20]]]
	]
}`

func mustParse(t *testing.T, raw string) geometry.Geometry {
	t.Helper()
	g, err := geometry.ParseGeometry([]byte(raw))
	if err != nil {
		t.Fatalf("ParseGeometry failed: %v", err)
	}
	return g
}

// TestContains_Square verifies basic interior/exterior classification against
// a 10x10 square.
func TestContains_Square(t *testing.T) {
	g := mustParse(t, squarePolygon)

	if !geometry.Contains(g, 5, 5) {
		t.Error("expected (5,5) inside the square")
	}
	if geometry.Contains(g, 15, 15) {
		t.Error("expected (15,15) outside the square")
	}
	if geometry.Contains(g, -1, 5) {
		t.Error("expected (-1,5) outside the square")
	}
}

// TestContains_HolesIgnored verifies that interior rings are not subtracted:
// a point inside the donut hole still counts as contained. This matches the
// production containment used for region assignment.
func TestContains_HolesIgnored(t *testing.T) {
	g := mustParse(t, donutPolygon)

	if !geometry.Contains(g, 5, 5) {
		t.Error("expected (5,5) contained even though it falls in a hole")
	}
}

// TestContains_MultiPolygon verifies OR semantics across members.
func TestContains_MultiPolygon(t *testing.T) {
	g := mustParse(t, twoSquares)

	if !geometry.Contains(g, 5, 5) {
		t.Error("expected (5,5) inside the first member")
	}
	if !geometry.Contains(g, 25, 25) {
		t.Error("expected (25,25) inside the second member")
	}
	if geometry.Contains(g, 15, 15) {
		t.Error("expected (15,15) in the gap between members")
	}
}

// TestParseGeometry_UnsupportedType verifies that non-polygon GeoJSON is
// rejected with ErrUnsupportedGeometry.
func TestParseGeometry_UnsupportedType(t *testing.T) {
	_, err := geometry.ParseGeometry([]byte(`{"type":"Point","coordinates":[1,2]}`))
	if !errors.Is(err, geometry.ErrUnsupportedGeometry) {
		t.Errorf("expected ErrUnsupportedGeometry, got %v", err)
	}
}

// TestParseGeometry_Malformed verifies that broken JSON and empty polygons
// fail to parse.
func TestParseGeometry_Malformed(t *testing.T) {
	if _, err := geometry.ParseGeometry([]byte(`{"type":"Polygon"`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
	if _, err := geometry.ParseGeometry([]byte(`{"type":"Polygon","coordinates":[]}`)); err == nil {
		t.Error("expected error for polygon with no rings")
	}
}

// squareDegreeArea is the expected shoelace area of a 10x10 degree square
// whose ring averages the given latitude, in km².
func squareDegreeArea(meanLat float64) float64 {
	return 100 * math.Cos(meanLat*math.Pi/180) * 111.32 * 111.32
}

// TestAreaSqKm verifies the approximation against the known square fixtures:
// holes are not subtracted and MultiPolygon members are summed.
func TestAreaSqKm(t *testing.T) {
	const tolerance = 1.0 // km²; fixtures are ~1.2M km²

	// The 10x10 ring has mean latitude 4 across its 5 points.
	want := squareDegreeArea(4)
	if got := geometry.AreaSqKm(mustParse(t, squarePolygon)); math.Abs(got-want) > tolerance {
		t.Errorf("square: expected area %.2f, got %.2f", want, got)
	}

	// Same outer ring, so the hole must not change the result.
	if got := geometry.AreaSqKm(mustParse(t, donutPolygon)); math.Abs(got-want) > tolerance {
		t.Errorf("donut: expected area %.2f (hole ignored), got %.2f", want, got)
	}

	want = squareDegreeArea(4) + squareDegreeArea(24)
	if got := geometry.AreaSqKm(mustParse(t, twoSquares)); math.Abs(got-want) > tolerance {
		t.Errorf("multipolygon: expected summed area %.2f, got %.2f", want, got)
	}
}

// TestVertexCount verifies that all rings are counted, holes included.
func TestVertexCount(t *testing.T) {
	if got := geometry.VertexCount(mustParse(t, squarePolygon)); got != 5 {
		t.Errorf("square: expected 5 vertices, got %d", got)
	}
	if got := geometry.VertexCount(mustParse(t, donutPolygon)); got != 10 {
		t.Errorf("donut: expected 10 vertices (outer + hole), got %d", got)
	}
	if got := geometry.VertexCount(mustParse(t, twoSquares)); got != 10 {
		t.Errorf("multipolygon: expected 10 vertices, got %d", got)
	}
}
