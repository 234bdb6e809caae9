package boundaries

import (
	"testing"

	"github.com/GeoVista/GV-Backend/internal/geometry"
	"github.com/GeoVista/GV-Backend/internal/regions"
)

func square(t *testing.T, minX, minY, maxX, maxY float64) geometry.Geometry {
	t.Helper()
	g := geometry.Geometry{
		Type: "Polygon",
		Polygons: [][][][2]float64{{{
			{minX, minY}, {minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY},
		}}},
	}
	return g
}

func item(id int, lng, lat float64, regionID *int) regions.InfrastructureItem {
	return regions.InfrastructureItem{ID: id, Longitude: lng, Latitude: lat, RegionID: regionID}
}

func intp(v int) *int { return &v }

func ids(entries []ImpactItem) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// TestClassifyImpact_Basic covers the canonical delta: current boundary holds
// items {1,2,3}, the draft holds {2,3,4}: item 1 leaves, item 4 enters,
// items 2 and 3 stay.
func TestClassifyImpact_Basic(t *testing.T) {
	draft := square(t, 3, 3, 15, 15)
	items := []regions.InfrastructureItem{
		item(1, 1, 1, intp(1)),
		item(2, 4, 4, intp(1)),
		item(3, 6, 6, intp(1)),
		item(4, 12, 12, nil),
	}

	c := classifyImpact(1, draft, items, nil)

	if got := ids(c.Leaving); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected leaving = [1], got %v", got)
	}
	if got := ids(c.Entering); len(got) != 1 || got[0] != 4 {
		t.Errorf("expected entering = [4], got %v", got)
	}
	if got := ids(c.Staying); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("expected staying = [2 3], got %v", got)
	}

	total := len(c.Staying) + len(c.Leaving) + len(c.Entering)
	if total != 4 {
		t.Errorf("expected totalAffected = 4, got %d", total)
	}
}

// TestClassifyImpact_ProspectiveRegion verifies that a leaver contained by
// another region's published boundary resolves to it, while a leaver
// contained by nothing becomes invalid.
func TestClassifyImpact_ProspectiveRegion(t *testing.T) {
	draft := square(t, 0, 0, 5, 5)
	items := []regions.InfrastructureItem{
		item(1, 7, 7, intp(1)),   // leaves into region 2's boundary
		item(2, 50, 50, intp(1)), // leaves into nothing
	}
	published := []publishedBoundary{
		{RegionID: 2, Geom: square(t, 6, 6, 10, 10)},
	}

	c := classifyImpact(1, draft, items, published)

	if len(c.Leaving) != 2 {
		t.Fatalf("expected 2 leavers, got %d", len(c.Leaving))
	}
	if c.Leaving[0].ProspectiveRegionID == nil || *c.Leaving[0].ProspectiveRegionID != 2 {
		t.Errorf("expected item 1 to resolve to region 2, got %v", c.Leaving[0].ProspectiveRegionID)
	}
	if got := ids(c.BecomingInvalid); len(got) != 1 || got[0] != 2 {
		t.Errorf("expected becomingInvalid = [2], got %v", got)
	}
}

// TestClassifyImpact_FirstMatchWins verifies that overlapping published
// boundaries resolve to the first one in supplied order, with no tie-break.
func TestClassifyImpact_FirstMatchWins(t *testing.T) {
	draft := square(t, 0, 0, 5, 5)
	items := []regions.InfrastructureItem{
		item(1, 7, 7, intp(1)),
	}
	published := []publishedBoundary{
		{RegionID: 2, Geom: square(t, 6, 6, 10, 10)},
		{RegionID: 3, Geom: square(t, 6, 6, 20, 20)},
	}

	c := classifyImpact(1, draft, items, published)

	if len(c.Leaving) != 1 || c.Leaving[0].ProspectiveRegionID == nil {
		t.Fatalf("expected one resolved leaver, got %+v", c.Leaving)
	}
	if *c.Leaving[0].ProspectiveRegionID != 2 {
		t.Errorf("expected first match (region 2), got %d", *c.Leaving[0].ProspectiveRegionID)
	}
}

// TestClassifyImpact_TargetRegionSkippedInResolution verifies the target
// region's own published boundary is never chosen as a prospective region.
func TestClassifyImpact_TargetRegionSkippedInResolution(t *testing.T) {
	draft := square(t, 0, 0, 5, 5)
	items := []regions.InfrastructureItem{
		item(1, 7, 7, intp(1)),
	}
	published := []publishedBoundary{
		{RegionID: 1, Geom: square(t, 0, 0, 10, 10)}, // stale listing of the target itself
	}

	c := classifyImpact(1, draft, items, published)

	if len(c.BecomingInvalid) != 1 {
		t.Errorf("expected leaver to become invalid, got %+v", c)
	}
}

// TestClassifyImpact_UntouchedItemsExcluded verifies that items neither in
// the region nor inside the draft are not candidates at all.
func TestClassifyImpact_UntouchedItemsExcluded(t *testing.T) {
	draft := square(t, 0, 0, 5, 5)
	items := []regions.InfrastructureItem{
		item(1, 100, 100, intp(9)),
		item(2, 100, 100, nil),
	}

	c := classifyImpact(1, draft, items, nil)

	if len(c.Staying)+len(c.Leaving)+len(c.Entering)+len(c.BecomingInvalid) != 0 {
		t.Errorf("expected no candidates, got %+v", c)
	}
}

// TestClassifyImpact_OrphanEntering verifies an orphaned item inside the
// draft is classified as entering.
func TestClassifyImpact_OrphanEntering(t *testing.T) {
	draft := square(t, 0, 0, 5, 5)
	items := []regions.InfrastructureItem{
		item(1, 2, 2, nil),
	}

	c := classifyImpact(1, draft, items, nil)

	if got := ids(c.Entering); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected entering = [1], got %v", got)
	}
}
