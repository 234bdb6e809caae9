package geometry

import "math"

// kmPerDegree is the meridian arc length of one degree of latitude.
const kmPerDegree = 111.32

// AreaSqKm approximates the geometry's area with the shoelace formula on
// each outer ring, scaling longitude by cos(latitude) at the ring centroid.
// Holes are not subtracted, consistent with Contains. Good enough for the
// display field on boundary versions; not survey-grade.
func AreaSqKm(g Geometry) float64 {
	total := 0.0
	for _, poly := range g.Polygons {
		if len(poly) == 0 {
			continue
		}
		total += ringAreaSqKm(poly[0])
	}
	return total
}

func ringAreaSqKm(ring [][2]float64) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}

	meanLat := 0.0
	for _, pt := range ring {
		meanLat += pt[1]
	}
	meanLat /= float64(n)
	lngScale := math.Cos(meanLat * math.Pi / 180)

	sum := 0.0
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi := ring[i][0] * lngScale
		xj := ring[j][0] * lngScale
		sum += (xj + xi) * (ring[j][1] - ring[i][1])
	}
	return math.Abs(sum/2) * kmPerDegree * kmPerDegree
}
