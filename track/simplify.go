package track

import "math"

// Earth circumference constants used for the local planar projection.
const (
	earthCircPoles   = 40007863 // meters around the poles
	earthCircEquator = 40075017 // meters around the equator
)

// Simplify reduces the point sequence with the Douglas-Peucker algorithm:
// the point farthest from the chord between the endpoints is kept when its
// perpendicular distance exceeds toleranceMeters, and both halves are
// simplified recursively; otherwise the whole span collapses to its
// endpoints. Sequences of length <= 2 are returned unchanged.
//
// Every removed point lies within toleranceMeters of the simplified path.
func Simplify(ps []Point, toleranceMeters float64) []Point {
	if len(ps) <= 2 {
		return append([]Point(nil), ps...)
	}

	maxDist := 0.0
	maxIdx := 0
	first := ps[0]
	last := ps[len(ps)-1]
	for i := 1; i < len(ps)-1; i++ {
		d := perpendicularDistance(ps[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= toleranceMeters {
		return []Point{first, last}
	}

	left := Simplify(ps[:maxIdx+1], toleranceMeters)
	right := Simplify(ps[maxIdx:], toleranceMeters)
	return append(left[:len(left)-1], right...)
}

// perpendicularDistance projects the points onto a local plane in meters,
// scaling longitude by cos(latitude). Adequate at course scale, not
// globally.
func perpendicularDistance(p, a, b Point) float64 {
	cosLat := math.Cos(a.Lat * math.Pi / 180)
	px, py := planar(p, a, cosLat)
	bx, by := planar(b, a, cosLat)

	chord := math.Hypot(bx, by)
	if chord == 0 {
		return math.Hypot(px, py)
	}
	return math.Abs(px*by-py*bx) / chord
}

func planar(p, origin Point, cosLat float64) (x, y float64) {
	x = (p.Lon - origin.Lon) / 360 * earthCircEquator * cosLat
	y = (p.Lat - origin.Lat) / 360 * earthCircPoles
	return x, y
}
