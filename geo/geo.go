// Package geo provides the geodesic primitives used by track analysis and
// course geometry: haversine distance, initial bearing, centroid and
// bounding box of a point set.
package geo

import "math"

const π = math.Pi

// Unit selects the earth radius used when computing distances.
type Unit int

const (
	NauticalMiles Unit = iota
	Kilometers
	Meters
)

const (
	radiusNM = 3440.065
	radiusKm = 6371.0
	radiusM  = 6371e3
)

func (u Unit) Radius() float64 {
	switch u {
	case Kilometers:
		return radiusKm
	case Meters:
		return radiusM
	}
	return radiusNM
}

func (u Unit) String() string {
	switch u {
	case Kilometers:
		return "km"
	case Meters:
		return "m"
	}
	return "nm"
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func toRadians(a float64) float64 {
	return a * π / 180.0
}

func toDegrees(a float64) float64 {
	return a * 180.0 / π
}

func wrap360(d float64) float64 {
	if 0.0 <= d && d < 360.0 {
		return d
	}
	d1 := d + 360.0
	return d1 - float64(int(d1/360.0)*360)
}

// Distance returns the great-circle distance between from and to in the
// given unit, using the haversine formula.
func Distance(from, to LatLon, unit Unit) float64 {
	φ1 := toRadians(from.Lat)
	φ2 := toRadians(to.Lat)
	Δφ := φ2 - φ1

	Δλ := toRadians(to.Lon - from.Lon)

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	δ := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return unit.Radius() * δ
}

// InitialBearing returns the initial great-circle bearing from the first
// point to the second, in degrees [0,360).
func InitialBearing(from, to LatLon) float64 {
	φ1 := toRadians(from.Lat)
	φ2 := toRadians(to.Lat)

	Δλ := toRadians(to.Lon - from.Lon)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	y := math.Sin(Δλ) * math.Cos(φ2)
	θ := math.Atan2(y, x)

	return wrap360(toDegrees(θ))
}

// DistanceAndBearing computes both in one pass, sharing the trigonometry.
func DistanceAndBearing(from, to LatLon, unit Unit) (float64, float64) {
	φ1 := toRadians(from.Lat)
	φ2 := toRadians(to.Lat)
	Δφ := φ2 - φ1

	Δλ := toRadians(to.Lon - from.Lon)

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	δ := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	y := math.Sin(Δλ) * math.Cos(φ2)
	θ := math.Atan2(y, x)

	return unit.Radius() * δ, wrap360(toDegrees(θ))
}

// Centroid returns the arithmetic mean of the latitudes and longitudes.
// Only valid for geographically compact sets (course scale, not global).
func Centroid(ps []LatLon) LatLon {
	if len(ps) == 0 {
		return LatLon{}
	}
	var lat, lon float64
	for _, p := range ps {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(ps))
	return LatLon{Lat: lat / n, Lon: lon / n}
}

// DefaultPadding expands bounds by roughly 500 m so map fitting does not
// crop marks sitting on the edge.
const DefaultPadding = 0.005

type Box struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// BBox returns the box in [minLon, minLat, maxLon, maxLat] order, the
// layout map renderers expect.
func (b Box) BBox() [4]float64 {
	return [4]float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
}

// Bounds returns the bounding box of the points expanded by padding
// degrees on every side.
func Bounds(ps []LatLon, padding float64) Box {
	if len(ps) == 0 {
		return Box{}
	}
	b := Box{MinLat: ps[0].Lat, MaxLat: ps[0].Lat, MinLon: ps[0].Lon, MaxLon: ps[0].Lon}
	for _, p := range ps[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	b.MinLat -= padding
	b.MaxLat += padding
	b.MinLon -= padding
	b.MaxLon += padding
	return b
}
