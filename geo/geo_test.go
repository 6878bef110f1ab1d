package geo

import (
	"math"
	"testing"
)

func TestDistanceSymmetry(t *testing.T) {
	a := LatLon{Lat: 22.279333, Lon: 114.1628}
	b := LatLon{Lat: 22.35, Lon: 114.25}

	ab := Distance(a, b, Meters)
	ba := Distance(b, a, Meters)
	if math.Abs(ab-ba)/ab > 1e-9 {
		t.Errorf("Distance(a,b) = %f, Distance(b,a) = %f; want symmetric", ab, ba)
	}

	if d := Distance(a, a, Meters); d != 0 {
		t.Errorf("Distance(a,a) = %f; want 0", d)
	}
}

func TestDistanceUnits(t *testing.T) {
	// 0.1 degrees of latitude on the same meridian is 6 minutes of arc,
	// very close to 6 nautical miles.
	a := LatLon{Lat: 22.0, Lon: 114.0}
	b := LatLon{Lat: 22.1, Lon: 114.0}

	nm := Distance(a, b, NauticalMiles)
	if math.Abs(nm-6.0) > 0.02 {
		t.Errorf("Distance = %f nm; want ~6.0", nm)
	}

	km := Distance(a, b, Kilometers)
	m := Distance(a, b, Meters)
	if math.Abs(km*1000-m) > 1e-6 {
		t.Errorf("unit mismatch: %f km vs %f m", km, m)
	}
}

func TestInitialBearingRange(t *testing.T) {
	points := []LatLon{
		{Lat: 22.0, Lon: 114.0},
		{Lat: -33.9, Lon: 151.2},
		{Lat: 50.9, Lon: -1.4},
		{Lat: 0.0, Lon: 0.0},
		{Lat: 5.0, Lon: -175.0},
	}
	for _, from := range points {
		for _, to := range points {
			if from == to {
				continue
			}
			b := InitialBearing(from, to)
			if b < 0 || b >= 360 {
				t.Errorf("InitialBearing(%v,%v) = %f; want [0,360)", from, to, b)
			}
		}
	}

	due := InitialBearing(LatLon{Lat: 22.0, Lon: 114.0}, LatLon{Lat: 22.1, Lon: 114.0})
	if math.Abs(due) > 1e-9 {
		t.Errorf("bearing due north = %f; want 0", due)
	}
}

func TestDistanceAndBearing(t *testing.T) {
	a := LatLon{Lat: 22.0, Lon: 114.0}
	b := LatLon{Lat: 22.1, Lon: 114.1}

	d, brg := DistanceAndBearing(a, b, NauticalMiles)
	if math.Abs(d-Distance(a, b, NauticalMiles)) > 1e-12 {
		t.Errorf("DistanceAndBearing distance = %f; want %f", d, Distance(a, b, NauticalMiles))
	}
	if math.Abs(brg-InitialBearing(a, b)) > 1e-12 {
		t.Errorf("DistanceAndBearing bearing = %f; want %f", brg, InitialBearing(a, b))
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([]LatLon{
		{Lat: 22.0, Lon: 114.0},
		{Lat: 22.1, Lon: 114.1},
	})
	if math.Abs(c.Lat-22.05) > 1e-9 || math.Abs(c.Lon-114.05) > 1e-9 {
		t.Errorf("Centroid = %v; want {22.05 114.05}", c)
	}

	if c := Centroid(nil); c != (LatLon{}) {
		t.Errorf("Centroid(nil) = %v; want zero", c)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds([]LatLon{
		{Lat: 22.0, Lon: 114.0},
		{Lat: 22.1, Lon: 114.1},
	}, 0.005)

	want := [4]float64{113.995, 21.995, 114.105, 22.105}
	got := b.BBox()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("BBox = %v; want %v", got, want)
			break
		}
	}
}
