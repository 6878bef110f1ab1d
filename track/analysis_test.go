package track

import (
	"math"
	"testing"
)

func TestCountManeuvers(t *testing.T) {
	// 0 -> 70 degree swing with |TWA| < 90 at the turn point is a tack.
	tacks, gybes := CountManeuvers([]Point{
		{Heading: ptr(0)},
		{Heading: ptr(70), TWA: ptr(40)},
	})
	if tacks != 1 || gybes != 0 {
		t.Errorf("tack scenario: %d tacks, %d gybes; want 1, 0", tacks, gybes)
	}

	// Same swing with |TWA| >= 90 is a gybe.
	tacks, gybes = CountManeuvers([]Point{
		{Heading: ptr(0)},
		{Heading: ptr(70), TWA: ptr(150)},
	})
	if tacks != 0 || gybes != 1 {
		t.Errorf("gybe scenario: %d tacks, %d gybes; want 0, 1", tacks, gybes)
	}

	// A swing under the threshold is steering, not a maneuver.
	tacks, gybes = CountManeuvers([]Point{
		{Heading: ptr(0)},
		{Heading: ptr(45), TWA: ptr(40)},
	})
	if tacks != 0 || gybes != 0 {
		t.Errorf("small swing: %d tacks, %d gybes; want 0, 0", tacks, gybes)
	}

	// The delta wraps through north: 350 -> 60 is a 70 degree swing.
	tacks, gybes = CountManeuvers([]Point{
		{Heading: ptr(350)},
		{Heading: ptr(60), TWA: ptr(30)},
	})
	if tacks != 1 || gybes != 0 {
		t.Errorf("wrap scenario: %d tacks, %d gybes; want 1, 0", tacks, gybes)
	}

	// Missing headings are skipped.
	tacks, gybes = CountManeuvers([]Point{
		{Heading: ptr(0)},
		{},
		{Heading: ptr(70), TWA: ptr(40)},
	})
	if tacks != 0 || gybes != 0 {
		t.Errorf("missing heading: %d tacks, %d gybes; want 0, 0", tacks, gybes)
	}
}

func TestAnalyze(t *testing.T) {
	tr := finishTrack(Track{
		Name: "test",
		Points: []Point{
			{Lat: 22.0, Lon: 114.0, Time: 0, Speed: ptr(5)},
			{Lat: 22.1, Lon: 114.0, Time: 60_000, Speed: ptr(7)},
			{Lat: 22.2, Lon: 114.0, Time: 120_000},
		},
	})

	s := Analyze(tr)
	if s.MaxSpeed != 7 {
		t.Errorf("MaxSpeed = %f; want 7", s.MaxSpeed)
	}
	if s.AvgSpeed != 6 {
		t.Errorf("AvgSpeed = %f; want 6 (unreported speeds excluded)", s.AvgSpeed)
	}
	if math.Abs(s.DistanceNM-12.0) > 0.05 {
		t.Errorf("DistanceNM = %f; want ~12", s.DistanceNM)
	}
	if s.DurationMs != 120_000 {
		t.Errorf("DurationMs = %d; want 120000", s.DurationMs)
	}
}

func TestVMG(t *testing.T) {
	tr := Track{Points: []Point{
		{Speed: ptr(6), Heading: ptr(0)},   // dead upwind with wind from 0
		{Speed: ptr(5), Heading: ptr(180)}, // dead downwind
		{Speed: ptr(9)},                    // no heading: excluded
		{Heading: ptr(90)},                 // no speed: excluded
	}}

	r := VMG(tr, 0)
	if r.UpwindPoints != 1 || r.DownwindPoints != 1 {
		t.Fatalf("point buckets = %d up, %d down; want 1, 1", r.UpwindPoints, r.DownwindPoints)
	}
	if math.Abs(r.Upwind-6) > 1e-9 {
		t.Errorf("Upwind = %f; want 6", r.Upwind)
	}
	if math.Abs(r.Downwind-5) > 1e-9 {
		t.Errorf("Downwind = %f; want 5", r.Downwind)
	}

	// 45 degrees off the wind makes good speed * cos(45).
	r = VMG(Track{Points: []Point{{Speed: ptr(8), Heading: ptr(45)}}}, 0)
	if math.Abs(r.Upwind-8*math.Cos(math.Pi/4)) > 1e-9 {
		t.Errorf("Upwind at 45 = %f; want %f", r.Upwind, 8*math.Cos(math.Pi/4))
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		190:  -170,
		-190: 170,
		180:  180,
		-180: 180,
		360:  0,
	}
	for in, want := range cases {
		if got := normalizeAngle(in); math.Abs(got-want) > 1e-12 {
			t.Errorf("normalizeAngle(%f) = %f; want %f", in, got, want)
		}
	}
}
