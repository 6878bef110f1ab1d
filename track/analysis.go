package track

import (
	"math"

	"github.com/raceline/track-server/geo"
)

// maneuverThreshold is the heading change above which a consecutive point
// pair is counted as a maneuver. A heuristic over noisy heading data:
// slow turns in light air can slip under it, wave steering can exceed it.
const maneuverThreshold = 60.0

// Stats are the per-track performance numbers.
type Stats struct {
	MaxSpeed   float64 `json:"maxSpeed"`
	AvgSpeed   float64 `json:"avgSpeed"`
	DistanceNM float64 `json:"distanceNM"`
	DurationMs int64   `json:"durationMs"`
	Tacks      int     `json:"tacks"`
	Gybes      int     `json:"gybes"`
}

// VMGReport carries the average velocity made good on each wind axis.
// Points missing speed or heading are excluded, not treated as zero.
type VMGReport struct {
	Upwind         float64 `json:"upwind"`
	Downwind       float64 `json:"downwind"`
	UpwindPoints   int     `json:"upwindPoints"`
	DownwindPoints int     `json:"downwindPoints"`
}

// Analyze computes the track statistics: speed extremes over the points
// reporting speed, total haversine distance in nautical miles, duration,
// and the tack/gybe counts.
func Analyze(t Track) Stats {
	s := Stats{DurationMs: t.EndTime - t.StartTime}

	speedSum := 0.0
	speedCount := 0
	for i, p := range t.Points {
		if p.Speed != nil {
			speedSum += *p.Speed
			speedCount++
			if *p.Speed > s.MaxSpeed {
				s.MaxSpeed = *p.Speed
			}
		}
		if i > 0 {
			s.DistanceNM += geo.Distance(t.Points[i-1].LatLon(), p.LatLon(), geo.NauticalMiles)
		}
	}
	if speedCount > 0 {
		s.AvgSpeed = speedSum / float64(speedCount)
	}

	s.Tacks, s.Gybes = CountManeuvers(t.Points)
	return s
}

// CountManeuvers classifies heading swings above the maneuver threshold.
// A maneuver with |TWA| < 90 at the turn point is a tack, otherwise a
// gybe. When the point reports no TWA the turn sweep stands in for it:
// swings up to 120 degrees are counted as tacks. Both rules are
// heuristics, not certainties.
func CountManeuvers(ps []Point) (tacks, gybes int) {
	for i := 1; i < len(ps); i++ {
		if ps[i-1].Heading == nil || ps[i].Heading == nil {
			continue
		}
		delta := normalizeAngle(*ps[i].Heading - *ps[i-1].Heading)
		if math.Abs(delta) <= maneuverThreshold {
			continue
		}
		switch {
		case ps[i].TWA != nil:
			if math.Abs(*ps[i].TWA) < 90 {
				tacks++
			} else {
				gybes++
			}
		case math.Abs(delta) <= 120:
			tacks++
		default:
			gybes++
		}
	}
	return tacks, gybes
}

// VMG averages the wind-axis speed component against the given wind
// direction (degrees true). Upwind points (|TWA| < 90) contribute
// speed*cos(TWA), the rest speed*|cos(TWA)| downwind.
func VMG(t Track, windDirection float64) VMGReport {
	var r VMGReport
	var up, down float64
	for _, p := range t.Points {
		if p.Speed == nil || p.Heading == nil {
			continue
		}
		twa := normalizeAngle(windDirection - *p.Heading)
		component := *p.Speed * math.Cos(twa*math.Pi/180)
		if math.Abs(twa) < 90 {
			up += component
			r.UpwindPoints++
		} else {
			down += math.Abs(component)
			r.DownwindPoints++
		}
	}
	if r.UpwindPoints > 0 {
		r.Upwind = up / float64(r.UpwindPoints)
	}
	if r.DownwindPoints > 0 {
		r.Downwind = down / float64(r.DownwindPoints)
	}
	return r
}

// normalizeAngle maps a degree delta to (-180,180].
func normalizeAngle(d float64) float64 {
	for d <= -180 {
		d += 360
	}
	for d > 180 {
		d -= 360
	}
	return d
}
