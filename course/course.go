// Package course builds and classifies race-course geometry: mark and leg
// collections, course-level bounds and centroid, and the GeoJSON-style
// interchange structure map renderers consume.
package course

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/raceline/track-server/geo"
)

// MarkType is the closed set of semantic mark roles.
type MarkType int

const (
	MarkTypeUnknown MarkType = iota
	MarkTypeStartLine
	MarkTypeFinishLine
	MarkTypeStartFinish
	MarkTypeMark
	MarkTypeGate
	MarkTypeOffset
	MarkTypeCommitteeBoat
	MarkTypePin
)

var markTypeNames = map[MarkType]string{
	MarkTypeStartLine:     "start-line",
	MarkTypeFinishLine:    "finish-line",
	MarkTypeStartFinish:   "start-finish",
	MarkTypeMark:          "mark",
	MarkTypeGate:          "gate",
	MarkTypeOffset:        "offset",
	MarkTypeCommitteeBoat: "committee-boat",
	MarkTypePin:           "pin",
}

func (t MarkType) String() string {
	if s, ok := markTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

func (t MarkType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts any string; values outside the known set map to
// MarkTypeUnknown so validation can warn instead of the decode failing.
func (t *MarkType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for mt, name := range markTypeNames {
		if name == s {
			*t = mt
			return nil
		}
	}
	*t = MarkTypeUnknown
	return nil
}

// Rounding is the side a mark is left on.
type Rounding int

const (
	RoundingUnset Rounding = iota
	RoundingPort
	RoundingStarboard
	RoundingEither
)

var roundingNames = map[Rounding]string{
	RoundingPort:      "port",
	RoundingStarboard: "starboard",
	RoundingEither:    "either",
}

func (r Rounding) String() string {
	if s, ok := roundingNames[r]; ok {
		return s
	}
	return ""
}

func (r Rounding) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Rounding) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for rv, name := range roundingNames {
		if name == s {
			*r = rv
			return nil
		}
	}
	*r = RoundingUnset
	return nil
}

// Mark is a single course feature.
type Mark struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Type     MarkType `json:"type"`
	Rounding Rounding `json:"rounding,omitempty"`
	Order    int      `json:"order"`
}

func (m Mark) LatLon() geo.LatLon {
	return geo.LatLon{Lat: m.Lat, Lon: m.Lon}
}

// LegType is the closed set of leg classifications.
type LegType int

const (
	LegUpwind LegType = iota
	LegDownwind
	LegReaching
	LegRun
)

func (t LegType) String() string {
	switch t {
	case LegDownwind:
		return "downwind"
	case LegReaching:
		return "reaching"
	case LegRun:
		return "run"
	}
	return "upwind"
}

func (t LegType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *LegType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "downwind":
		*t = LegDownwind
	case "reaching":
		*t = LegReaching
	case "run":
		*t = LegRun
	default:
		*t = LegUpwind
	}
	return nil
}

// Leg connects two marks.
type Leg struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Type     LegType `json:"type"`
	Distance float64 `json:"distance"`
	Unit     string  `json:"unit"`
	Bearing  float64 `json:"bearing"`
}

// CourseType is the detected course pattern.
type CourseType int

const (
	CourseCustom CourseType = iota
	CourseWindwardLeeward
	CourseTriangle
	CourseTrapezoid
	CourseOlympic
)

func (t CourseType) String() string {
	switch t {
	case CourseWindwardLeeward:
		return "windward-leeward"
	case CourseTriangle:
		return "triangle"
	case CourseTrapezoid:
		return "trapezoid"
	case CourseOlympic:
		return "olympic"
	}
	return "custom"
}

func (t CourseType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *CourseType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "windward-leeward":
		*t = CourseWindwardLeeward
	case "triangle":
		*t = CourseTriangle
	case "trapezoid":
		*t = CourseTrapezoid
	case "olympic":
		*t = CourseOlympic
	default:
		*t = CourseCustom
	}
	return nil
}

func nameContainsAny(name string, keywords ...string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// DetectCourseType guesses the course pattern from mark-name keywords.
// The rules are checked in order and are inherently approximate: a course
// with unconventional naming lands on "custom" even when its shape is a
// textbook windward-leeward.
func DetectCourseType(marks []Mark) CourseType {
	var hasWindward, hasLeeward, hasReach, hasOffset bool
	for _, m := range marks {
		if nameContainsAny(m.Name, "windward", "weather", "top") {
			hasWindward = true
		}
		if nameContainsAny(m.Name, "leeward", "lee", "bottom") {
			hasLeeward = true
		}
		if nameContainsAny(m.Name, "reach", "wing") {
			hasReach = true
		}
		if nameContainsAny(m.Name, "offset") {
			hasOffset = true
		}
	}

	switch {
	case hasWindward && hasLeeward && !hasReach && !hasOffset:
		return CourseWindwardLeeward
	case hasReach && len(marks) >= 3 && len(marks) <= 4:
		return CourseTriangle
	case hasOffset && hasWindward && hasLeeward:
		return CourseTrapezoid
	case hasWindward && len(marks) >= 5 && len(marks) <= 7:
		return CourseOlympic
	}
	return CourseCustom
}

// GenerateLegs connects the marks in their explicit order and classifies
// each leg from its bearing quadrant relative to North: within 45 degrees
// of 0/360 is upwind, within 45 of 180 downwind, anything else reaching.
// The classification ignores the actual wind direction unless the caller
// has already folded it into the bearings.
func GenerateLegs(marks []Mark) []Leg {
	if len(marks) < 2 {
		return nil
	}

	sorted := append([]Mark(nil), marks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	legs := make([]Leg, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		from, to := sorted[i-1], sorted[i]
		dist, bearing := geo.DistanceAndBearing(from.LatLon(), to.LatLon(), geo.NauticalMiles)
		legs = append(legs, Leg{
			From:     from.Name,
			To:       to.Name,
			Type:     classifyLeg(bearing),
			Distance: dist,
			Unit:     geo.NauticalMiles.String(),
			Bearing:  bearing,
		})
	}
	return legs
}

func classifyLeg(bearing float64) LegType {
	switch {
	case bearing <= 45 || bearing >= 315:
		return LegUpwind
	case bearing >= 135 && bearing <= 225:
		return LegDownwind
	}
	return LegReaching
}

// Bounds returns the padded bounding box of the marks.
func Bounds(marks []Mark, padding float64) geo.Box {
	return geo.Bounds(positions(marks), padding)
}

// Centroid returns the mean mark position.
func Centroid(marks []Mark) geo.LatLon {
	return geo.Centroid(positions(marks))
}

// TotalLength sums the leg distances in the given unit.
func TotalLength(marks []Mark, unit geo.Unit) float64 {
	total := 0.0
	for _, leg := range GenerateLegs(marks) {
		total += leg.Distance
	}
	if unit == geo.NauticalMiles {
		return total
	}
	// GenerateLegs works in nautical miles.
	return total / geo.NauticalMiles.Radius() * unit.Radius()
}

// Summary bundles the course-level geometry for API consumers.
type Summary struct {
	Type     CourseType `json:"type"`
	Bounds   geo.Box    `json:"bounds"`
	BBox     [4]float64 `json:"bbox"`
	Centroid geo.LatLon `json:"centroid"`
	LengthNM float64    `json:"lengthNM"`
	Legs     []Leg      `json:"legs"`
}

// Summarize computes the full course description in one pass.
func Summarize(marks []Mark) (Summary, error) {
	if len(marks) < 2 {
		return Summary{}, fmt.Errorf("need at least 2 marks, got %d", len(marks))
	}
	bounds := Bounds(marks, geo.DefaultPadding)
	return Summary{
		Type:     DetectCourseType(marks),
		Bounds:   bounds,
		BBox:     bounds.BBox(),
		Centroid: Centroid(marks),
		LengthNM: TotalLength(marks, geo.NauticalMiles),
		Legs:     GenerateLegs(marks),
	}, nil
}

func positions(marks []Mark) []geo.LatLon {
	ps := make([]geo.LatLon, len(marks))
	for i, m := range marks {
		ps[i] = m.LatLon()
	}
	return ps
}
