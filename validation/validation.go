// Package validation performs structural and semantic checks on marks,
// legs and whole courses, and offers a best-effort auto-repair. Findings
// split into errors (block acceptance) and warnings (informational);
// strict evaluation promotes warnings to errors.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/raceline/track-server/course"
)

// Result is an ordered list of findings.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Result) errorf(format string, v ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, v...))
}

func (r *Result) warnf(format string, v ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, v...))
}

func (r Result) finish() Result {
	r.Valid = len(r.Errors) == 0
	return r
}

// Strict returns a copy with every warning promoted to an error.
func (r Result) Strict() Result {
	r.Errors = append(append([]string(nil), r.Errors...), r.Warnings...)
	r.Warnings = nil
	return r.finish()
}

func merge(rs ...Result) Result {
	var out Result
	for _, r := range rs {
		out.Errors = append(out.Errors, r.Errors...)
		out.Warnings = append(out.Warnings, r.Warnings...)
	}
	return out.finish()
}

// Degree-space thresholds; one degree of latitude is roughly 111 km, so
// these stay approximations valid at course scale only.
const (
	nearDuplicateDeg = 0.0001 // ~11 m
	minExtentDeg     = 0.0009 // ~100 m
	maxExtentDeg     = 0.45   // ~50 km
	maxPrecisionDp   = 8
)

// ValidateMark checks a single mark: required fields, coordinate range,
// precision sanity and placeholder values.
func ValidateMark(m course.Mark) Result {
	var r Result

	if strings.TrimSpace(m.Name) == "" {
		r.errorf("mark %q: name is required", m.ID)
	}
	if m.Lat < -90 || m.Lat > 90 {
		r.errorf("mark %q: latitude %f out of range [-90,90]", m.Name, m.Lat)
	}
	if m.Lon < -180 || m.Lon > 180 {
		r.errorf("mark %q: longitude %f out of range [-180,180]", m.Name, m.Lon)
	}
	if m.Lat == 0 && m.Lon == 0 {
		r.warnf("mark %q: coordinates are (0,0), likely unset", m.Name)
	}
	if overPrecise(m.Lat) || overPrecise(m.Lon) {
		r.warnf("mark %q: more than %d decimal places is beyond GPS accuracy", m.Name, maxPrecisionDp)
	}
	if m.Type == course.MarkTypeUnknown {
		r.warnf("mark %q: unknown mark type", m.Name)
	}
	if m.Rounding == course.RoundingUnset {
		r.warnf("mark %q: rounding side not set", m.Name)
	}
	for _, token := range []string{"todo", "tbd", "fixme"} {
		if strings.Contains(strings.ToLower(m.Name), token) {
			r.warnf("mark %q: name looks like a placeholder", m.Name)
			break
		}
	}

	return r.finish()
}

func overPrecise(v float64) bool {
	scaled := v * math.Pow10(maxPrecisionDp)
	return scaled != math.Trunc(scaled)
}

// ValidateMarks checks the mark set as a whole: cardinality, duplicate
// names, near-duplicate positions, start/finish presence and geographic
// extent.
func ValidateMarks(marks []course.Mark) Result {
	var r Result

	if len(marks) < 2 {
		r.errorf("a course needs at least 2 marks, got %d", len(marks))
		return r.finish()
	}

	results := []Result{r}
	for _, m := range marks {
		results = append(results, ValidateMark(m))
	}
	r = merge(results...)

	seen := map[string]bool{}
	for _, m := range marks {
		key := strings.ToLower(strings.TrimSpace(m.Name))
		if seen[key] && key != "" {
			r.warnf("duplicate mark name %q", m.Name)
		}
		seen[key] = true
	}

	for i := 0; i < len(marks); i++ {
		for j := i + 1; j < len(marks); j++ {
			if math.Abs(marks[i].Lat-marks[j].Lat) < nearDuplicateDeg &&
				math.Abs(marks[i].Lon-marks[j].Lon) < nearDuplicateDeg {
				r.warnf("marks %q and %q are within ~11 m of each other", marks[i].Name, marks[j].Name)
			}
		}
	}

	if !hasRole(marks, "start", course.MarkTypeStartLine, course.MarkTypeStartFinish, course.MarkTypeCommitteeBoat, course.MarkTypePin) {
		r.warnf("no start mark found")
	}
	if !hasRole(marks, "finish", course.MarkTypeFinishLine, course.MarkTypeStartFinish) {
		r.warnf("no finish mark found")
	}

	var minLat, maxLat, minLon, maxLon = marks[0].Lat, marks[0].Lat, marks[0].Lon, marks[0].Lon
	for _, m := range marks[1:] {
		minLat = math.Min(minLat, m.Lat)
		maxLat = math.Max(maxLat, m.Lat)
		minLon = math.Min(minLon, m.Lon)
		maxLon = math.Max(maxLon, m.Lon)
	}
	extent := math.Max(maxLat-minLat, maxLon-minLon)
	if extent < minExtentDeg {
		r.warnf("course extent below ~100 m, marks may be misplaced")
	}
	if extent > maxExtentDeg {
		r.warnf("course extent above ~50 km, marks may be misplaced")
	}

	return r.finish()
}

func hasRole(marks []course.Mark, keyword string, types ...course.MarkType) bool {
	for _, m := range marks {
		for _, t := range types {
			if m.Type == t {
				return true
			}
		}
		if strings.Contains(strings.ToLower(m.Name), keyword) {
			return true
		}
	}
	return false
}

// ValidateLegs checks that every leg connects known marks with a positive
// distance and an in-range bearing.
func ValidateLegs(legs []course.Leg, marks []course.Mark) Result {
	var r Result

	known := map[string]bool{}
	for _, m := range marks {
		known[m.Name] = true
	}

	for i, leg := range legs {
		if !known[leg.From] {
			r.errorf("leg %d: unknown mark %q", i, leg.From)
		}
		if !known[leg.To] {
			r.errorf("leg %d: unknown mark %q", i, leg.To)
		}
		if leg.Distance <= 0 {
			r.errorf("leg %d (%s to %s): non-positive distance %f", i, leg.From, leg.To, leg.Distance)
		}
		if leg.Bearing < 0 || leg.Bearing >= 360 {
			r.errorf("leg %d (%s to %s): bearing %f outside [0,360)", i, leg.From, leg.To, leg.Bearing)
		}
	}

	return r.finish()
}

// ValidateCourse runs the mark-set and leg checks together. With strict
// set, warnings count as errors.
func ValidateCourse(marks []course.Mark, legs []course.Leg, strict bool) Result {
	r := merge(ValidateMarks(marks), ValidateLegs(legs, marks))
	if strict {
		return r.Strict()
	}
	return r
}

// AutoFixMarks repairs what can be repaired without guessing positions:
// the type is inferred from name keywords, generic marks default to a
// port rounding, missing identifiers get a synthetic one. Every change is
// recorded in the returned fix log. Auto-fix is additive only, it never
// discards a finding, and its output still needs review.
func AutoFixMarks(marks []course.Mark) ([]course.Mark, []string) {
	fixed := append([]course.Mark(nil), marks...)
	var fixes []string

	for i := range fixed {
		m := &fixed[i]

		if m.Type == course.MarkTypeUnknown {
			if t := inferType(m.Name); t != course.MarkTypeUnknown {
				m.Type = t
				fixes = append(fixes, fmt.Sprintf("mark %q: inferred type %s from name", m.Name, t))
			}
		}
		if m.Rounding == course.RoundingUnset && m.Type == course.MarkTypeMark {
			m.Rounding = course.RoundingPort
			fixes = append(fixes, fmt.Sprintf("mark %q: defaulted rounding to port", m.Name))
		}
		if strings.TrimSpace(m.ID) == "" {
			m.ID = uuid.New().String()
			fixes = append(fixes, fmt.Sprintf("mark %q: generated id %s", m.Name, m.ID))
		}
	}

	return fixed, fixes
}

func inferType(name string) course.MarkType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "start") && strings.Contains(lower, "finish"):
		return course.MarkTypeStartFinish
	case strings.Contains(lower, "start"):
		return course.MarkTypeStartLine
	case strings.Contains(lower, "finish"):
		return course.MarkTypeFinishLine
	case strings.Contains(lower, "gate"):
		return course.MarkTypeGate
	case strings.Contains(lower, "offset"):
		return course.MarkTypeOffset
	case strings.Contains(lower, "committee"):
		return course.MarkTypeCommitteeBoat
	case strings.Contains(lower, "pin"):
		return course.MarkTypePin
	case strings.Contains(lower, "mark") || strings.Contains(lower, "buoy") ||
		strings.Contains(lower, "windward") || strings.Contains(lower, "leeward"):
		return course.MarkTypeMark
	}
	return course.MarkTypeUnknown
}
