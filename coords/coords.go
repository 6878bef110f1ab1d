// Package coords parses and formats geographic coordinates in the three
// notations found in sailing instructions and source documents: decimal
// degrees, degrees-decimal-minutes (DDM) and degrees-minutes-seconds (DMS).
//
// Format detection is a heuristic over glyphs: a degree sign together with
// a seconds sign means DMS, a degree sign alone (or a bare
// "degrees minutes.decimal hemisphere" pattern) means DDM, anything else
// is treated as decimal degrees.
package coords

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Format identifies a coordinate notation.
type Format int

const (
	Decimal Format = iota
	DDM
	DMS
)

func (f Format) String() string {
	switch f {
	case DDM:
		return "ddm"
	case DMS:
		return "dms"
	}
	return "decimal"
}

// ParseError reports text that matches none of the known notations.
type ParseError struct {
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse coordinate %q", e.Text)
}

// RangeError reports a coordinate outside [-90,90] / [-180,180].
type RangeError struct {
	Lat float64
	Lon float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("coordinate out of range: lat %f, lon %f", e.Lat, e.Lon)
}

var (
	ddmBareRe = regexp.MustCompile(`^[+-]?\d{1,3}\s+\d{1,2}(?:\.\d+)?\s*[NSEWnsew]?$`)
	dmsRe     = regexp.MustCompile(`^([+-]?\d{1,3})[°º]\s*(\d{1,2})['′’]\s*(\d{1,2}(?:\.\d+)?)(?:"|″|'')?\s*([NSEWnsew])?$`)
	ddmRe     = regexp.MustCompile(`^([+-]?\d{1,3})(?:[°º]|\s)\s*(\d{1,2}(?:\.\d+)?)['′’]?\s*([NSEWnsew])?$`)
	decimalRe = regexp.MustCompile(`^([+-]?\d{1,3}(?:\.\d+)?)\s*([NSEWnsew])?$`)
)

// DetectFormat classifies a single coordinate string.
func DetectFormat(text string) Format {
	s := strings.TrimSpace(text)
	hasDegree := strings.ContainsAny(s, "°º")
	hasSeconds := strings.Contains(s, `"`) || strings.Contains(s, "″") || strings.Contains(s, "''")
	switch {
	case hasDegree && hasSeconds:
		return DMS
	case hasDegree:
		return DDM
	case ddmBareRe.MatchString(s):
		return DDM
	}
	return Decimal
}

// ToDecimal converts a single coordinate in any supported notation to
// decimal degrees. The hemisphere letters S and W flip the sign.
func ToDecimal(text string) (float64, error) {
	s := strings.TrimSpace(text)
	switch DetectFormat(s) {
	case DMS:
		return parseDMS(s)
	case DDM:
		return parseDDM(s)
	}
	return parseDecimal(s)
}

func parseDMS(s string) (float64, error) {
	m := dmsRe.FindStringSubmatch(s)
	if m == nil {
		return 0, &ParseError{Text: s}
	}
	deg, _ := strconv.ParseFloat(m[1], 64)
	min, _ := strconv.ParseFloat(m[2], 64)
	sec, _ := strconv.ParseFloat(m[3], 64)
	v := math.Abs(deg) + min/60 + sec/3600
	if deg < 0 || strings.HasPrefix(m[1], "-") || isSouthWest(m[4]) {
		v = -v
	}
	return v, nil
}

func parseDDM(s string) (float64, error) {
	m := ddmRe.FindStringSubmatch(s)
	if m == nil {
		return 0, &ParseError{Text: s}
	}
	deg, _ := strconv.ParseFloat(m[1], 64)
	min, _ := strconv.ParseFloat(m[2], 64)
	v := math.Abs(deg) + min/60
	if deg < 0 || strings.HasPrefix(m[1], "-") || isSouthWest(m[3]) {
		v = -v
	}
	return v, nil
}

func parseDecimal(s string) (float64, error) {
	m := decimalRe.FindStringSubmatch(s)
	if m == nil {
		return 0, &ParseError{Text: s}
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &ParseError{Text: s}
	}
	if isSouthWest(m[2]) {
		v = -v
	}
	return v, nil
}

func isSouthWest(hemi string) bool {
	return hemi == "S" || hemi == "s" || hemi == "W" || hemi == "w"
}

func isLonHemi(s string) bool {
	return strings.ContainsAny(s, "EWew")
}

func isLatHemi(s string) bool {
	return strings.ContainsAny(s, "NSns")
}

// ParsePair splits a "lat, lon" style string into its two coordinates.
// Hemisphere letters decide which token is which: N/S marks latitude,
// E/W longitude. Bare decimal pairs are taken latitude first.
func ParsePair(text string) (lat, lon float64, err error) {
	s := strings.TrimSpace(text)

	var parts []string
	if strings.Contains(s, ",") {
		for _, p := range strings.Split(s, ",") {
			parts = append(parts, strings.TrimSpace(p))
		}
	} else {
		fields := strings.Fields(s)
		switch len(fields) {
		case 2:
			parts = fields
		case 4:
			// Two coordinates spelled with an inner space, e.g.
			// "22 16.76N 114 09.768E" or "22.27 N 114.16 E".
			parts = []string{fields[0] + " " + fields[1], fields[2] + " " + fields[3]}
		default:
			return 0, 0, &ParseError{Text: text}
		}
	}
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, 0, &ParseError{Text: text}
	}

	v0, err := ToDecimal(parts[0])
	if err != nil {
		return 0, 0, err
	}
	v1, err := ToDecimal(parts[1])
	if err != nil {
		return 0, 0, err
	}

	lat, lon = v0, v1
	if isLonHemi(parts[0]) || isLatHemi(parts[1]) {
		lat, lon = v1, v0
	}
	return lat, lon, ValidateRange(lat, lon)
}

// ValidateRange fails with a RangeError outside [-90,90] / [-180,180].
func ValidateRange(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return &RangeError{Lat: lat, Lon: lon}
	}
	return nil
}

// FormatCoordinate renders a lat/lon pair in the target notation with the
// given number of decimal places on the smallest displayed unit. For
// in-range values the DDM and DMS renderings are exact inverses of
// ParsePair (up to the chosen precision).
func FormatCoordinate(lat, lon float64, f Format, precision int) string {
	return formatOne(lat, true, f, precision) + ", " + formatOne(lon, false, f, precision)
}

func formatOne(v float64, isLat bool, f Format, precision int) string {
	switch f {
	case DDM:
		return formatDDM(v, isLat, precision)
	case DMS:
		return formatDMS(v, isLat, precision)
	}
	if precision <= 0 {
		precision = 6
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func hemisphere(v float64, isLat bool) string {
	if isLat {
		if v < 0 {
			return "S"
		}
		return "N"
	}
	if v < 0 {
		return "W"
	}
	return "E"
}

func formatDDM(v float64, isLat bool, precision int) string {
	if precision <= 0 {
		precision = 3
	}
	a := math.Abs(v)
	deg := int(a)
	min := (a - float64(deg)) * 60
	mins := strconv.FormatFloat(min, 'f', precision, 64)
	if rounded, _ := strconv.ParseFloat(mins, 64); rounded >= 60 {
		deg++
		mins = strconv.FormatFloat(0, 'f', precision, 64)
	}
	return fmt.Sprintf("%d°%s'%s", deg, mins, hemisphere(v, isLat))
}

func formatDMS(v float64, isLat bool, precision int) string {
	if precision <= 0 {
		precision = 1
	}
	a := math.Abs(v)
	deg := int(a)
	minf := (a - float64(deg)) * 60
	min := int(minf)
	sec := (minf - float64(min)) * 60
	secs := strconv.FormatFloat(sec, 'f', precision, 64)
	if rounded, _ := strconv.ParseFloat(secs, 64); rounded >= 60 {
		min++
		secs = strconv.FormatFloat(0, 'f', precision, 64)
	}
	if min >= 60 {
		deg++
		min -= 60
	}
	return fmt.Sprintf(`%d°%d'%s"%s`, deg, min, secs, hemisphere(v, isLat))
}
