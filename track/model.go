// Package track ingests GPS tracks from the supported source formats
// (GPX, VCC logger dumps, delimited text), derives performance statistics
// and exports tracks again, optionally simplified.
package track

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/raceline/track-server/geo"
)

// Point is a single recorded GPS fix. Optional channels are pointers so
// that "not reported" stays distinct from zero.
type Point struct {
	Lat      float64  `json:"lat" msgpack:"lat"`
	Lon      float64  `json:"lon" msgpack:"lon"`
	Time     int64    `json:"time" msgpack:"time"` // epoch millis
	Speed    *float64 `json:"speed,omitempty" msgpack:"speed,omitempty"`
	Heading  *float64 `json:"heading,omitempty" msgpack:"heading,omitempty"`
	COG      *float64 `json:"cog,omitempty" msgpack:"cog,omitempty"`
	Altitude *float64 `json:"altitude,omitempty" msgpack:"altitude,omitempty"`
	TWA      *float64 `json:"twa,omitempty" msgpack:"twa,omitempty"`
	TWS      *float64 `json:"tws,omitempty" msgpack:"tws,omitempty"`
}

func (p Point) LatLon() geo.LatLon {
	return geo.LatLon{Lat: p.Lat, Lon: p.Lon}
}

// Track is an ordered, chronological point sequence. Transformations
// return new values, a Track is never mutated in place.
type Track struct {
	Name      string  `json:"name,omitempty" msgpack:"name,omitempty"`
	Device    string  `json:"device,omitempty" msgpack:"device,omitempty"`
	Points    []Point `json:"points" msgpack:"points"`
	StartTime int64   `json:"startTime" msgpack:"startTime"`
	EndTime   int64   `json:"endTime" msgpack:"endTime"`
}

// FileFormat identifies a track source format.
type FileFormat int

const (
	FormatGPX FileFormat = iota
	FormatVCC
	FormatCSV
)

func (f FileFormat) String() string {
	switch f {
	case FormatVCC:
		return "vcc"
	case FormatCSV:
		return "csv"
	}
	return "gpx"
}

func (f FileFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *FileFormat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "vcc":
		*f = FormatVCC
	case "csv":
		*f = FormatCSV
	default:
		*f = FormatGPX
	}
	return nil
}

// ImportResult reports the outcome of parsing one file. Partial success
// is legal: some tracks parsed, errors recorded for the rest.
type ImportResult struct {
	Success bool       `json:"success"`
	Tracks  []Track    `json:"tracks"`
	Errors  []string   `json:"errors,omitempty"`
	Format  FileFormat `json:"format"`
}

func (r *ImportResult) errorf(format string, v ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, v...))
}

// Parser decodes one source format. Implementations must not panic past
// their boundary: any internal failure becomes an entry in the result's
// error list.
type Parser interface {
	Parse(data []byte) ImportResult
}

var parsers = map[FileFormat]Parser{
	FormatGPX: gpxParser{},
	FormatVCC: vccParser{},
	FormatCSV: csvParser{},
}

// DetectFileFormat maps a filename extension to its format. Unrecognized
// extensions default to GPX.
func DetectFileFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".vcc":
		return FormatVCC
	case ".csv", ".txt":
		return FormatCSV
	}
	return FormatGPX
}

func finishTrack(t Track) Track {
	if len(t.Points) > 0 {
		t.StartTime = t.Points[0].Time
		t.EndTime = t.Points[len(t.Points)-1].Time
	}
	return t
}
