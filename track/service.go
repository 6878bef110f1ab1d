package track

import (
	"bytes"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

// Service orchestrates parser dispatch, analysis and export. It is a
// stateless value, constructed explicitly and passed to callers.
type Service struct{}

func NewService() Service {
	return Service{}
}

// ImportFile detects the format from the filename, delegates to the
// matching parser and returns its result. A panicking parser is contained
// here: the panic becomes an error entry instead of escaping.
func (Service) ImportFile(filename string, data []byte) (res ImportResult) {
	format := DetectFileFormat(filename)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("parser panic on '%s': %v", filename, r)
			res = ImportResult{Format: format}
			res.errorf("internal parser failure: %v", r)
		}
	}()

	res = parsers[format].Parse(data)
	res.Format = format
	log.Infof("Imported '%s' as %s: %d track(s), %d error(s)",
		filename, format, len(res.Tracks), len(res.Errors))
	return res
}

// ExportFormat selects the export rendering.
type ExportFormat int

const (
	ExportGPX ExportFormat = iota
	ExportCSV
	ExportBinary // msgpack
)

func (f ExportFormat) String() string {
	switch f {
	case ExportCSV:
		return "csv"
	case ExportBinary:
		return "msgpack"
	}
	return "gpx"
}

func (f ExportFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *ExportFormat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "csv":
		*f = ExportCSV
	case "msgpack":
		*f = ExportBinary
	default:
		*f = ExportGPX
	}
	return nil
}

// ExportOptions control the rendering and the optional pre-export
// simplification.
type ExportOptions struct {
	Format    ExportFormat `json:"format"`
	Simplify  bool         `json:"simplify"`
	Tolerance float64      `json:"tolerance"` // meters
}

// Export renders the track. With Simplify set, Douglas-Peucker runs first
// with the given tolerance; the input track is left untouched.
func (Service) Export(t Track, opts ExportOptions) ([]byte, error) {
	if opts.Simplify {
		simplified := t
		simplified.Points = Simplify(t.Points, opts.Tolerance)
		log.Infof("Simplified '%s' from %d to %d points (tolerance %.1f m)",
			t.Name, len(t.Points), len(simplified.Points), opts.Tolerance)
		t = simplified
	}

	switch opts.Format {
	case ExportCSV:
		var buf bytes.Buffer
		if err := WriteCSV(t, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ExportBinary:
		return msgpack.Marshal(t)
	case ExportGPX:
		var buf bytes.Buffer
		if err := WriteGPX(t, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown export format %d", opts.Format)
}
