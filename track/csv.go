package track

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// csvColumns is the fixed output column order; input is header-driven and
// tolerates missing optional columns.
var csvColumns = []string{"timestamp", "lat", "lng", "speed", "heading", "cog", "altitude", "twa", "tws"}

type csvParser struct{}

func (csvParser) Parse(data []byte) ImportResult {
	res := ImportResult{Format: FormatCSV}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		res.errorf("missing header row: %v", err)
		return res
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["lat"]; !ok {
		res.errorf("header lacks required column %q", "lat")
		return res
	}
	if _, ok := cols["lng"]; !ok {
		res.errorf("header lacks required column %q", "lng")
		return res
	}
	if _, ok := cols["timestamp"]; !ok {
		res.errorf("header lacks required column %q", "timestamp")
		return res
	}

	t := Track{Name: "CSV track"}
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.errorf("line %d: %v", line, err)
			continue
		}
		p, err := pointFromRecord(record, cols)
		if err != nil {
			res.errorf("line %d: %v", line, err)
			continue
		}
		t.Points = append(t.Points, p)
	}

	if len(t.Points) > 0 {
		res.Tracks = append(res.Tracks, finishTrack(t))
		res.Success = true
	} else if len(res.Errors) == 0 {
		res.errorf("no data rows")
	}
	return res
}

func pointFromRecord(record []string, cols map[string]int) (Point, error) {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return "", false
		}
		v := strings.TrimSpace(record[i])
		return v, v != ""
	}

	latText, _ := field("lat")
	lonText, _ := field("lng")
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid lat %q", latText)
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid lng %q", lonText)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("coordinates out of range: %f, %f", lat, lon)
	}

	tsText, _ := field("timestamp")
	ts, err := parseTimestamp(tsText)
	if err != nil {
		return Point{}, err
	}

	p := Point{Lat: lat, Lon: lon, Time: ts}
	for name, dst := range map[string]**float64{
		"speed":    &p.Speed,
		"heading":  &p.Heading,
		"cog":      &p.COG,
		"altitude": &p.Altitude,
		"twa":      &p.TWA,
		"tws":      &p.TWS,
	} {
		if text, ok := field(name); ok {
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return Point{}, fmt.Errorf("invalid %s %q", name, text)
			}
			*dst = ptr(v)
		}
	}
	return p, nil
}

// parseTimestamp accepts epoch millis or RFC 3339.
func parseTimestamp(text string) (int64, error) {
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ms, nil
	}
	ts, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", text)
	}
	return ts.UnixMilli(), nil
}

// WriteCSV renders the track in the fixed column order
// timestamp,lat,lng,speed,heading,cog,altitude,twa,tws.
func WriteCSV(t Track, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, p := range t.Points {
		record := []string{
			strconv.FormatInt(p.Time, 10),
			strconv.FormatFloat(p.Lat, 'f', 7, 64),
			strconv.FormatFloat(p.Lon, 'f', 7, 64),
			optField(p.Speed),
			optField(p.Heading),
			optField(p.COG),
			optField(p.Altitude),
			optField(p.TWA),
			optField(p.TWS),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
