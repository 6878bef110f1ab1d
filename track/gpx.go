package track

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// gpxFile maps the subset of GPX 1.1 we read and write, plus the
// vendor extension elements carrying sailing channels.
type gpxFile struct {
	XMLName xml.Name `xml:"gpx"`
	Creator string   `xml:"creator,attr"`
	Version string   `xml:"version,attr"`
	XMLNS   string   `xml:"xmlns,attr"`
	Trks    []gpxTrk `xml:"trk"`
}

type gpxTrk struct {
	Name    string      `xml:"name,omitempty"`
	Trksegs []gpxTrkseg `xml:"trkseg"`
}

type gpxTrkseg struct {
	Trkpts []gpxTrkpt `xml:"trkpt"`
}

type gpxTrkpt struct {
	Lat        float64        `xml:"lat,attr"`
	Lon        float64        `xml:"lon,attr"`
	Ele        *float64       `xml:"ele,omitempty"`
	Time       string         `xml:"time"`
	Extensions *gpxExtensions `xml:"extensions,omitempty"`
}

// gpxExtensions carries the vendor-namespaced channels. Absent elements
// stay nil so "not reported" survives the round trip.
type gpxExtensions struct {
	Speed  *float64 `xml:"speed,omitempty"`
	Course *float64 `xml:"course,omitempty"`
	TWA    *float64 `xml:"twa,omitempty"`
	TWS    *float64 `xml:"tws,omitempty"`
}

type gpxParser struct{}

func (gpxParser) Parse(data []byte) ImportResult {
	res := ImportResult{Format: FormatGPX}

	var g gpxFile
	if err := xml.Unmarshal(data, &g); err != nil {
		res.errorf("invalid GPX document: %v", err)
		return res
	}

	for trkIdx, trk := range g.Trks {
		t := Track{Name: trk.Name, Device: g.Creator}
		for _, seg := range trk.Trksegs {
			for ptIdx, trkpt := range seg.Trkpts {
				p, err := pointFromGpx(trkpt)
				if err != nil {
					res.errorf("track %d point %d: %v", trkIdx, ptIdx, err)
					continue
				}
				t.Points = append(t.Points, p)
			}
		}
		if len(t.Points) > 0 {
			res.Tracks = append(res.Tracks, finishTrack(t))
		} else {
			res.errorf("track %d: no usable points", trkIdx)
		}
	}

	res.Success = len(res.Tracks) > 0
	return res
}

func pointFromGpx(trkpt gpxTrkpt) (Point, error) {
	if trkpt.Lat < -90 || trkpt.Lat > 90 || trkpt.Lon < -180 || trkpt.Lon > 180 {
		return Point{}, fmt.Errorf("coordinates out of range: %f, %f", trkpt.Lat, trkpt.Lon)
	}
	ts, err := time.Parse(time.RFC3339, trkpt.Time)
	if err != nil {
		return Point{}, fmt.Errorf("invalid timestamp %q: %v", trkpt.Time, err)
	}
	p := Point{Lat: trkpt.Lat, Lon: trkpt.Lon, Time: ts.UnixMilli(), Altitude: trkpt.Ele}
	if ext := trkpt.Extensions; ext != nil {
		p.Speed = ext.Speed
		p.Heading = ext.Course
		p.TWA = ext.TWA
		p.TWS = ext.TWS
	}
	return p, nil
}

// WriteGPX renders the track as a well-formed GPX 1.1 document.
func WriteGPX(t Track, w io.Writer) error {
	g := gpxFile{
		XMLNS:   "http://www.topografix.com/GPX/1/1",
		Creator: "track-server",
		Version: "1.1",
		Trks: []gpxTrk{{
			Name:    t.Name,
			Trksegs: []gpxTrkseg{{}},
		}},
	}

	for _, p := range t.Points {
		trkpt := gpxTrkpt{
			Lat:  p.Lat,
			Lon:  p.Lon,
			Ele:  p.Altitude,
			Time: time.UnixMilli(p.Time).UTC().Format(time.RFC3339),
		}
		if p.Speed != nil || p.Heading != nil || p.TWA != nil || p.TWS != nil {
			trkpt.Extensions = &gpxExtensions{
				Speed:  p.Speed,
				Course: p.Heading,
				TWA:    p.TWA,
				TWS:    p.TWS,
			}
		}
		g.Trks[0].Trksegs[0].Trkpts = append(g.Trks[0].Trksegs[0].Trkpts, trkpt)
	}

	out, err := xml.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
