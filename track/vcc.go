package track

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// The VCC logger dump format is a closed vendor contract, decoded
// strictly as documented; any mismatch is a parse error, never a guess.
//
// File header: magic 0xA5 0x5A, format version byte, reserved byte.
// Each record: length byte, payload, big-endian 15-bit additive checksum
// of the payload (2 bytes), trailer 0xC0 0xC3.
//
// Fix payload (28 bytes, big-endian):
//
//	 0: 8  timestamp, epoch millis (int64)
//	 8:12  latitude, 1e-7 degrees (int32)
//	12:16  longitude, 1e-7 degrees (int32)
//	16:18  speed, cm/s (uint16, 0xFFFF = unset)
//	18:20  heading, decidegrees (uint16, 0xFFFF = unset)
//	20:22  course over ground, decidegrees (uint16, 0xFFFF = unset)
//	22:24  altitude, decimeters (int16, 0x7FFF = unset)
//	24:26  true wind angle, decidegrees (int16, 0x7FFF = unset)
//	26:28  true wind speed, centi-knots (uint16, 0xFFFF = unset)
type vccParser struct{}

var (
	vccMagic   = []byte{0xA5, 0x5A}
	vccTrailer = []byte{0xC0, 0xC3}
)

const (
	vccFixPayloadLen = 28
	cmPerSecToKts    = 0.0194384
)

func (vccParser) Parse(data []byte) ImportResult {
	res := ImportResult{Format: FormatVCC}

	r := bytes.NewReader(data)
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		res.errorf("truncated VCC header: %v", err)
		return res
	}
	if !bytes.Equal(header[0:2], vccMagic) {
		res.errorf("invalid VCC magic: % x", header[0:2])
		return res
	}
	if header[2] != 1 {
		res.errorf("unsupported VCC format version %d", header[2])
		return res
	}

	t := Track{Name: "VCC track", Device: "VCC logger"}
	for i := 0; ; i++ {
		p, err := readVccRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			// Framing is lost after a bad record; keep what was read.
			res.errorf("record %d: %v", i, err)
			break
		}
		t.Points = append(t.Points, p)
	}

	if len(t.Points) > 0 {
		res.Tracks = append(res.Tracks, finishTrack(t))
		res.Success = true
	} else if len(res.Errors) == 0 {
		res.errorf("VCC file contains no fixes")
	}
	return res
}

func readVccRecord(r io.Reader) (Point, error) {
	var lenByte [1]byte
	if _, err := io.ReadFull(r, lenByte[:]); err != nil {
		return Point{}, err
	}
	payload := make([]byte, lenByte[0])
	if _, err := io.ReadFull(r, payload); err != nil {
		return Point{}, fmt.Errorf("truncated payload: %v", err)
	}
	var checksum [2]byte
	if _, err := io.ReadFull(r, checksum[:]); err != nil {
		return Point{}, fmt.Errorf("truncated checksum: %v", err)
	}
	var trailer [2]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return Point{}, fmt.Errorf("truncated trailer: %v", err)
	}
	if !bytes.Equal(trailer[:], vccTrailer) {
		return Point{}, fmt.Errorf("invalid trailer: % x", trailer[:])
	}

	want := int(binary.BigEndian.Uint16(checksum[:]))
	got := 0
	for _, b := range payload {
		got = (got + int(b)) & 0x7FFF
	}
	if want != got {
		return Point{}, fmt.Errorf("checksum mismatch: %04x, want %04x", got, want)
	}
	if len(payload) != vccFixPayloadLen {
		return Point{}, fmt.Errorf("unexpected payload length %d", len(payload))
	}

	lat := float64(int32(binary.BigEndian.Uint32(payload[8:12]))) / 1e7
	lon := float64(int32(binary.BigEndian.Uint32(payload[12:16]))) / 1e7
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("coordinates out of range: %f, %f", lat, lon)
	}

	p := Point{
		Lat:  lat,
		Lon:  lon,
		Time: int64(binary.BigEndian.Uint64(payload[0:8])),
	}
	if raw := binary.BigEndian.Uint16(payload[16:18]); raw != math.MaxUint16 {
		p.Speed = ptr(float64(raw) * cmPerSecToKts)
	}
	if raw := binary.BigEndian.Uint16(payload[18:20]); raw != math.MaxUint16 {
		p.Heading = ptr(float64(raw) / 10)
	}
	if raw := binary.BigEndian.Uint16(payload[20:22]); raw != math.MaxUint16 {
		p.COG = ptr(float64(raw) / 10)
	}
	if raw := int16(binary.BigEndian.Uint16(payload[22:24])); raw != math.MaxInt16 {
		p.Altitude = ptr(float64(raw) / 10)
	}
	if raw := int16(binary.BigEndian.Uint16(payload[24:26])); raw != math.MaxInt16 {
		p.TWA = ptr(float64(raw) / 10)
	}
	if raw := binary.BigEndian.Uint16(payload[26:28]); raw != math.MaxUint16 {
		p.TWS = ptr(float64(raw) / 100)
	}
	return p, nil
}

func ptr(v float64) *float64 { return &v }
