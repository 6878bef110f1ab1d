package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/raceline/track-server/course"
	"github.com/raceline/track-server/live"
	"github.com/raceline/track-server/track"
	"github.com/raceline/track-server/validation"
)

func testRouter() *mux.Router {
	return InitServer(false, track.NewService(), nil, nil, live.NewAdapter(nil))
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doJSON(t, testRouter(), http.MethodGet, "/track/-/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d; want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"Ok"`) {
		t.Errorf("healthz body = %q", rec.Body.String())
	}
}

func TestImportTrack(t *testing.T) {
	router := testRouter()

	csv := "timestamp,lat,lng,speed\n1700000000000,22.0,114.0,6.5\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/track/import?filename=race.csv", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d; want 200", rec.Code)
	}
	var res track.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding import response: %v", err)
	}
	if !res.Success || res.Format != track.FormatCSV || len(res.Tracks) != 1 {
		t.Errorf("import result = %+v", res)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/track/import", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("import without filename = %d; want 400", rec.Code)
	}
}

func TestExportTrack(t *testing.T) {
	body := map[string]interface{}{
		"track": track.Track{
			Name: "race",
			Points: []track.Point{
				{Lat: 22.0, Lon: 114.0, Time: 0},
				{Lat: 22.1, Lon: 114.0, Time: 1000},
			},
		},
		"options": track.ExportOptions{Format: track.ExportCSV},
	}

	rec := doJSON(t, testRouter(), http.MethodPost, "/api/v1/track/export", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("export content type = %q; want text/csv", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "timestamp,lat,lng") {
		t.Errorf("export body = %q", rec.Body.String())
	}
}

func TestAnalyzeTrack(t *testing.T) {
	speed := 6.0
	heading := 0.0
	wind := 0.0
	body := map[string]interface{}{
		"track": track.Track{
			Name: "race",
			Points: []track.Point{
				{Lat: 22.0, Lon: 114.0, Time: 0, Speed: &speed, Heading: &heading},
				{Lat: 22.1, Lon: 114.0, Time: 60_000, Speed: &speed, Heading: &heading},
			},
		},
		"windDirection": wind,
	}

	rec := doJSON(t, testRouter(), http.MethodPost, "/api/v1/track/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status = %d: %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Stats track.Stats      `json:"stats"`
		VMG   *track.VMGReport `json:"vmg"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding analyze response: %v", err)
	}
	if res.Stats.MaxSpeed != 6.0 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.VMG == nil || res.VMG.UpwindPoints != 2 {
		t.Errorf("vmg = %+v", res.VMG)
	}

	// Without a wind direction and without a wind provider there is no VMG.
	delete(body, "windDirection")
	rec = doJSON(t, testRouter(), http.MethodPost, "/api/v1/track/analyze", body)
	var res2 struct {
		Stats track.Stats      `json:"stats"`
		VMG   *track.VMGReport `json:"vmg"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res2); err != nil {
		t.Fatalf("decoding analyze response: %v", err)
	}
	if res2.VMG != nil {
		t.Errorf("vmg reported without wind information: %+v", res2.VMG)
	}
}

func TestCourseGeometry(t *testing.T) {
	body := map[string]interface{}{
		"marks": []course.Mark{
			{Name: "Start", Lat: 22.0, Lon: 114.0, Order: 1},
			{Name: "Windward", Lat: 22.1, Lon: 114.0, Order: 2},
		},
		"includeCourseLine": true,
	}

	rec := doJSON(t, testRouter(), http.MethodPost, "/api/v1/course/geometry", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("geometry status = %d: %s", rec.Code, rec.Body.String())
	}

	var fc course.FeatureCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decoding geometry response: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 3 {
		t.Errorf("geometry = %+v", fc)
	}
}

func TestCourseLegs(t *testing.T) {
	router := testRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/course/legs", map[string]interface{}{
		"marks": []course.Mark{{Name: "Lonely", Lat: 22.0, Lon: 114.0}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("legs with 1 mark = %d; want 422", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/course/legs", map[string]interface{}{
		"marks": []course.Mark{
			{Name: "Windward", Lat: 22.1, Lon: 114.0, Order: 2},
			{Name: "Leeward", Lat: 22.0, Lon: 114.0, Order: 1},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("legs status = %d: %s", rec.Code, rec.Body.String())
	}
	var summary course.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding legs response: %v", err)
	}
	if summary.Type != course.CourseWindwardLeeward || len(summary.Legs) != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestValidateCourse(t *testing.T) {
	router := testRouter()
	body := map[string]interface{}{
		"marks": []course.Mark{
			{Name: "Alpha", Lat: 22.00, Lon: 114.0, Type: course.MarkTypeMark, Rounding: course.RoundingPort},
			{Name: "Bravo", Lat: 22.05, Lon: 114.0, Type: course.MarkTypeMark, Rounding: course.RoundingPort},
		},
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/course/validate", body)
	var res validation.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding validate response: %v", err)
	}
	if !res.Valid || len(res.Warnings) == 0 {
		t.Errorf("lenient result = %+v", res)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/course/validate?strict=true", body)
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding strict response: %v", err)
	}
	if res.Valid || len(res.Errors) == 0 {
		t.Errorf("strict result = %+v", res)
	}
}

func TestAutoFixCourse(t *testing.T) {
	rec := doJSON(t, testRouter(), http.MethodPost, "/api/v1/course/autofix", map[string]interface{}{
		"marks": []course.Mark{{Name: "Windward Buoy", Lat: 22.1, Lon: 114.0}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("autofix status = %d: %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Marks []course.Mark `json:"marks"`
		Fixes []string      `json:"fixes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding autofix response: %v", err)
	}
	if len(res.Marks) != 1 || res.Marks[0].Type != course.MarkTypeMark || res.Marks[0].ID == "" {
		t.Errorf("fixed marks = %+v", res.Marks)
	}
	if len(res.Fixes) == 0 {
		t.Errorf("fix log is empty")
	}
}

func TestLivePositionsIdle(t *testing.T) {
	rec := doJSON(t, testRouter(), http.MethodGet, "/api/v1/live/positions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("positions status = %d", rec.Code)
	}

	var res struct {
		Connected bool            `json:"connected"`
		Positions []live.Position `json:"positions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding positions response: %v", err)
	}
	if res.Connected || len(res.Positions) != 0 {
		t.Errorf("idle adapter = %+v", res)
	}
}

func TestLiveConnectRejectsEmptyEndpoint(t *testing.T) {
	rec := doJSON(t, testRouter(), http.MethodPost, "/api/v1/live/connect", live.Config{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("connect without endpoint = %d; want 400", rec.Code)
	}
}

func TestLiveConnectDialFailure(t *testing.T) {
	// A server that is already gone guarantees a refused dial.
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	rec := doJSON(t, testRouter(), http.MethodPost, "/api/v1/live/connect", live.Config{Endpoint: endpoint})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("connect to dead feed = %d; want 502", rec.Code)
	}
}
