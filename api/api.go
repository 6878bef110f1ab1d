// Package api exposes the track, course and live-tracking operations over
// HTTP.
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/raceline/track-server/course"
	"github.com/raceline/track-server/live"
	"github.com/raceline/track-server/track"
	"github.com/raceline/track-server/validation"
	"github.com/raceline/track-server/wind"
	"github.com/raceline/track-server/xmpp"
)

type server struct {
	cpuprofile bool
	svc        track.Service
	winds      *wind.Provider
	x          *xmpp.Notifier
	adapter    *live.Adapter
}

// InitServer wires the routes. The orchestrating service is an explicit
// value handed in by main, not a hidden global.
func InitServer(cpuprofile bool, svc track.Service, winds *wind.Provider, x *xmpp.Notifier, adapter *live.Adapter) *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	s := server{
		cpuprofile: cpuprofile,
		svc:        svc,
		winds:      winds,
		x:          x,
		adapter:    adapter,
	}

	router.HandleFunc("/track/-/healthz", s.healthz).Methods(http.MethodGet)

	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/track/import", s.importTrack).Methods(http.MethodPost)
	apiV1.HandleFunc("/track/export", s.exportTrack).Methods(http.MethodPost)
	apiV1.HandleFunc("/track/analyze", s.analyzeTrack).Methods(http.MethodPost)
	apiV1.HandleFunc("/course/geometry", s.courseGeometry).Methods(http.MethodPost)
	apiV1.HandleFunc("/course/legs", s.courseLegs).Methods(http.MethodPost)
	apiV1.HandleFunc("/course/validate", s.validateCourse).Methods(http.MethodPost)
	apiV1.HandleFunc("/course/autofix", s.autoFixCourse).Methods(http.MethodPost)
	apiV1.HandleFunc("/live/connect", s.liveConnect).Methods(http.MethodPost)
	apiV1.HandleFunc("/live/disconnect", s.liveDisconnect).Methods(http.MethodPost)
	apiV1.HandleFunc("/live/positions", s.livePositions).Methods(http.MethodGet)

	return router
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status string `json:"status"`
	}

	json.NewEncoder(w).Encode(health{Status: "Ok"})
}

func (s *server) importTrack(w http.ResponseWriter, req *http.Request) {
	filename := req.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "filename query parameter is required", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := s.svc.ImportFile(filename, data)
	if !res.Success && s.x != nil {
		s.x.Send("track import of '" + filename + "' failed")
	}

	json.NewEncoder(w).Encode(res)
}

func (s *server) exportTrack(w http.ResponseWriter, req *http.Request) {
	if s.cpuprofile {
		defer profile.Start().Stop()
	}

	var body struct {
		Track   track.Track         `json:"track"`
		Options track.ExportOptions `json:"options"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := s.svc.Export(body.Track, body.Options)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	switch body.Options.Format {
	case track.ExportCSV:
		w.Header().Set("Content-Type", "text/csv")
	case track.ExportBinary:
		w.Header().Set("Content-Type", "application/msgpack")
	default:
		w.Header().Set("Content-Type", "application/gpx+xml")
	}
	w.Write(out)
}

func (s *server) analyzeTrack(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Track         track.Track `json:"track"`
		WindDirection *float64    `json:"windDirection,omitempty"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stats := track.Analyze(body.Track)

	type analysis struct {
		Stats track.Stats      `json:"stats"`
		VMG   *track.VMGReport `json:"vmg,omitempty"`
	}
	res := analysis{Stats: stats}

	windDirection := body.WindDirection
	if windDirection == nil && s.winds != nil && len(body.Track.Points) > 0 {
		p := body.Track.Points[0]
		if d, speed, ok := s.winds.At(p.Lat, p.Lon); ok {
			windDirection = &d
			log.Infof("Using GRIB wind %.0f° %.1f kt for '%s'", d, speed, body.Track.Name)
		}
	}
	if windDirection != nil {
		vmg := track.VMG(body.Track, *windDirection)
		res.VMG = &vmg
	}

	json.NewEncoder(w).Encode(res)
}

func (s *server) courseGeometry(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Marks             []course.Mark `json:"marks"`
		IncludeCourseLine bool          `json:"includeCourseLine"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(course.BuildGeometry(body.Marks, body.IncludeCourseLine))
}

func (s *server) courseLegs(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Marks []course.Mark `json:"marks"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := course.Summarize(body.Marks)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	json.NewEncoder(w).Encode(summary)
}

func (s *server) validateCourse(w http.ResponseWriter, req *http.Request) {
	strict := req.URL.Query().Get("strict") == "true"

	var body struct {
		Marks []course.Mark `json:"marks"`
		Legs  []course.Leg  `json:"legs"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := validation.ValidateCourse(body.Marks, body.Legs, strict)
	log.Infof("Validated course: %d mark(s), %d error(s), %d warning(s)",
		len(body.Marks), len(res.Errors), len(res.Warnings))

	json.NewEncoder(w).Encode(res)
}

func (s *server) autoFixCourse(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Marks []course.Mark `json:"marks"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fixed, fixes := validation.AutoFixMarks(body.Marks)

	type fixResult struct {
		Marks []course.Mark `json:"marks"`
		Fixes []string      `json:"fixes"`
	}
	json.NewEncoder(w).Encode(fixResult{Marks: fixed, Fixes: fixes})
}

func (s *server) liveConnect(w http.ResponseWriter, req *http.Request) {
	var cfg live.Config
	if err := json.NewDecoder(req.Body).Decode(&cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.Endpoint == "" {
		http.Error(w, "live feed endpoint is required", http.StatusBadRequest)
		return
	}

	if err := s.adapter.Connect(cfg); err != nil {
		log.WithError(err).Error("Live connect failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) liveDisconnect(w http.ResponseWriter, req *http.Request) {
	s.adapter.Disconnect()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) livePositions(w http.ResponseWriter, req *http.Request) {
	type livePositions struct {
		Connected bool            `json:"connected"`
		Positions []live.Position `json:"positions"`
	}
	json.NewEncoder(w).Encode(livePositions{
		Connected: s.adapter.Connected(),
		Positions: s.adapter.Positions(),
	})
}
