// Package wind supplies a wind direction and speed at a position, decoded
// from local GRIB2 forecast files. Analysis uses it to default the wind
// direction when the caller does not provide one.
package wind

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nilsmagnus/grib/griblib"
	log "github.com/sirupsen/logrus"
)

// Wind is one decoded forecast grid of 10 m U/V components.
type Wind struct {
	File string
	Lat0 float64
	Lon0 float64
	ΔLat float64
	ΔLon float64
	NLat uint32
	NLon uint32
	U    [][]float64
	V    [][]float64
}

// Provider holds the loaded grids. The most recently loaded file wins.
type Provider struct {
	mu    sync.RWMutex
	winds []*Wind
}

// Load decodes every GRIB file in dir. Files that fail to decode are
// logged and skipped; an empty directory yields a provider that reports
// no wind.
func Load(dir string) *Provider {
	p := &Provider{}
	if dir == "" {
		return p
	}

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.WithError(err).Errorf("Error walking file '%s'", path)
			return nil
		}
		if info.Mode().IsRegular() && !strings.HasSuffix(info.Name(), ".tmp") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Errorf("Error walking grib directory '%s'", dir)
		return p
	}
	sort.Strings(files)

	for _, file := range files {
		w, err := decode(file)
		if err != nil {
			log.WithError(err).Errorf("Error loading grib file '%s'", file)
			continue
		}
		log.Infof("Loaded wind grid '%s' (%dx%d)", w.File, w.NLat, w.NLon)
		p.winds = append(p.winds, w)
	}
	return p
}

func decode(file string) (*Wind, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	messages, err := griblib.ReadMessages(f)
	if err != nil {
		return nil, err
	}

	w := &Wind{File: filepath.Base(file)}
	for _, message := range messages {
		template := message.Section4.ProductDefinitionTemplate
		if message.Section0.Discipline != 0 || template.ParameterCategory != 2 ||
			template.FirstSurface.Type != 103 || template.FirstSurface.Value != 10 {
			continue
		}
		grid0, ok := message.Section3.Definition.(*griblib.Grid0)
		if !ok {
			continue
		}
		w.fromGrid(grid0)
		if template.ParameterNumber == 2 {
			w.U = buildGrid(w, message.Section7.Data)
		} else if template.ParameterNumber == 3 {
			w.V = buildGrid(w, message.Section7.Data)
		}
	}
	return w, nil
}

// fromGrid copies the grid geometry. The GRIB encoding scales degrees by
// 1e6; convert before dividing, or sub-degree origins and spacings
// truncate to zero.
func (w *Wind) fromGrid(grid0 *griblib.Grid0) {
	w.Lat0 = float64(grid0.La1) / 1e6
	w.Lon0 = float64(grid0.Lo1) / 1e6
	w.ΔLat = float64(grid0.Di) / 1e6
	w.ΔLon = float64(grid0.Dj) / 1e6
	w.NLat = grid0.Nj
	w.NLon = grid0.Ni
}

func buildGrid(w *Wind, data []float64) [][]float64 {
	grid := make([][]float64, w.NLat)
	p := 0
	for j := uint32(0); j < w.NLat; j++ {
		grid[j] = make([]float64, w.NLon)
		for i := uint32(0); i < w.NLon && p < len(data); i++ {
			grid[j][i] = data[p]
			p++
		}
	}
	return grid
}

// At returns the wind direction (degrees true, direction the wind blows
// from) and speed in knots at the position, from the newest grid that
// covers it. ok is false when no grid does.
func (p *Provider) At(lat, lon float64) (direction, speedKts float64, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for i := len(p.winds) - 1; i >= 0; i-- {
		if u, v, covered := p.winds[i].at(lat, lon); covered {
			d := math.Sqrt(u*u + v*v)
			if d == 0 {
				return 0, 0, true
			}
			direction = math.Atan2(u/d, v/d)*180/math.Pi + 180
			return direction, d * 1.9438444924406, true
		}
	}
	return 0, 0, false
}

func (w *Wind) at(lat, lon float64) (u, v float64, ok bool) {
	if w.U == nil || w.V == nil || w.ΔLat == 0 || w.ΔLon == 0 {
		return 0, 0, false
	}
	i := int(math.Abs((lat - w.Lat0) / w.ΔLat))
	j := int(floorMod(lon-w.Lon0, 360.0) / w.ΔLon)
	if i < 0 || i >= int(w.NLat) || j < 0 || j >= int(w.NLon) {
		return 0, 0, false
	}
	return w.U[i][j], w.V[i][j], true
}

func floorMod(a, n float64) float64 {
	return a - n*math.Floor(a/n)
}
