package course

// FeatureCollection is the point/line interchange structure handed to map
// renderers. Coordinate order inside geometries is [longitude, latitude]
// even though marks store latitude first: the inversion is a published
// external contract, not an internal choice.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"` // [lon,lat] or [][lon,lat]
}

// BuildGeometry emits one Point feature per mark carrying the mark's
// attributes as properties, plus, when includeCourseLine is set, one
// LineString threading the marks in array order.
func BuildGeometry(marks []Mark, includeCourseLine bool) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection"}

	for _, m := range marks {
		props := map[string]interface{}{
			"id":    m.ID,
			"name":  m.Name,
			"type":  m.Type.String(),
			"order": m.Order,
		}
		if m.Rounding != RoundingUnset {
			props["rounding"] = m.Rounding.String()
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{m.Lon, m.Lat},
			},
			Properties: props,
		})
	}

	if includeCourseLine && len(marks) >= 2 {
		line := make([][]float64, len(marks))
		for i, m := range marks {
			line[i] = []float64{m.Lon, m.Lat}
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "LineString",
				Coordinates: line,
			},
			Properties: map[string]interface{}{
				"name": "course-line",
			},
		})
	}

	return fc
}
