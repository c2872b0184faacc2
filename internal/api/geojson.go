package api

import (
	"github.com/mr1hm/go-flood-watch/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Marker colors match the report's level palette.
var markerColors = map[models.WarningLevel]string{
	models.WarningLevelNormal:   "#22c55e",
	models.WarningLevelAdvisory: "#15803d",
	models.WarningLevelWatch:    "#eab308",
	models.WarningLevelWarning:  "#ef4444",
}

const unknownMarkerColor = "#6b7280"

func markerColor(l models.WarningLevel) string {
	if c, ok := markerColors[l]; ok {
		return c
	}
	return unknownMarkerColor
}

func toGeoJSON(observations []models.Observation) FeatureCollection {
	features := make([]Feature, 0, len(observations))

	for _, o := range observations {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{o.Longitude, o.Latitude},
			},
			Properties: map[string]any{
				"id":           o.ID,
				"name":         o.Name,
				"warningLevel": o.WarningLevel.String(),
				"markerColor":  markerColor(o.WarningLevel),
				"waterLevel":   o.WaterLevel,
				"weather":      o.Weather,
				"lastUpdated":  o.LastUpdated,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
