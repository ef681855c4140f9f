// Package model defines core domain types shared across the service.
package model

import "encoding/json"

const (
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"

	// SRID of every stored geometry (WGS84).
	SRID = 4326

	SquareMetersPerHectare = 10000.0
)

// Feature is one land-use row as served to clients.
type Feature struct {
	ID       int64
	Geometry json.RawMessage
	Category string
}

type featureProperties struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type featureWire struct {
	Type       string            `json:"type"`
	ID         int64             `json:"id"`
	Geometry   json.RawMessage   `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

func (f Feature) MarshalJSON() ([]byte, error) {
	geom := f.Geometry
	if len(geom) == 0 {
		geom = json.RawMessage("null")
	}
	return json.Marshal(featureWire{
		Type:       TypeFeature,
		ID:         f.ID,
		Geometry:   geom,
		Properties: featureProperties{ID: f.ID, Type: f.Category},
	})
}

func (f *Feature) UnmarshalJSON(b []byte) error {
	var w featureWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*f = Feature{ID: w.ID, Geometry: w.Geometry, Category: w.Properties.Type}
	return nil
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features; a nil slice is encoded as [].
func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: TypeFeatureCollection, Features: features}
}

type Page struct {
	Limit  int
	Offset int
}

type AreaStats struct {
	Type                  string  `json:"type"`
	TotalAreaSquareMeters float64 `json:"totalAreaSquareMeters"`
	TotalAreaHectares     float64 `json:"totalAreaHectares"`
	FeatureCount          int64   `json:"featureCount"`
}

// NewAreaStats derives hectares from the square metre total.
func NewAreaStats(category string, squareMeters float64, count int64) AreaStats {
	return AreaStats{
		Type:                  category,
		TotalAreaSquareMeters: squareMeters,
		TotalAreaHectares:     squareMeters / SquareMetersPerHectare,
		FeatureCount:          count,
	}
}

// ReplaceResult summarizes a full table replacement.
type ReplaceResult struct {
	Scanned  int `json:"scanned"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Batches  int `json:"batches"`
}

// Row is one insertable feature: EWKB geometry (SRID 4326) plus category.
type Row struct {
	Geometry []byte
	Category string
}

// Batch is a contiguous slice of the uploaded features. Input counts every
// feature scanned, Rows only those that carried both geometry and category.
type Batch struct {
	Input int
	Rows  []Row
}
