package model

import (
	"encoding/json"
	"testing"
)

func TestFeatureCollection_EmptyEncodesArray(t *testing.T) {
	b, err := json.Marshal(NewFeatureCollection(nil))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"type":"FeatureCollection","features":[]}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestFeature_WireShape(t *testing.T) {
	f := Feature{ID: 7, Geometry: json.RawMessage(`{"type":"Point","coordinates":[1,2]}`), Category: "Forest"}
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"Feature","id":7,"geometry":{"type":"Point","coordinates":[1,2]},"properties":{"id":7,"type":"Forest"}}`
	if string(b) != want {
		t.Fatalf("got %s\nwant %s", b, want)
	}

	var back Feature
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.ID != 7 || back.Category != "Forest" {
		t.Fatalf("decoded %+v", back)
	}
}

func TestNewAreaStats_Hectares(t *testing.T) {
	s := NewAreaStats("forest", 123456.5, 2)
	if s.TotalAreaHectares != s.TotalAreaSquareMeters/10000 {
		t.Fatalf("hectares=%v", s.TotalAreaHectares)
	}
	if s.FeatureCount != 2 || s.Type != "forest" {
		t.Fatalf("stats=%+v", s)
	}
}
