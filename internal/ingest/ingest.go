// Package ingest turns an uploaded GeoJSON FeatureCollection into insertable batches.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mohammed-shakir/landuse-api/internal/core/model"
	"github.com/mohammed-shakir/landuse-api/internal/store"
)

const DefaultBatchSize = 500

// ErrInvalidCollection marks input that is not a usable FeatureCollection.
var ErrInvalidCollection = errors.New("invalid GeoJSON format")

type feature struct {
	Geometry   json.RawMessage            `json:"geometry"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// Parse reads a FeatureCollection and splits its features, in input order,
// into batches of at most batchSize. Features are decoded one at a time, so
// only the encoded rows are held in memory. Features without geometry or
// without a non-null properties.type are counted in Batch.Input but produce
// no Row.
func Parse(r io.Reader, batchSize int) ([]model.Batch, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	batchSize = min(batchSize, store.MaxBatchRows)

	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, invalid(err)
	}

	var (
		typ         string
		sawFeatures bool
		batches     []model.Batch
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalid(err)
		}
		switch tok {
		case "type":
			var v json.RawMessage
			if err := dec.Decode(&v); err != nil {
				return nil, invalid(err)
			}
			typ = ""
			_ = json.Unmarshal(v, &typ)
		case "features":
			if batches, err = readFeatures(dec, batchSize); err != nil {
				return nil, err
			}
			sawFeatures = true
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, invalid(err)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, invalid(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the collection", ErrInvalidCollection)
	}

	if typ != model.TypeFeatureCollection {
		return nil, fmt.Errorf("%w: type must be %q", ErrInvalidCollection, model.TypeFeatureCollection)
	}
	if !sawFeatures {
		return nil, fmt.Errorf("%w: features must be an array", ErrInvalidCollection)
	}
	return batches, nil
}

func readFeatures(dec *json.Decoder, batchSize int) ([]model.Batch, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, invalid(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%w: features must be an array", ErrInvalidCollection)
	}

	var (
		batches []model.Batch
		b       model.Batch
	)
	for i := 0; dec.More(); i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrInvalidCollection, i, err)
		}
		row, ok, err := toRow(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrInvalidCollection, i, err)
		}
		b.Input++
		if ok {
			b.Rows = append(b.Rows, row)
		}
		if b.Input == batchSize {
			batches = append(batches, b)
			b = model.Batch{}
		}
	}
	if b.Input > 0 {
		batches = append(batches, b)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, invalid(err)
	}
	return batches, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidCollection, err)
}

func toRow(raw json.RawMessage) (model.Row, bool, error) {
	var f feature
	if err := json.Unmarshal(raw, &f); err != nil {
		// not an object
		return model.Row{}, false, nil
	}
	category, ok := categoryOf(f.Properties)
	if !ok || isNull(f.Geometry) {
		return model.Row{}, false, nil
	}

	var g geom.T
	if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
		return model.Row{}, false, fmt.Errorf("geometry: %w", err)
	}
	if g == nil {
		return model.Row{}, false, nil
	}
	g, err := withSRID(g, model.SRID)
	if err != nil {
		return model.Row{}, false, err
	}
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return model.Row{}, false, fmt.Errorf("encode geometry: %w", err)
	}
	return model.Row{Geometry: data, Category: category}, true, nil
}

// categoryOf returns the text stored for properties.type. Strings are
// unquoted; any other non-null value keeps its JSON text.
func categoryOf(props map[string]json.RawMessage) (string, bool) {
	raw, ok := props["type"]
	if !ok || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", false
	}
	return buf.String(), true
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func withSRID(g geom.T, srid int) (geom.T, error) {
	switch t := g.(type) {
	case *geom.Point:
		return t.SetSRID(srid), nil
	case *geom.LineString:
		return t.SetSRID(srid), nil
	case *geom.Polygon:
		return t.SetSRID(srid), nil
	case *geom.MultiPoint:
		return t.SetSRID(srid), nil
	case *geom.MultiLineString:
		return t.SetSRID(srid), nil
	case *geom.MultiPolygon:
		return t.SetSRID(srid), nil
	case *geom.GeometryCollection:
		return t.SetSRID(srid), nil
	default:
		return nil, fmt.Errorf("unsupported geometry %T", g)
	}
}
