// Package feature decodes building footprint payloads served per tile.
package feature

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

var (
	ErrMalformedFeature = errors.New("feature: malformed feature")
	ErrUnsupportedType  = errors.New("feature: unsupported geometry type")
)

// LonLat is a GeoJSON position.
type LonLat [2]float64

// Footprint is one building record ready for extrusion.
type Footprint struct {
	ID        string
	Ring      []LonLat
	MinHeight float64
	MaxHeight float64
}

// Height is the extrusion depth: twice the building's vertical extent.
func (f Footprint) Height() float64 {
	return (f.MaxHeight - f.MinHeight) * 2
}

// Record is a decoded feature or the reason it could not be decoded.
type Record struct {
	Footprint Footprint
	Err       error
}

type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type rawFeature struct {
	ID         json.RawMessage `json:"id"`
	Geometry   *rawGeometry    `json:"geometry"`
	Properties rawProperties   `json:"properties"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type rawProperties struct {
	Code      json.RawMessage `json:"code"`
	MinHeight *float64        `json:"minheight"`
	MaxHeight *float64        `json:"maxheight"`
}

// Parse decodes a FeatureCollection. Only a payload that is not a
// collection at all is an error; individual features that fail to decode
// come back as records carrying Err so callers can skip and count them.
func Parse(data []byte) ([]Record, error) {
	var c rawCollection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("feature: decode collection: %w", err)
	}
	if c.Type != "" && c.Type != "FeatureCollection" {
		return nil, fmt.Errorf("feature: expected FeatureCollection, got %q", c.Type)
	}
	records := make([]Record, 0, len(c.Features))
	for i, raw := range c.Features {
		fp, err := decodeFeature(raw)
		if err != nil {
			err = fmt.Errorf("feature %d: %w", i, err)
		}
		records = append(records, Record{Footprint: fp, Err: err})
	}
	return records, nil
}

func decodeFeature(raw json.RawMessage) (Footprint, error) {
	var f rawFeature
	if err := json.Unmarshal(raw, &f); err != nil {
		return Footprint{}, fmt.Errorf("%w: %v", ErrMalformedFeature, err)
	}
	if f.Geometry == nil {
		return Footprint{}, fmt.Errorf("%w: missing geometry", ErrMalformedFeature)
	}
	ring, err := outerRing(*f.Geometry)
	if err != nil {
		return Footprint{}, err
	}

	fp := Footprint{Ring: ring}
	if f.Properties.MinHeight != nil {
		fp.MinHeight = *f.Properties.MinHeight
	}
	if f.Properties.MaxHeight != nil {
		fp.MaxHeight = *f.Properties.MaxHeight
	}
	fp.ID = scalarString(f.Properties.Code)
	if fp.ID == "" {
		fp.ID = scalarString(f.ID)
	}
	if fp.ID == "" {
		fp.ID = RingID(ring)
	}
	return fp, nil
}

// outerRing takes the first ring of a Polygon, or of the first part of a
// MultiPolygon.
func outerRing(g rawGeometry) ([]LonLat, error) {
	switch g.Type {
	case "Polygon":
		var rings [][]LonLat
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeature, err)
		}
		if len(rings) == 0 {
			return nil, fmt.Errorf("%w: polygon without rings", ErrMalformedFeature)
		}
		return rings[0], nil
	case "MultiPolygon":
		var parts [][][]LonLat
		if err := json.Unmarshal(g.Coordinates, &parts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeature, err)
		}
		if len(parts) == 0 || len(parts[0]) == 0 {
			return nil, fmt.Errorf("%w: multipolygon without rings", ErrMalformedFeature)
		}
		return parts[0][0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, g.Type)
	}
}

// scalarString renders a JSON string or number as an identifier.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// RingID derives a stable identifier from the outline coordinates, for
// features that carry no code or id.
func RingID(ring []LonLat) string {
	d := xxhash.New()
	var buf [8]byte
	for _, p := range ring {
		for _, c := range p {
			bits := math.Float64bits(c)
			for i := 0; i < 8; i++ {
				buf[i] = byte(bits >> (8 * i))
			}
			_, _ = d.Write(buf[:])
		}
	}
	return "ring:" + strconv.FormatUint(d.Sum64(), 16)
}
