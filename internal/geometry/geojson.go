// Package geometry parses the GeoJSON area-of-interest polygon that gates
// pipeline entry. Only the geometry envelope is interpreted here; the trend
// core itself never consumes coordinates, they bound the spatial extent of
// retrieval and travel with the exported output.
package geometry

import (
	"encoding/json"
	"fmt"
)

// GeometryError reports a missing or unparsable area-of-interest geometry.
// It is fatal and surfaced before the pipeline starts.
type GeometryError struct {
	Reason string
	Err    error
}

func (e *GeometryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("area of interest geometry: %s: %v", e.Reason, e.Err)
	}
	return "area of interest geometry: " + e.Reason
}

func (e *GeometryError) Unwrap() error { return e.Err }

// AOI is a normalised area of interest: one or more polygons, each a set of
// linear rings of [lon, lat] positions. A plain Polygon is held as a
// single-element multipolygon.
type AOI struct {
	Type     string
	Polygons [][][][2]float64
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type geoJSONFeature struct {
	Type     string           `json:"type"`
	Geometry *geoJSONGeometry `json:"geometry"`
}

type geoJSONDocument struct {
	Type        string           `json:"type"`
	Features    []geoJSONFeature `json:"features"`
	Geometry    *geoJSONGeometry `json:"geometry"`
	Coordinates json.RawMessage  `json:"coordinates"`
}

// ParseAreaOfInterest accepts a GeoJSON FeatureCollection (first feature
// used), a single Feature, or a bare geometry, and returns the contained
// Polygon or MultiPolygon. Anything else fails with GeometryError.
func ParseAreaOfInterest(data []byte) (*AOI, error) {
	if len(data) == 0 {
		return nil, &GeometryError{Reason: "empty document"}
	}
	var doc geoJSONDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &GeometryError{Reason: "unparsable document", Err: err}
	}

	geom := &geoJSONGeometry{Type: doc.Type, Coordinates: doc.Coordinates}
	switch {
	case len(doc.Features) > 0:
		geom = doc.Features[0].Geometry
	case doc.Geometry != nil:
		geom = doc.Geometry
	}
	if geom == nil || geom.Type == "" {
		return nil, &GeometryError{Reason: "no geometry present"}
	}

	switch geom.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
			return nil, &GeometryError{Reason: "bad polygon coordinates", Err: err}
		}
		if len(rings) == 0 || len(rings[0]) == 0 {
			return nil, &GeometryError{Reason: "polygon has no coordinates"}
		}
		return &AOI{Type: geom.Type, Polygons: [][][][2]float64{rings}}, nil
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &polys); err != nil {
			return nil, &GeometryError{Reason: "bad multipolygon coordinates", Err: err}
		}
		if len(polys) == 0 || len(polys[0]) == 0 || len(polys[0][0]) == 0 {
			return nil, &GeometryError{Reason: "multipolygon has no coordinates"}
		}
		return &AOI{Type: geom.Type, Polygons: polys}, nil
	default:
		return nil, &GeometryError{Reason: fmt.Sprintf("unsupported geometry type %q", geom.Type)}
	}
}

// Bounds returns the bounding box of the AOI as (minLon, minLat, maxLon,
// maxLat).
func (a *AOI) Bounds() (minLon, minLat, maxLon, maxLat float64) {
	first := true
	for _, poly := range a.Polygons {
		for _, ring := range poly {
			for _, pos := range ring {
				lon, lat := pos[0], pos[1]
				if first {
					minLon, maxLon = lon, lon
					minLat, maxLat = lat, lat
					first = false
					continue
				}
				if lon < minLon {
					minLon = lon
				}
				if lon > maxLon {
					maxLon = lon
				}
				if lat < minLat {
					minLat = lat
				}
				if lat > maxLat {
					maxLat = lat
				}
			}
		}
	}
	return minLon, minLat, maxLon, maxLat
}
