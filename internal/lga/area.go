// Package lga resolves coordinates to Australian Local Government Areas by
// point-in-polygon lookup over a simplified boundary artifact, with a
// bounded-distance fallback near polygon edges.
package lga

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/model"
)

// DefaultBoundaryTolerance is the maximum planar distance (degrees) a point
// may miss every polygon by and still be attributed to the nearest area.
// It covers the boundary error introduced by the 0.001-degree artifact
// simplification, with headroom; roughly 160 m at Australian latitudes.
const DefaultBoundaryTolerance = 0.0015

// Artifact property keys written by the boundary builder.
const (
	propName  = "lga_name"
	propState = "state"
)

// Area is one Local Government Area: a canonical name, its state, and a
// simplified multi-polygon boundary in WGS84.
type Area struct {
	Name     string
	State    model.State
	Geometry *geom.MultiPolygon
}

// Index is the immutable set of areas loaded once at process start. It is
// read-only after construction and safe for concurrent use without locking.
type Index struct {
	areas     []Area
	tolerance float64
}

// NewIndex builds an index over the given areas with the boundary-fallback
// tolerance in degrees (<= 0 selects the default).
func NewIndex(areas []Area, tolerance float64) *Index {
	if tolerance <= 0 {
		tolerance = DefaultBoundaryTolerance
	}
	return &Index{areas: areas, tolerance: tolerance}
}

// Len returns the number of loaded areas.
func (ix *Index) Len() int { return len(ix.areas) }

// Load reads the simplified GeoJSON boundary artifact produced by
// `holidaycheck boundaries build`. A missing or malformed artifact is fatal:
// resolution cannot run without reference data.
func Load(path string, tolerance float64) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lga: read boundary artifact %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "lga: decode boundary artifact")
	}

	areas := make([]Area, 0, len(fc.Features))
	var skipped int
	for _, f := range fc.Features {
		area, ok := featureToArea(f)
		if !ok {
			skipped++
			continue
		}
		areas = append(areas, area)
	}
	if len(areas) == 0 {
		return nil, eris.Errorf("lga: artifact %s contains no usable areas", path)
	}
	if skipped > 0 {
		zap.L().Warn("lga: skipped unusable artifact features", zap.Int("skipped", skipped))
	}

	zap.L().Info("lga: boundary artifact loaded",
		zap.String("path", path),
		zap.Int("areas", len(areas)),
	)
	return NewIndex(areas, tolerance), nil
}

// featureToArea extracts an Area from a GeoJSON feature, accepting Polygon
// and MultiPolygon geometries.
func featureToArea(f *geojson.Feature) (Area, bool) {
	name, _ := f.Properties[propName].(string)
	stateRaw, _ := f.Properties[propState].(string)
	if name == "" || stateRaw == "" {
		return Area{}, false
	}
	state, err := model.ParseState(stateRaw)
	if err != nil {
		return Area{}, false
	}

	var mp *geom.MultiPolygon
	switch g := f.Geometry.(type) {
	case *geom.MultiPolygon:
		mp = g
	case *geom.Polygon:
		mp = geom.NewMultiPolygon(g.Layout())
		if err := mp.Push(g); err != nil {
			return Area{}, false
		}
	default:
		return Area{}, false
	}
	if mp.NumPolygons() == 0 {
		return Area{}, false
	}

	return Area{Name: name, State: state, Geometry: mp}, true
}
