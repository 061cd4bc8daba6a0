package lga

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/fairwork-tools/holidaycheck/internal/model"
)

// square builds a multi-polygon covering [minX,maxX]x[minY,maxY], with
// optional hole rings appended after the outer ring.
func square(minX, minY, maxX, maxY float64, holes ...[]float64) *geom.MultiPolygon {
	outer := []float64{
		minX, minY,
		maxX, minY,
		maxX, maxY,
		minX, maxY,
		minX, minY,
	}
	poly := geom.NewPolygon(geom.XY)
	if err := poly.Push(geom.NewLinearRingFlat(geom.XY, outer)); err != nil {
		panic(err)
	}
	for _, h := range holes {
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, h)); err != nil {
			panic(err)
		}
	}
	mp := geom.NewMultiPolygon(geom.XY)
	if err := mp.Push(poly); err != nil {
		panic(err)
	}
	return mp
}

func testIndex() *Index {
	return NewIndex([]Area{
		{Name: "Melbourne", State: model.VIC, Geometry: square(144.90, -37.85, 145.00, -37.75)},
		{Name: "Ballarat", State: model.VIC, Geometry: square(143.80, -37.60, 143.90, -37.50)},
	}, DefaultBoundaryTolerance)
}

func TestResolve_Direct(t *testing.T) {
	ix := testIndex()

	m := ix.Resolve(-37.80, 144.95)
	require.Equal(t, MatchDirect, m.Kind)
	require.NotNil(t, m.Area)
	assert.Equal(t, "Melbourne", m.Area.Name)
	assert.Zero(t, m.BoundaryDistance)
}

func TestResolve_None(t *testing.T) {
	ix := testIndex()

	// Deep ocean, far from both squares.
	m := ix.Resolve(-30.0, 150.0)
	assert.Equal(t, MatchNone, m.Kind)
	assert.Nil(t, m.Area)
}

func TestResolve_BoundaryFallback(t *testing.T) {
	ix := testIndex()

	// Just west of the Melbourne square: within tolerance of its edge.
	m := ix.Resolve(-37.80, 144.90-0.001)
	require.Equal(t, MatchBoundary, m.Kind)
	require.NotNil(t, m.Area)
	assert.Equal(t, "Melbourne", m.Area.Name)
	assert.InDelta(t, 0.001, m.BoundaryDistance, 1e-9)

	// Beyond tolerance: not attributed.
	m = ix.Resolve(-37.80, 144.90-0.01)
	assert.Equal(t, MatchNone, m.Kind)
}

func TestResolve_AmbiguousOverlap(t *testing.T) {
	// Two degenerate areas covering the same ground.
	ix := NewIndex([]Area{
		{Name: "A", State: model.VIC, Geometry: square(0, 0, 2, 2)},
		{Name: "B", State: model.VIC, Geometry: square(1, 1, 3, 3)},
	}, DefaultBoundaryTolerance)

	m := ix.Resolve(1.5, 1.5)
	assert.Equal(t, MatchAmbiguous, m.Kind)
	assert.Nil(t, m.Area, "an overlap must never be resolved by arbitrary pick")

	// Outside the overlap each area still matches directly.
	m = ix.Resolve(0.5, 0.5)
	require.Equal(t, MatchDirect, m.Kind)
	assert.Equal(t, "A", m.Area.Name)
}

func TestResolve_HoleExcluded(t *testing.T) {
	hole := []float64{
		0.4, 0.4,
		0.6, 0.4,
		0.6, 0.6,
		0.4, 0.6,
		0.4, 0.4,
	}
	ix := NewIndex([]Area{
		{Name: "Donut", State: model.VIC, Geometry: square(0, 0, 1, 1, hole)},
	}, DefaultBoundaryTolerance)

	m := ix.Resolve(0.5, 0.5)
	assert.Equal(t, MatchNone, m.Kind, "the hole interior is not part of the area")

	m = ix.Resolve(0.2, 0.2)
	require.Equal(t, MatchDirect, m.Kind)
	assert.Equal(t, "Donut", m.Area.Name)
}

func TestLoad_ArtifactRoundTrip(t *testing.T) {
	fc := geojson.FeatureCollection{
		Features: []*geojson.Feature{
			{
				Geometry: square(144.90, -37.85, 145.00, -37.75),
				Properties: map[string]interface{}{
					"lga_name": "Melbourne",
					"state":    "VIC",
				},
			},
			{
				// Missing name: skipped, not fatal.
				Geometry:   square(0, 0, 1, 1),
				Properties: map[string]interface{}{"state": "VIC"},
			},
		},
	}
	data, err := json.Marshal(&fc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "lga.geojson")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ix, err := Load(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())

	m := ix.Resolve(-37.80, 144.95)
	require.Equal(t, MatchDirect, m.Kind)
	assert.Equal(t, "Melbourne", m.Area.Name)
	assert.Equal(t, model.VIC, m.Area.State)
}

func TestLoad_MissingArtifactFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.geojson"), 0)
	require.Error(t, err)
}
