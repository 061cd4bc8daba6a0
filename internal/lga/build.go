package lga

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/model"
)

// DefaultSimplifyTolerance is the ring decimation tolerance (degrees)
// applied when building the boundary artifact. Vertices closer than this to
// the previously kept vertex are dropped. Roughly 110 m; the residual
// boundary error this introduces is what the resolver's boundary-fallback
// tolerance absorbs.
const DefaultSimplifyTolerance = 0.001

// BuildOptions configures the shapefile-to-artifact conversion.
type BuildOptions struct {
	// NameField and StateField are the shapefile attribute columns holding
	// the LGA name and state name. Defaults match the ABS ASGS 2025 release.
	NameField  string
	StateField string
	// SimplifyTolerance is the decimation tolerance in degrees
	// (<= 0 selects the default).
	SimplifyTolerance float64
}

func (o *BuildOptions) defaults() {
	if o.NameField == "" {
		o.NameField = "LGA_NAME_2025"
	}
	if o.StateField == "" {
		o.StateField = "STATE_NAME_2021"
	}
	if o.SimplifyTolerance <= 0 {
		o.SimplifyTolerance = DefaultSimplifyTolerance
	}
}

// BuildArtifact reads an ABS LGA shapefile and writes the simplified
// GeoJSON boundary artifact the resolver loads at startup. Records with
// unusable geometry or attributes are skipped with a warning; producing an
// artifact with zero areas is an error.
func BuildArtifact(shpPath, outPath string, opts BuildOptions) error {
	opts.defaults()

	reader, err := shp.Open(shpPath)
	if err != nil {
		return eris.Wrapf(err, "lga: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, opts.NameField)
	stateIdx := fieldIndex(reader, opts.StateField)
	if nameIdx < 0 || stateIdx < 0 {
		return eris.Errorf("lga: shapefile missing required fields %s, %s", opts.NameField, opts.StateField)
	}

	log := zap.L().With(zap.String("component", "lga.build"))

	var features []*geojson.Feature
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		name := strings.TrimSpace(reader.Attribute(nameIdx))
		stateName := strings.TrimSpace(reader.Attribute(stateIdx))
		state, stateErr := model.ParseState(stateName)
		if name == "" || stateErr != nil {
			skipped++
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly, opts.SimplifyTolerance)
		if mp == nil {
			log.Warn("skipping record with unusable geometry", zap.String("lga", name))
			skipped++
			continue
		}

		features = append(features, &geojson.Feature{
			Geometry: mp,
			Properties: map[string]interface{}{
				propName:  name,
				propState: string(state),
			},
		})
	}

	if len(features) == 0 {
		return eris.New("lga: shapefile produced no usable areas")
	}

	fc := geojson.FeatureCollection{Features: features}
	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrap(err, "lga: encode artifact")
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return eris.Wrapf(err, "lga: write artifact %s", outPath)
	}

	log.Info("boundary artifact written",
		zap.String("path", outPath),
		zap.Int("areas", len(features)),
		zap.Int("skipped", skipped),
	)
	return nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon into a decimated
// geom.MultiPolygon. Each shapefile part becomes one polygon ring; parts
// whose ring collapses under decimation are dropped.
func polygonToMultiPolygon(p *shp.Polygon, tolerance float64) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		coords := make([]geom.Coord, 0, end-start)
		for j := start; j < end; j++ {
			coords = append(coords, geom.Coord{p.Points[j].X, p.Points[j].Y})
		}
		coords = decimateRing(coords, tolerance)
		if len(coords) < 4 {
			continue
		}

		ring := geom.NewLinearRingFlat(geom.XY, flatCoords(coords))
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("lga: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("lga: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// decimateRing drops vertices closer than tolerance to the last kept
// vertex, preserving the first vertex and ring closure.
func decimateRing(coords []geom.Coord, tolerance float64) []geom.Coord {
	if len(coords) <= 4 || tolerance <= 0 {
		return coords
	}

	kept := make([]geom.Coord, 0, len(coords))
	kept = append(kept, coords[0])
	for _, c := range coords[1 : len(coords)-1] {
		if xy.Distance(kept[len(kept)-1], c) >= tolerance {
			kept = append(kept, c)
		}
	}
	// Close the ring on the original first vertex.
	kept = append(kept, coords[len(coords)-1])
	return kept
}

// flatCoords converts coordinate pairs to go-geom flat form.
func flatCoords(coords []geom.Coord) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return flat
}
