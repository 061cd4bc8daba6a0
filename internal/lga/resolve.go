package lga

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// MatchKind describes how (or whether) a point was attributed to an area.
type MatchKind string

const (
	// MatchDirect: the point lies strictly inside exactly one polygon.
	MatchDirect MatchKind = "DIRECT"
	// MatchBoundary: the point missed every polygon but lies within the
	// boundary tolerance of the nearest one (simplification artifact).
	MatchBoundary MatchKind = "BOUNDARY_FALLBACK"
	// MatchAmbiguous: the point lies inside more than one polygon
	// (overlapping or degenerate boundaries). Never silently tie-broken.
	MatchAmbiguous MatchKind = "AMBIGUOUS"
	// MatchNone: no polygon contains the point and none is within tolerance.
	MatchNone MatchKind = "NONE"
)

// Match is the outcome of a spatial lookup.
type Match struct {
	Kind MatchKind
	Area *Area

	// BoundaryDistance is the planar distance (degrees) to the matched
	// area's boundary for MatchBoundary results; zero otherwise.
	BoundaryDistance float64
}

// Resolve attributes a WGS84 point to an area. Exactly one containing
// polygon wins directly; multiple containing polygons are ambiguous and
// reported as such, since an arbitrary pick would misattribute holidays.
// A point inside no polygon falls back to the nearest boundary within the
// configured tolerance.
func (ix *Index) Resolve(lat, lon float64) Match {
	p := geom.Coord{lon, lat}

	var hits []*Area
	for i := range ix.areas {
		if containsPoint(ix.areas[i].Geometry, p) {
			hits = append(hits, &ix.areas[i])
		}
	}

	switch len(hits) {
	case 1:
		return Match{Kind: MatchDirect, Area: hits[0]}
	case 0:
		return ix.nearestWithinTolerance(p)
	default:
		return Match{Kind: MatchAmbiguous}
	}
}

// nearestWithinTolerance finds the area whose boundary is closest to the
// point, accepting it only within the simplification tolerance.
func (ix *Index) nearestWithinTolerance(p geom.Coord) Match {
	best := math.Inf(1)
	var bestArea *Area

	for i := range ix.areas {
		d := boundaryDistance(ix.areas[i].Geometry, p)
		if d < best {
			best = d
			bestArea = &ix.areas[i]
		}
	}

	if bestArea != nil && best <= ix.tolerance {
		return Match{Kind: MatchBoundary, Area: bestArea, BoundaryDistance: best}
	}
	return Match{Kind: MatchNone}
}

// containsPoint reports whether any polygon of the multi-polygon contains
// the point: inside the outer ring and outside every hole.
func containsPoint(mp *geom.MultiPolygon, p geom.Coord) bool {
	layout := mp.Layout()
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(layout, p, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for r := 1; r < poly.NumLinearRings(); r++ {
			if xy.IsPointInRing(layout, p, poly.LinearRing(r).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// boundaryDistance returns the planar distance from the point to the
// nearest ring of the multi-polygon.
func boundaryDistance(mp *geom.MultiPolygon, p geom.Coord) float64 {
	layout := mp.Layout()
	best := math.Inf(1)
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		for r := 0; r < poly.NumLinearRings(); r++ {
			d := xy.DistanceFromPointToLineString(layout, p, poly.LinearRing(r).FlatCoords())
			if d < best {
				best = d
			}
		}
	}
	return best
}
