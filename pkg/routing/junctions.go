package routing

import (
	"math"
	"sort"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/schematic"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

// DetectJunctions finds every position on the wire set that needs a junction
// marker:
//   - three or more wire endpoints meeting within the tolerance
//   - a wire endpoint landing on the interior of another wire's segment
//   - with cfg.DetectCrossings, two segment interiors crossing
//
// Two wires that merely share an endpoint stay junction-free; that is an
// ordinary corner or continuation. Results are deduplicated within the
// tolerance and sorted by Y then X.
func DetectJunctions(wires []*schematic.Wire, cfg Config) []sexp.Position {
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = DefaultConfig().Tolerance
	}

	type endpoint struct {
		pos  sexp.Position
		wire int
	}
	var endpoints []endpoint
	for wi, w := range wires {
		if len(w.Points) == 0 {
			continue
		}
		endpoints = append(endpoints,
			endpoint{w.Points[0], wi},
			endpoint{w.Points[len(w.Points)-1], wi})
	}

	var found []sexp.Position

	// Endpoint clusters: three or more endpoints at one position.
	used := make([]bool, len(endpoints))
	for i := range endpoints {
		if used[i] {
			continue
		}
		cluster := []int{i}
		for j := i + 1; j < len(endpoints); j++ {
			if !used[j] && near(endpoints[i].pos, endpoints[j].pos, tol) {
				cluster = append(cluster, j)
			}
		}
		for _, idx := range cluster {
			used[idx] = true
		}
		if len(cluster) >= 3 {
			// Report the centroid so the marker does not favor whichever
			// endpoint happened to come first.
			var cx, cy float64
			for _, idx := range cluster {
				cx += endpoints[idx].pos.X
				cy += endpoints[idx].pos.Y
			}
			n := float64(len(cluster))
			found = append(found, sexp.Position{X: cx / n, Y: cy / n})
		}
	}

	// T-connections: an endpoint strictly inside another wire's segment.
	for _, ep := range endpoints {
		for wi, w := range wires {
			if wi == ep.wire {
				continue
			}
			for s := 1; s < len(w.Points); s++ {
				if onSegmentInterior(ep.pos, w.Points[s-1], w.Points[s], tol) {
					found = append(found, ep.pos)
				}
			}
		}
	}

	// X-crossings: segment interiors intersecting, only when asked for.
	if cfg.DetectCrossings {
		for i := 0; i < len(wires); i++ {
			for j := i + 1; j < len(wires); j++ {
				for a := 1; a < len(wires[i].Points); a++ {
					for b := 1; b < len(wires[j].Points); b++ {
						pt, ok := segmentCrossing(
							wires[i].Points[a-1], wires[i].Points[a],
							wires[j].Points[b-1], wires[j].Points[b], tol)
						if ok {
							found = append(found, pt)
						}
					}
				}
			}
		}
	}

	return dedupe(found, tol)
}

// MissingJunctions returns detected junction positions that have no marker in
// the schematic yet.
func MissingJunctions(sch *schematic.Schematic, cfg Config) []sexp.Position {
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = DefaultConfig().Tolerance
	}
	existing := sch.Junctions()
	var missing []sexp.Position
	for _, pos := range DetectJunctions(sch.Wires(), cfg) {
		have := false
		for _, j := range existing {
			if near(pos, j.Position, tol) {
				have = true
				break
			}
		}
		if !have {
			missing = append(missing, pos)
		}
	}
	return missing
}

func near(a, b sexp.Position, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// onSegmentInterior reports whether p lies on the segment a-b but not within
// tolerance of either endpoint.
func onSegmentInterior(p, a, b sexp.Position, tol float64) bool {
	if near(p, a, tol) || near(p, b, tol) {
		return false
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return false
	}
	// Perpendicular distance from p to the line through a-b.
	dist := math.Abs(dy*(p.X-a.X)-dx*(p.Y-a.Y)) / length
	if dist > tol {
		return false
	}
	// Projection must fall between the endpoints.
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (length * length)
	return t > 0 && t < 1
}

// segmentCrossing intersects two segments and reports the crossing point when
// it is interior to both.
func segmentCrossing(a1, a2, b1, b2 sexp.Position, tol float64) (sexp.Position, bool) {
	d1x, d1y := a2.X-a1.X, a2.Y-a1.Y
	d2x, d2y := b2.X-b1.X, b2.Y-b1.Y
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < 1e-12 {
		return sexp.Position{}, false // parallel
	}
	t := ((b1.X-a1.X)*d2y - (b1.Y-a1.Y)*d2x) / denom
	u := ((b1.X-a1.X)*d1y - (b1.Y-a1.Y)*d1x) / denom
	if t <= 0 || t >= 1 || u <= 0 || u >= 1 {
		return sexp.Position{}, false
	}
	pt := sexp.Position{X: a1.X + t*d1x, Y: a1.Y + t*d1y}
	if near(pt, a1, tol) || near(pt, a2, tol) || near(pt, b1, tol) || near(pt, b2, tol) {
		return sexp.Position{}, false
	}
	return pt, true
}

// dedupe collapses positions within tolerance of each other and sorts the
// result by Y then X for stable output.
func dedupe(positions []sexp.Position, tol float64) []sexp.Position {
	var result []sexp.Position
	for _, p := range positions {
		dup := false
		for _, q := range result {
			if near(p, q, tol) {
				dup = true
				break
			}
		}
		if !dup {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Y != result[j].Y {
			return result[i].Y < result[j].Y
		}
		return result[i].X < result[j].X
	})
	return result
}
