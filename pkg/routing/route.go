// Package routing produces orthogonal wire paths between sheet positions and
// detects where junction markers belong on a schematic's wire set.
package routing

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

// Strategy selects how a two-point route bends.
type Strategy string

const (
	// Direct connects start and end with a single segment, orthogonal or not.
	Direct Strategy = "direct"
	// HorizontalFirst runs horizontally from the start, then vertically.
	HorizontalFirst Strategy = "horizontal_first"
	// VerticalFirst runs vertically from the start, then horizontally.
	VerticalFirst Strategy = "vertical_first"
	// Auto picks horizontal-first or vertical-first so the first leg is the
	// longer one, preferring horizontal-first on ties.
	Auto Strategy = "auto"
)

// Config carries routing and junction detection parameters.
type Config struct {
	Grid            float64 // pitch for SnapToGrid in mm, 0 disables snapping
	Tolerance       float64 // coincidence distance for junction detection
	DetectCrossings bool    // treat X crossings of wire interiors as junctions
}

// DefaultConfig returns the standard 1.27 mm grid with a 0.1 mm tolerance.
// Crossing detection is off; crossing wires are unconnected unless enabled.
func DefaultConfig() Config {
	return Config{Grid: 1.27, Tolerance: 0.1}
}

// RoutingError reports an unroutable request.
type RoutingError struct {
	Msg string
}

func (e *RoutingError) Error() string {
	return "routing: " + e.Msg
}

// Route computes a wire path from start to end under the given strategy.
// Bent routes have three points; the corner takes one coordinate from each
// endpoint so both segments stay axis-aligned. Collinear endpoints collapse
// to a two-point path. Routing a zero-length wire is an error.
//
// Endpoints are used as given. Callers that want grid-aligned wires snap
// their inputs with SnapToGrid before routing.
func Route(start, end sexp.Position, strategy Strategy, cfg Config) ([]sexp.Position, error) {
	if start == end {
		return nil, &RoutingError{Msg: fmt.Sprintf("start and end coincide at (%s, %s)",
			sexp.FormatFloat(start.X), sexp.FormatFloat(start.Y))}
	}

	switch strategy {
	case Direct:
		return []sexp.Position{start, end}, nil
	case HorizontalFirst, VerticalFirst:
	case Auto:
		if math.Abs(end.X-start.X) >= math.Abs(end.Y-start.Y) {
			strategy = HorizontalFirst
		} else {
			strategy = VerticalFirst
		}
	default:
		return nil, &RoutingError{Msg: fmt.Sprintf("unknown strategy %q", strategy)}
	}

	// Collinear endpoints leave no bend.
	if start.X == end.X || start.Y == end.Y {
		return []sexp.Position{start, end}, nil
	}

	var corner sexp.Position
	if strategy == HorizontalFirst {
		corner = sexp.Position{X: end.X, Y: start.Y}
	} else {
		corner = sexp.Position{X: start.X, Y: end.Y}
	}
	return []sexp.Position{start, corner, end}, nil
}

// SnapToGrid rounds a position to the nearest grid multiple. A grid of 0
// leaves the position unchanged.
func SnapToGrid(p sexp.Position, grid float64) sexp.Position {
	if grid <= 0 {
		return p
	}
	return sexp.Position{
		X: math.Round(p.X/grid) * grid,
		Y: math.Round(p.Y/grid) * grid,
	}
}

// PathLength sums the segment lengths of a path.
func PathLength(points []sexp.Position) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += math.Hypot(points[i].X-points[i-1].X, points[i].Y-points[i-1].Y)
	}
	return total
}
