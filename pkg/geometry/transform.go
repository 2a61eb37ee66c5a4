// Package geometry maps symbol-space coordinates onto the schematic sheet.
// Symbol definitions use a Y-up coordinate system around the symbol origin;
// the sheet is Y-down with the origin at the top left. Placement applies, in
// order: Y negation, rotation, mirroring, translation to the anchor.
package geometry

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/library"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/schematic"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

// GeometryError reports an unsupported placement parameter.
type GeometryError struct {
	Msg string
}

func (e *GeometryError) Error() string {
	return "geometry: " + e.Msg
}

// Placement describes where and how a symbol instance sits on the sheet.
type Placement struct {
	Position sexp.Position
	Rotation sexp.Angle // 0, 90, 180 or 270 degrees
	Mirror   string     // "", "x", "y", "xy"
	Unit     int        // 1-based unit selector, 0 means all units
}

// PlacementOf builds a Placement from a placed symbol instance.
func PlacementOf(inst *schematic.SymbolInstance) Placement {
	return Placement{
		Position: inst.Position,
		Rotation: inst.Angle,
		Mirror:   inst.Mirror,
		Unit:     inst.Unit,
	}
}

// ToAbsolute transforms a point from symbol space into sheet space under the
// given placement. Rotations other than the four cardinal angles are
// rejected.
func ToAbsolute(local sexp.Position, p Placement) (sexp.Position, error) {
	// Flip into the sheet's Y-down frame first; rotation and mirroring
	// then operate on screen coordinates.
	x, y := local.X, -local.Y

	switch normalizeAngle(p.Rotation) {
	case 0:
	case 90:
		x, y = -y, x
	case 180:
		x, y = -x, -y
	case 270:
		x, y = y, -x
	default:
		return sexp.Position{}, &GeometryError{
			Msg: fmt.Sprintf("unsupported rotation %v, want 0/90/180/270", p.Rotation),
		}
	}

	switch p.Mirror {
	case "":
	case "x":
		y = -y
	case "y":
		x = -x
	case "xy":
		x, y = -x, -y
	default:
		return sexp.Position{}, &GeometryError{
			Msg: fmt.Sprintf("unsupported mirror %q, want \"\", \"x\", \"y\" or \"xy\"", p.Mirror),
		}
	}

	return sexp.Position{X: p.Position.X + x, Y: p.Position.Y + y}, nil
}

// normalizeAngle folds an angle into [0, 360).
func normalizeAngle(a sexp.Angle) int {
	deg := int(math.Round(float64(a)))
	if math.Abs(float64(a)-float64(deg)) > 1e-9 {
		return -1
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// AbsolutePin is a symbol pin with its connection point and orientation
// expressed in sheet coordinates.
type AbsolutePin struct {
	Number   string
	Name     string
	Type     string
	Position sexp.Position // connection point on the sheet
	Angle    sexp.Angle    // pin direction after rotation and mirroring
}

// AbsolutePins maps every pin of a resolved symbol into sheet space. The
// placement's unit selector is ignored here; multi-unit filtering happens at
// the call site that knows which pins belong to which unit.
func AbsolutePins(sym *library.ResolvedSymbol, p Placement) ([]AbsolutePin, error) {
	pins := make([]AbsolutePin, 0, len(sym.Pins))
	for _, pin := range sym.Pins {
		pos, err := ToAbsolute(pin.Position, p)
		if err != nil {
			return nil, err
		}
		pins = append(pins, AbsolutePin{
			Number:   pin.Number,
			Name:     pin.Name,
			Type:     pin.Type,
			Position: pos,
			Angle:    transformPinAngle(pin.Angle, p),
		})
	}
	return pins, nil
}

// transformPinAngle rotates and mirrors a pin's direction. Pin angles are
// given in the symbol's Y-up frame, so the Y flip reverses the sense of
// rotation before the placement rotation is added.
func transformPinAngle(a sexp.Angle, p Placement) sexp.Angle {
	deg := float64(normalizeAngle(a))
	// Y flip: 90 <-> 270, 0 and 180 unchanged.
	deg = math.Mod(360-deg, 360)
	deg = math.Mod(deg+float64(normalizeAngle(p.Rotation)), 360)
	switch p.Mirror {
	case "x":
		deg = math.Mod(360-deg, 360)
	case "y":
		deg = math.Mod(540-deg, 360)
	case "xy":
		deg = math.Mod(deg+180, 360)
	}
	return sexp.Angle(deg)
}

// Bounds computes the sheet-space bounding box of a placed symbol from its
// graphics and pins. The box is exact for axis-aligned primitives; arcs are
// covered by their three defining points.
func Bounds(sym *library.ResolvedSymbol, p Placement) (sexp.BoundingBox, error) {
	bbox := sexp.NewBoundingBox()
	expand := func(local sexp.Position) error {
		abs, err := ToAbsolute(local, p)
		if err != nil {
			return err
		}
		bbox.Expand(abs)
		return nil
	}

	for _, g := range sym.Graphics {
		var pts []sexp.Position
		switch g.Type {
		case "rectangle":
			pts = []sexp.Position{
				g.Start,
				{X: g.End.X, Y: g.Start.Y},
				g.End,
				{X: g.Start.X, Y: g.End.Y},
			}
		case "circle":
			pts = []sexp.Position{
				{X: g.Center.X - g.Radius, Y: g.Center.Y - g.Radius},
				{X: g.Center.X + g.Radius, Y: g.Center.Y + g.Radius},
			}
		case "arc":
			pts = []sexp.Position{g.Start, g.Mid, g.End}
		case "polyline":
			pts = g.Points
		case "text":
			pts = []sexp.Position{g.At.Position}
		}
		for _, pt := range pts {
			if err := expand(pt); err != nil {
				return bbox, err
			}
		}
	}

	for _, pin := range sym.Pins {
		if err := expand(pin.Position); err != nil {
			return bbox, err
		}
		if err := expand(pinTip(pin)); err != nil {
			return bbox, err
		}
	}
	return bbox, nil
}

// pinTip returns the far end of a pin's lead in symbol space.
func pinTip(pin schematic.Pin) sexp.Position {
	rad := float64(pin.Angle) * math.Pi / 180
	return sexp.Position{
		X: pin.Position.X + pin.Length*math.Cos(rad),
		Y: pin.Position.Y + pin.Length*math.Sin(rad),
	}
}
