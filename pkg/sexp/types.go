package sexp

// Shared value types used by the schematic, library, geometry, and routing
// packages. Schematic files store all lengths in millimeters and all angles
// in degrees; no unit conversion happens after parsing.

// Position represents a 2D coordinate in millimeters.
type Position struct {
	X float64
	Y float64
}

// Angle represents rotation in degrees.
type Angle float64

// PositionAngle combines position with rotation.
type PositionAngle struct {
	Position
	Angle Angle
}

// Size represents dimensions in millimeters.
type Size struct {
	Width  float64
	Height float64
}

// Color represents RGBA color with components in 0-255 range as stored in
// schematic files.
type Color struct {
	R, G, B, A float64
}

// Stroke defines line/outline appearance.
type Stroke struct {
	Width float64
	Type  string // solid, dash, dot, default, ...
	Color Color
}

// Fill defines area fill.
type Fill struct {
	Type  string // none, outline, background, color
	Color Color
}

// UUID is a unique element identifier.
type UUID string

// Effects represents text effects (font, justification, visibility).
type Effects struct {
	Font    Font
	Justify Justify
	Hide    bool
}

// Font represents font properties.
type Font struct {
	Face      string
	Size      Size
	Thickness float64
	Bold      bool
	Italic    bool
}

// Justify represents text justification.
type Justify struct {
	Horizontal string // left, center, right
	Vertical   string // top, center, bottom
	Mirror     bool
}

// Property represents a key-value property on symbols, sheets, and labels.
type Property struct {
	Key      string
	Value    string
	Position PositionAngle
	Effects  Effects
}

// BoundingBox represents a rectangular boundary in schematic space.
type BoundingBox struct {
	Min Position
	Max Position
}

// NewBoundingBox creates an empty bounding box.
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Position{X: 1e9, Y: 1e9},
		Max: Position{X: -1e9, Y: -1e9},
	}
}

// IsEmpty checks if the bounding box contains no points.
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand grows the bounding box to include a position.
func (bb *BoundingBox) Expand(pos Position) {
	if pos.X < bb.Min.X {
		bb.Min.X = pos.X
	}
	if pos.Y < bb.Min.Y {
		bb.Min.Y = pos.Y
	}
	if pos.X > bb.Max.X {
		bb.Max.X = pos.X
	}
	if pos.Y > bb.Max.Y {
		bb.Max.Y = pos.Y
	}
}

// ExpandBox grows the bounding box to include another box.
func (bb *BoundingBox) ExpandBox(other BoundingBox) {
	if !other.IsEmpty() {
		bb.Expand(other.Min)
		bb.Expand(other.Max)
	}
}

// Intersects checks if two bounding boxes overlap.
func (bb BoundingBox) Intersects(other BoundingBox) bool {
	return bb.Min.X <= other.Max.X && bb.Max.X >= other.Min.X &&
		bb.Min.Y <= other.Max.Y && bb.Max.Y >= other.Min.Y
}

// Contains checks if a position lies within the bounding box.
func (bb BoundingBox) Contains(pos Position) bool {
	return pos.X >= bb.Min.X && pos.X <= bb.Max.X &&
		pos.Y >= bb.Min.Y && pos.Y <= bb.Max.Y
}

// Width returns the horizontal extent of the bounding box.
func (bb BoundingBox) Width() float64 {
	return bb.Max.X - bb.Min.X
}

// Height returns the vertical extent of the bounding box.
func (bb BoundingBox) Height() float64 {
	return bb.Max.Y - bb.Min.Y
}

// Center returns the center point of the bounding box.
func (bb BoundingBox) Center() Position {
	return Position{
		X: (bb.Min.X + bb.Max.X) / 2.0,
		Y: (bb.Min.Y + bb.Max.Y) / 2.0,
	}
}
