package sexp

import (
	"fmt"
	"strconv"
)

// Navigation helpers over Node trees.

// FindNode searches a list's children for the first sub-list whose tag (or a
// bare atom whose value) matches key.
// Example: FindNode(node, "at") finds (at 100 50) in a list.
func FindNode(n *Node, key string) (*Node, bool) {
	if n == nil || n.IsLeaf() {
		return nil, false
	}
	for _, child := range n.Children {
		if child.Kind == KindAtom && child.Value == key {
			return child, true
		}
		if child.Kind == KindList && child.Tag() == key {
			return child, true
		}
	}
	return nil, false
}

// FindAllNodes finds all child sub-lists with the given tag.
func FindAllNodes(n *Node, key string) []*Node {
	var results []*Node
	if n == nil || n.IsLeaf() {
		return results
	}
	for _, child := range n.Children {
		if child.Kind == KindList && child.Tag() == key {
			results = append(results, child)
		}
	}
	return results
}

// HasSymbol checks if a list directly contains the given bare atom.
// Used for flag atoms like "hide", "bold", "italic".
func HasSymbol(n *Node, symbol string) bool {
	if n == nil || n.IsLeaf() {
		return false
	}
	for _, child := range n.Children {
		if child.Kind == KindAtom && child.Value == symbol {
			return true
		}
	}
	return false
}

// Typed value extraction helpers. Index 0 is the tag, 1 the first value.

// GetString extracts the textual value at the given index, accepting both
// atoms and quoted strings.
func GetString(n *Node, index int) (string, error) {
	child := n.Get(index)
	if child == nil {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, n.Len())
	}
	if child.Kind == KindList {
		return "", fmt.Errorf("expected value at index %d, got list", index)
	}
	return child.Value, nil
}

// GetFloat extracts a float64 value at the given index.
func GetFloat(n *Node, index int) (float64, error) {
	str, err := GetString(n, index)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", str, err)
	}
	return val, nil
}

// GetInt extracts an int value at the given index.
func GetInt(n *Node, index int) (int, error) {
	str, err := GetString(n, index)
	if err != nil {
		return 0, err
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int %q: %w", str, err)
	}
	return val, nil
}

// Domain-specific extraction helpers.

// GetPosition extracts position and optional angle from an (at X Y [angle])
// node.
func GetPosition(n *Node) (PositionAngle, error) {
	if n == nil || n.IsLeaf() {
		return PositionAngle{}, fmt.Errorf("expected (at X Y [angle]) list")
	}
	x, err := GetFloat(n, 1)
	if err != nil {
		return PositionAngle{}, fmt.Errorf("failed to parse X coordinate: %w", err)
	}
	y, err := GetFloat(n, 2)
	if err != nil {
		return PositionAngle{}, fmt.Errorf("failed to parse Y coordinate: %w", err)
	}
	result := PositionAngle{Position: Position{X: x, Y: y}}
	if n.Len() > 3 {
		angle, err := GetFloat(n, 3)
		if err == nil {
			result.Angle = Angle(angle)
		}
	}
	return result, nil
}

// GetPositionXY extracts just X,Y coordinates from nodes like (xy X Y),
// (start X Y), (end X Y), (center X Y).
func GetPositionXY(n *Node) (Position, error) {
	if n == nil || n.IsLeaf() {
		return Position{}, fmt.Errorf("expected position list")
	}
	x, err := GetFloat(n, 1)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse X: %w", err)
	}
	y, err := GetFloat(n, 2)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse Y: %w", err)
	}
	return Position{X: x, Y: y}, nil
}

// GetSize extracts width and height from a (size W H) node.
func GetSize(n *Node) (Size, error) {
	if n == nil || n.IsLeaf() {
		return Size{}, fmt.Errorf("expected size list")
	}
	w, err := GetFloat(n, 1)
	if err != nil {
		return Size{}, fmt.Errorf("failed to parse width: %w", err)
	}
	h, err := GetFloat(n, 2)
	if err != nil {
		return Size{}, fmt.Errorf("failed to parse height: %w", err)
	}
	return Size{Width: w, Height: h}, nil
}

// GetUUID extracts a UUID from a (uuid "...") node.
func GetUUID(n *Node) (UUID, error) {
	if n == nil || n.IsLeaf() || n.Tag() != "uuid" {
		return "", fmt.Errorf("expected (uuid ...) list")
	}
	str, err := GetString(n, 1)
	if err != nil {
		return "", err
	}
	return UUID(str), nil
}

// GetColor extracts RGBA color from a (color R G B A) node.
func GetColor(n *Node) (Color, error) {
	color := Color{}
	if n == nil || n.IsLeaf() {
		return color, fmt.Errorf("expected (color ...) list")
	}
	var err error
	if color.R, err = GetFloat(n, 1); err != nil {
		return color, fmt.Errorf("failed to parse R: %w", err)
	}
	if color.G, err = GetFloat(n, 2); err != nil {
		return color, fmt.Errorf("failed to parse G: %w", err)
	}
	if color.B, err = GetFloat(n, 3); err != nil {
		return color, fmt.Errorf("failed to parse B: %w", err)
	}
	if a, err := GetFloat(n, 4); err == nil {
		color.A = a
	}
	return color, nil
}

// GetStroke extracts stroke properties from a (stroke ...) node.
// Format: (stroke (width W) (type solid|dash|dot) [(color R G B A)])
func GetStroke(n *Node) (Stroke, error) {
	stroke := Stroke{Type: "default"}
	if n == nil || n.IsLeaf() {
		return stroke, fmt.Errorf("expected (stroke ...) list")
	}
	if widthNode, ok := FindNode(n, "width"); ok {
		if width, err := GetFloat(widthNode, 1); err == nil {
			stroke.Width = width
		}
	}
	if typeNode, ok := FindNode(n, "type"); ok {
		if strokeType, err := GetString(typeNode, 1); err == nil {
			stroke.Type = strokeType
		}
	}
	if colorNode, ok := FindNode(n, "color"); ok {
		if color, err := GetColor(colorNode); err == nil {
			stroke.Color = color
		}
	}
	return stroke, nil
}

// GetFill extracts fill properties from a (fill ...) node.
func GetFill(n *Node) (Fill, error) {
	fill := Fill{Type: "none"}
	if n == nil || n.IsLeaf() {
		return fill, fmt.Errorf("expected (fill ...) list")
	}
	if typeNode, ok := FindNode(n, "type"); ok {
		if fillType, err := GetString(typeNode, 1); err == nil {
			fill.Type = fillType
		}
	}
	if colorNode, ok := FindNode(n, "color"); ok {
		if color, err := GetColor(colorNode); err == nil {
			fill.Color = color
		}
	}
	return fill, nil
}

// GetEffects extracts text effects from an (effects ...) node.
func GetEffects(n *Node) (Effects, error) {
	effects := Effects{}
	if n == nil || n.IsLeaf() {
		return effects, fmt.Errorf("expected (effects ...) list")
	}
	if fontNode, ok := FindNode(n, "font"); ok {
		effects.Font, _ = GetFont(fontNode)
	}
	if justifyNode, ok := FindNode(n, "justify"); ok {
		effects.Justify = GetJustify(justifyNode)
	}
	effects.Hide = HasSymbol(n, "hide")
	return effects, nil
}

// GetFont extracts font properties from a (font ...) node.
func GetFont(n *Node) (Font, error) {
	font := Font{}
	if n == nil || n.IsLeaf() {
		return font, fmt.Errorf("expected (font ...) list")
	}
	if sizeNode, ok := FindNode(n, "size"); ok {
		w, _ := GetFloat(sizeNode, 1)
		h, _ := GetFloat(sizeNode, 2)
		font.Size = Size{Width: w, Height: h}
	}
	if thicknessNode, ok := FindNode(n, "thickness"); ok {
		font.Thickness, _ = GetFloat(thicknessNode, 1)
	}
	font.Bold = HasSymbol(n, "bold")
	font.Italic = HasSymbol(n, "italic")
	if faceNode, ok := FindNode(n, "face"); ok {
		font.Face, _ = GetString(faceNode, 1)
	}
	return font, nil
}

// GetJustify extracts justification flags from a (justify ...) node.
func GetJustify(n *Node) Justify {
	justify := Justify{}
	if n == nil || n.IsLeaf() {
		return justify
	}
	for _, child := range n.Children[1:] {
		if child.Kind != KindAtom {
			continue
		}
		switch child.Value {
		case "left", "right":
			justify.Horizontal = child.Value
		case "top", "bottom":
			justify.Vertical = child.Value
		case "mirror":
			justify.Mirror = true
		}
	}
	return justify
}

// GetProperty extracts a property from a (property "Key" "Value" ...) node.
func GetProperty(n *Node) (Property, error) {
	prop := Property{}
	if n == nil || n.IsLeaf() {
		return prop, fmt.Errorf("expected (property ...) list")
	}
	key, err := GetString(n, 1)
	if err != nil {
		return prop, fmt.Errorf("failed to parse property key: %w", err)
	}
	prop.Key = key
	prop.Value, _ = GetString(n, 2)
	if atNode, ok := FindNode(n, "at"); ok {
		if pos, err := GetPosition(atNode); err == nil {
			prop.Position = pos
		}
	}
	if effectsNode, ok := FindNode(n, "effects"); ok {
		prop.Effects, _ = GetEffects(effectsNode)
	}
	return prop, nil
}
