package sexp

import (
	"errors"
	"testing"
)

func TestParseSimpleList(t *testing.T) {
	nodes, err := ParseString(`(wire (pts (xy 100 50) (xy 120 50)))`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("Expected 1 top-level expression, got %d", len(nodes))
	}

	wire := nodes[0]
	if wire.Tag() != "wire" {
		t.Errorf("Expected tag 'wire', got %q", wire.Tag())
	}
	pts, ok := FindNode(wire, "pts")
	if !ok {
		t.Fatal("Expected pts node")
	}
	xys := FindAllNodes(pts, "xy")
	if len(xys) != 2 {
		t.Fatalf("Expected 2 xy nodes, got %d", len(xys))
	}
	pos, err := GetPositionXY(xys[1])
	if err != nil {
		t.Fatalf("GetPositionXY failed: %v", err)
	}
	if pos.X != 120 || pos.Y != 50 {
		t.Errorf("Expected (120, 50), got (%v, %v)", pos.X, pos.Y)
	}
}

func TestParseQuotedStrings(t *testing.T) {
	nodes, err := ParseString(`(property "Value" "10k \"precision\"" (at 0 0 0))`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	val, err := GetString(nodes[0], 2)
	if err != nil {
		t.Fatalf("GetString failed: %v", err)
	}
	if val != `10k "precision"` {
		t.Errorf("Escaped quote not unescaped, got %q", val)
	}
}

func TestParseEscapes(t *testing.T) {
	nodes, err := ParseString(`(text "line1\nline2\ttabbed")`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	val, _ := GetString(nodes[0], 1)
	if val != "line1\nline2\ttabbed" {
		t.Errorf("Escapes not decoded, got %q", val)
	}
}

func TestParseComments(t *testing.T) {
	src := "# header comment\n(junction (at 10 20)) # trailing\n(junction (at 30 40))\n"
	nodes, err := ParseString(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 expressions, got %d", len(nodes))
	}
}

func TestParseSpans(t *testing.T) {
	src := `(wire (pts (xy 0 0)))  (junction (at 5 5))`
	nodes, err := ParseString(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for i, n := range nodes {
		if !n.Span.Valid() {
			t.Fatalf("Expression %d has invalid span", i)
		}
		text := src[n.Span.Start:n.Span.End]
		if text[0] != '(' || text[len(text)-1] != ')' {
			t.Errorf("Span of expression %d covers %q, not a full list", i, text)
		}
	}
	// Trivia of the second expression carries the separating whitespace.
	if nodes[1].Trivia != "  " {
		t.Errorf("Expected two-space trivia, got %q", nodes[1].Trivia)
	}
}

func TestParseUnbalanced(t *testing.T) {
	_, err := ParseString(`(wire (pts (xy 0 0))`)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestParseStrayCloseParen(t *testing.T) {
	_, err := ParseString(`(wire))`)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestParseUnterminatedString(t *testing.T) {
	_, err := ParseString(`(property "Value`)
	if err == nil {
		t.Fatal("Expected error for unterminated string")
	}
}

func TestGetPosition(t *testing.T) {
	nodes, err := ParseString(`(at 63.5 87.63 90)`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	pos, err := GetPosition(nodes[0])
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if pos.X != 63.5 || pos.Y != 87.63 || pos.Angle != 90 {
		t.Errorf("Got (%v, %v, %v)", pos.X, pos.Y, pos.Angle)
	}
}

func TestGetPositionNoAngle(t *testing.T) {
	nodes, _ := ParseString(`(at 10 20)`)
	pos, err := GetPosition(nodes[0])
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if pos.Angle != 0 {
		t.Errorf("Expected angle 0, got %v", pos.Angle)
	}
}

func TestHasSymbol(t *testing.T) {
	nodes, _ := ParseString(`(pin_numbers hide)`)
	if !HasSymbol(nodes[0], "hide") {
		t.Error("Expected hide flag")
	}
	if HasSymbol(nodes[0], "show") {
		t.Error("Unexpected show flag")
	}
}
