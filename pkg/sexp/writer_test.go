package sexp

import (
	"strings"
	"testing"
)

func TestRenderInlineLeafList(t *testing.T) {
	node := List(Atom("at"), Number(63.5), Number(87.63), Int(90))
	var w Writer
	got := w.Render(node, 0)
	if got != "(at 63.5 87.63 90)" {
		t.Errorf("Got %q", got)
	}
}

func TestRenderNested(t *testing.T) {
	node := List(Atom("junction"),
		List(Atom("at"), Number(95.25), Number(63.5)),
		List(Atom("diameter"), Number(0)),
		List(Atom("uuid"), String("abc")),
	)
	var w Writer
	got := w.Render(node, 1)
	want := "(junction\n\t\t(at 95.25 63.5)\n\t\t(diameter 0)\n\t\t(uuid \"abc\")\n\t)"
	if got != want {
		t.Errorf("Got:\n%s\nWant:\n%s", got, want)
	}
}

func TestRenderInlineTags(t *testing.T) {
	// pts stays on one line despite containing sub-lists.
	node := List(Atom("pts"),
		List(Atom("xy"), Number(0), Number(0)),
		List(Atom("xy"), Number(12.7), Number(0)),
	)
	var w Writer
	got := w.Render(node, 3)
	if strings.Contains(got, "\n") {
		t.Errorf("pts should render on one line, got:\n%s", got)
	}
	if got != "(pts (xy 0 0) (xy 12.7 0))" {
		t.Errorf("Got %q", got)
	}
}

func TestRenderMultilineData(t *testing.T) {
	node := List(Atom("data"), Atom("AAAA"), Atom("BBBB"))
	var w Writer
	got := w.Render(node, 2)
	want := "(data\n\t\t\tAAAA\n\t\t\tBBBB\n\t\t)"
	if got != want {
		t.Errorf("Got:\n%q\nWant:\n%q", got, want)
	}
}

func TestRenderLeadingLeaves(t *testing.T) {
	node := List(Atom("symbol"), String("Device:R"),
		List(Atom("in_bom"), Atom("yes")),
	)
	var w Writer
	got := w.Render(node, 0)
	if !strings.HasPrefix(got, "(symbol \"Device:R\"\n") {
		t.Errorf("Leading leaves should share the opening line, got:\n%s", got)
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{"", `""`},
		{`say "hi"`, `"say \"hi\""`},
		{"a\nb", `"a\nb"`},
		{`back\slash`, `"back\\slash"`},
	}
	for _, tt := range tests {
		if got := QuoteString(tt.in); got != tt.want {
			t.Errorf("QuoteString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100"},
		{1.27, "1.27"},
		{3.81, "3.81"},
		{0.0001, "0.0001"},
		{2.54000, "2.54"},
		{-0.0, "0"},
		{-3.81, "-3.81"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoundTripThroughWriter(t *testing.T) {
	src := `(wire (pts (xy 100 50) (xy 120 50)) (stroke (width 0) (type default)) (uuid "w1"))`
	nodes, err := ParseString(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	var w Writer
	rendered := w.Render(nodes[0], 0)
	again, err := ParseString(rendered)
	if err != nil {
		t.Fatalf("Re-parse failed: %v", err)
	}
	if nodes[0].String() != again[0].String() {
		t.Errorf("Structure changed through writer:\n%s\n%s", nodes[0], again[0])
	}
}
