package schematic

import (
	"errors"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

const sampleSchematic = `(kicad_sch
	(version 20231120)
	(generator "test")
	(generator_version "8.0")
	(uuid "00000000-0000-0000-0000-000000000000")
	(paper "A4")
	(title_block
		(title "Voltage Divider")
		(date "2024-03-01")
		(rev "B")
		(company "ACME")
		(comment 1 "first comment")
	)
	(lib_symbols
		(symbol "Device:R"
			(pin_numbers hide)
			(in_bom yes)
			(on_board yes)
			(property "Reference" "R" (at 2.032 0 90) (effects (font (size 1.27 1.27))))
			(property "Value" "R" (at 0 0 90) (effects (font (size 1.27 1.27))))
			(symbol "R_0_1"
				(rectangle (start -1.016 -2.54) (end 1.016 2.54)
					(stroke (width 0.254) (type default))
					(fill (type none))
				)
			)
			(symbol "R_1_1"
				(pin passive line (at 0 3.81 270) (length 1.27)
					(name "~" (effects (font (size 1.27 1.27))))
					(number "1" (effects (font (size 1.27 1.27))))
				)
				(pin passive line (at 0 -3.81 90) (length 1.27)
					(name "~" (effects (font (size 1.27 1.27))))
					(number "2" (effects (font (size 1.27 1.27))))
				)
			)
		)
	)
	(wire
		(pts (xy 100 50) (xy 120 50))
		(stroke (width 0) (type default))
		(uuid "wire-1")
	)
	(junction (at 120 50) (diameter 0) (color 0 0 0 0) (uuid "junction-1"))
	(label "NET1" (at 110 48 0) (effects (font (size 1.27 1.27))) (uuid "label-1"))
	(global_label "VCC" (shape input) (at 100 40 0) (effects (font (size 1.27 1.27))) (uuid "glabel-1"))
	(symbol
		(lib_id "Device:R")
		(at 100 60 0)
		(unit 1)
		(in_bom yes)
		(on_board yes)
		(uuid "sym-1")
		(property "Reference" "R1" (at 102 59 0) (effects (font (size 1.27 1.27))))
		(property "Value" "10k" (at 102 61 0) (effects (font (size 1.27 1.27))))
		(pin "1" (uuid "pin-1"))
		(pin "2" (uuid "pin-2"))
	)
	(frobnicator (at 10 10) (mystery yes))
)
`

func TestParseHeader(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if sch.Version != 20231120 {
		t.Errorf("Version = %d", sch.Version)
	}
	if sch.Generator != "test" || sch.GeneratorVer != "8.0" {
		t.Errorf("Generator = %s v%s", sch.Generator, sch.GeneratorVer)
	}
	if sch.Paper != "A4" {
		t.Errorf("Paper = %s", sch.Paper)
	}
	if sch.TitleBlock.Title != "Voltage Divider" || sch.TitleBlock.Revision != "B" {
		t.Errorf("TitleBlock = %+v", sch.TitleBlock)
	}
	if sch.TitleBlock.Comments[0] != "first comment" {
		t.Errorf("Comment 1 = %q", sch.TitleBlock.Comments[0])
	}
}

func TestParseWrongRoot(t *testing.T) {
	_, err := ParseBytes([]byte(`(kicad_pcb (version 1))`))
	var perr *sexp.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestParseElements(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wires := sch.Wires()
	if len(wires) != 1 {
		t.Fatalf("Expected 1 wire, got %d", len(wires))
	}
	if len(wires[0].Points) != 2 || wires[0].Points[1] != (Position{X: 120, Y: 50}) {
		t.Errorf("Wire points = %+v", wires[0].Points)
	}

	if len(sch.Junctions()) != 1 {
		t.Errorf("Expected 1 junction")
	}
	if len(sch.Labels(LocalLabel)) != 1 || len(sch.Labels(GlobalLabel)) != 1 {
		t.Errorf("Label counts wrong")
	}
	if sch.Labels(GlobalLabel)[0].Shape != "input" {
		t.Errorf("Global label shape = %q", sch.Labels(GlobalLabel)[0].Shape)
	}

	sym := sch.GetSymbol("R1")
	if sym == nil {
		t.Fatal("R1 not found")
	}
	if sym.LibID != "Device:R" || sym.Value() != "10k" {
		t.Errorf("R1 = %s %s", sym.LibID, sym.Value())
	}
	if len(sym.Pins) != 2 {
		t.Errorf("R1 pin refs = %d", len(sym.Pins))
	}
}

func TestParseLibSymbols(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	def := sch.GetLibSymbol("Device:R")
	if def == nil {
		t.Fatal("Device:R not found")
	}
	if def.PinNumbers {
		t.Error("pin_numbers hide not honored")
	}
	if len(def.Pins) != 2 {
		t.Fatalf("Expected 2 pins, got %d", len(def.Pins))
	}
	pin := def.Pins[0]
	if pin.Number != "1" || pin.Position != (Position{X: 0, Y: 3.81}) || pin.Angle != 270 {
		t.Errorf("Pin 1 = %+v", pin)
	}
	if len(def.Graphics) != 1 || def.Graphics[0].Type != "rectangle" {
		t.Errorf("Graphics = %+v", def.Graphics)
	}
	if len(def.Units) != 2 {
		t.Errorf("Units = %d", len(def.Units))
	}
}

func TestRoundTripByteIdentity(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	out := sch.Format()
	if string(out) != sampleSchematic {
		t.Errorf("Round trip not byte identical.\nGot:\n%s", out)
	}
}

func TestRoundTripPreservesOddFormatting(t *testing.T) {
	// Unusual spacing, comments, and scientific notation must survive as long
	// as the elements are untouched.
	src := "(kicad_sch (version 20231120)\n" +
		"  # a comment between elements\n" +
		"  (wire    (pts (xy 1.0000 2)   (xy 3 4))\n" +
		"     (stroke (width 0) (type default)) (uuid \"w\"))\n" +
		"  (junction (at 1e1 2.50) (diameter 0) (color 0 0 0 0) (uuid \"j\"))\n" +
		")\n"
	sch, err := ParseBytes([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := string(sch.Format()); got != src {
		t.Errorf("Odd formatting not preserved.\nGot:\n%s\nWant:\n%s", got, src)
	}
}

func TestUnknownElementPreserved(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	found := false
	for _, el := range sch.Elements {
		if o, ok := el.(*Opaque); ok && o.Tag() == "frobnicator" {
			found = true
		}
	}
	if !found {
		t.Fatal("Unknown element not carried as opaque")
	}
	if !strings.Contains(string(sch.Format()), "(frobnicator (at 10 10) (mystery yes))") {
		t.Error("Unknown element text not preserved")
	}
}

func TestSelectiveRerender(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	label := sch.Labels(LocalLabel)[0]
	label.Text = "NET_RENAMED"
	label.MarkDirty()
	out := string(sch.Format())

	if !strings.Contains(out, `"NET_RENAMED"`) {
		t.Error("Edited label not re-rendered")
	}
	if strings.Contains(out, `"NET1"`) {
		t.Error("Old label text still present")
	}
	// Untouched elements keep their original bytes.
	wireText := "(wire\n\t\t(pts (xy 100 50) (xy 120 50))\n\t\t(stroke (width 0) (type default))\n\t\t(uuid \"wire-1\")\n\t)"
	if !strings.Contains(out, wireText) {
		t.Error("Untouched wire was rewritten")
	}
	if !strings.Contains(out, "(frobnicator (at 10 10) (mystery yes))") {
		t.Error("Untouched opaque element was rewritten")
	}
}

func TestEditedDocumentReparses(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sch.AddWire([]Position{{X: 120, Y: 50}, {X: 120, Y: 70}})
	sch.AddJunction(Position{X: 120, Y: 50})

	again, err := ParseBytes(sch.Format())
	if err != nil {
		t.Fatalf("Re-parse of edited document failed: %v", err)
	}
	if len(again.Wires()) != 2 {
		t.Errorf("Expected 2 wires after edit, got %d", len(again.Wires()))
	}
	// The junction at (120, 50) already existed; no duplicate.
	if len(again.Junctions()) != 1 {
		t.Errorf("Expected 1 junction, got %d", len(again.Junctions()))
	}
}

func TestNewDocument(t *testing.T) {
	sch := New()
	sch.AddWire([]Position{{X: 10, Y: 10}, {X: 20, Y: 10}})
	sch.AddLabel(LocalLabel, "SIG", Position{X: 15, Y: 10})

	out := sch.Format()
	again, err := ParseBytes(out)
	if err != nil {
		t.Fatalf("New document does not re-parse: %v\n%s", err, out)
	}
	if again.Version != 20231120 || again.Paper != "A4" {
		t.Errorf("Header lost: version %d paper %s", again.Version, again.Paper)
	}
	if len(again.Wires()) != 1 || len(again.Labels()) != 1 {
		t.Error("Elements lost through format")
	}
}

func TestSetPaperRewritesOnlyPaper(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sch.SetPaper("A3")
	out := string(sch.Format())
	if !strings.Contains(out, `(paper "A3")`) {
		t.Error("Paper not updated")
	}
	if !strings.Contains(out, "(title_block\n\t\t(title \"Voltage Divider\")") {
		t.Error("Title block bytes disturbed by paper edit")
	}
}

func TestImageDataRewrap(t *testing.T) {
	payload := strings.Repeat("QUJD", 50) // 200 chars of fake base64
	img := &Image{Position: Position{X: 50, Y: 50}, Scale: 1, UUID: "img-1", Data: payload}

	sch := New()
	sch.AddElement(img)
	out := string(sch.Format())

	for _, line := range strings.Split(out, "\n") {
		line = strings.Trim(line, "\t \"")
		if strings.HasPrefix(line, "QUJD") && len(line) > sexp.Base64LineWidth {
			t.Errorf("Base64 line exceeds %d columns: %d", sexp.Base64LineWidth, len(line))
		}
	}

	again, err := ParseBytes([]byte(out))
	if err != nil {
		t.Fatalf("Re-parse failed: %v", err)
	}
	imgs := 0
	for _, el := range again.Elements {
		if i2, ok := el.(*Image); ok {
			imgs++
			if i2.Data != payload {
				t.Error("Image payload changed through format")
			}
		}
	}
	if imgs != 1 {
		t.Fatalf("Expected 1 image, got %d", imgs)
	}
}

func TestEditEmbeddedLibSymbol(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	def := sch.GetLibSymbol("Device:R")
	if def == nil {
		t.Fatal("Device:R not found")
	}
	def.Pins[0].Length = 9.99
	def.MarkDirty()

	out := string(sch.Format())
	if !strings.Contains(out, "(length 9.99)") {
		t.Fatal("Edited definition not re-rendered")
	}
	// Untouched top-level elements keep their bytes.
	if !strings.Contains(out, "(uuid \"wire-1\")") {
		t.Error("Unrelated element disturbed")
	}

	again, err := ParseBytes([]byte(out))
	if err != nil {
		t.Fatalf("Re-parse failed: %v", err)
	}
	pin := again.GetLibSymbol("Device:R").Pins[0]
	if pin.Length != 9.99 {
		t.Errorf("Pin length = %v after round trip", pin.Length)
	}
}

func TestLibSymbolSpliceOnEdit(t *testing.T) {
	sch, err := ParseBytes([]byte(sampleSchematic))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	extra := &LibSymbol{
		Name: "Device:C", InBom: true, OnBoard: true,
		PinNumbers: true, PinNames: true,
		Pins: []*Pin{
			{Type: "passive", Style: "line", Number: "1", Name: "~", Position: Position{Y: 2.54}, Angle: 270, Length: 1.27},
		},
	}
	sch.AddLibSymbol(extra)
	out := string(sch.Format())

	if !strings.Contains(out, `(symbol "Device:C"`) {
		t.Error("New definition missing")
	}
	// The untouched sibling keeps its original bytes.
	if !strings.Contains(out, "(symbol \"Device:R\"\n\t\t\t(pin_numbers hide)") {
		t.Error("Existing definition was rewritten")
	}

	again, err := ParseBytes([]byte(out))
	if err != nil {
		t.Fatalf("Re-parse failed: %v", err)
	}
	if len(again.LibSymbols) != 2 {
		t.Errorf("Expected 2 definitions, got %d", len(again.LibSymbols))
	}
}
