package schematic

import (
	"bytes"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

// Format renders the document back to file text. Elements that were never
// modified are emitted byte-for-byte from the original source, so a document
// loaded and saved without changes reproduces its input exactly, and a
// targeted edit only rewrites the touched element's text region.
func (sch *Schematic) Format() []byte {
	var buf bytes.Buffer

	if sch.lead != nil {
		buf.Write(sch.lead)
	} else {
		buf.WriteString("(kicad_sch")
	}

	for _, el := range sch.Elements {
		node := el.sourceNode()
		if !el.IsDirty() && node != nil && node.Span.Valid() && sch.source != nil {
			buf.WriteString(node.Trivia)
			buf.Write(sch.source[node.Span.Start:node.Span.End])
			continue
		}
		buf.WriteString("\n\t")
		buf.WriteString(sch.renderElement(el))
	}

	if sch.trailer != nil {
		buf.Write(sch.trailer)
	} else {
		buf.WriteString("\n)\n")
	}
	return buf.Bytes()
}

// renderElement re-serializes one element at nesting depth 1. Every extractor
// in parser.go has its builder counterpart here; adding an element kind means
// adding both halves.
func (sch *Schematic) renderElement(el Element) string {
	var w sexp.Writer
	switch e := el.(type) {
	case *Opaque:
		return w.Render(e.Node, 1)
	case *libSection:
		return sch.renderLibSection(e)
	case *LibSymbol:
		return w.Render(buildLibSymbol(e), 1)
	case *SymbolInstance:
		return w.Render(buildSymbolInstance(e), 1)
	case *Wire:
		return w.Render(buildWireLike("wire", e.Points, e.Stroke, e.UUID), 1)
	case *Bus:
		return w.Render(buildWireLike("bus", e.Points, e.Stroke, e.UUID), 1)
	case *BusEntry:
		return w.Render(buildBusEntry(e), 1)
	case *Junction:
		return w.Render(buildJunction(e), 1)
	case *NoConnect:
		return w.Render(buildNoConnect(e), 1)
	case *Label:
		return w.Render(buildLabel(e), 1)
	case *Sheet:
		return w.Render(buildSheet(e), 1)
	case *Text:
		return w.Render(buildText(e), 1)
	case *Polyline:
		return w.Render(buildWireLike("polyline", e.Points, e.Stroke, e.UUID), 1)
	case *Image:
		return w.Render(buildImage(e), 1)
	}
	// Unreachable as long as every Element type is handled above.
	return ""
}

// renderLibSection re-emits the lib_symbols container, preserving original
// bytes of definitions that were not touched.
func (sch *Schematic) renderLibSection(section *libSection) string {
	clean := !section.dirty
	for _, sym := range section.symbols {
		if sym.IsDirty() {
			clean = false
		}
	}
	node := section.sourceNode()
	if clean && node != nil && node.Span.Valid() && sch.source != nil {
		return string(sch.source[node.Span.Start:node.Span.End])
	}

	var buf bytes.Buffer
	buf.WriteString("(lib_symbols")
	var w sexp.Writer
	for _, sym := range section.symbols {
		symNode := sym.sourceNode()
		if !sym.IsDirty() && symNode != nil && symNode.Span.Valid() && sch.source != nil {
			buf.WriteString(symNode.Trivia)
			buf.Write(sch.source[symNode.Span.Start:symNode.Span.End])
			continue
		}
		buf.WriteString("\n\t\t")
		buf.WriteString(w.Render(buildLibSymbol(sym), 2))
	}
	buf.WriteString("\n\t)")
	return buf.String()
}

// Node builders. Tags and keywords are atoms; property values, names, and
// display strings are always quoted.

func buildAt(pos Position, angle Angle) *sexp.Node {
	n := sexp.List(sexp.Atom("at"), sexp.Number(pos.X), sexp.Number(pos.Y))
	if angle != 0 {
		n.Append(sexp.Number(float64(angle)))
	}
	return n
}

func buildXY(tag string, pos Position) *sexp.Node {
	return sexp.List(sexp.Atom(tag), sexp.Number(pos.X), sexp.Number(pos.Y))
}

func buildPts(points []Position) *sexp.Node {
	n := sexp.List(sexp.Atom("pts"))
	for _, p := range points {
		n.Append(buildXY("xy", p))
	}
	return n
}

func buildStroke(s Stroke) *sexp.Node {
	n := sexp.List(sexp.Atom("stroke"),
		sexp.List(sexp.Atom("width"), sexp.Number(s.Width)),
		sexp.List(sexp.Atom("type"), sexp.Atom(strokeType(s.Type))),
	)
	if s.Color != (Color{}) {
		n.Append(buildColor(s.Color))
	}
	return n
}

func strokeType(t string) string {
	if t == "" {
		return "default"
	}
	return t
}

func buildFill(f Fill) *sexp.Node {
	fillType := f.Type
	if fillType == "" {
		fillType = "none"
	}
	n := sexp.List(sexp.Atom("fill"), sexp.List(sexp.Atom("type"), sexp.Atom(fillType)))
	if f.Color != (Color{}) {
		n.Append(buildColor(f.Color))
	}
	return n
}

func buildColor(c Color) *sexp.Node {
	return sexp.List(sexp.Atom("color"),
		sexp.Number(c.R), sexp.Number(c.G), sexp.Number(c.B), sexp.Number(c.A))
}

func buildUUID(id UUID) *sexp.Node {
	return sexp.List(sexp.Atom("uuid"), sexp.String(string(id)))
}

func buildEffects(fx Effects) *sexp.Node {
	font := sexp.List(sexp.Atom("font"))
	if fx.Font.Face != "" {
		font.Append(sexp.List(sexp.Atom("face"), sexp.String(fx.Font.Face)))
	}
	size := fx.Font.Size
	if size == (Size{}) {
		size = Size{Width: 1.27, Height: 1.27}
	}
	font.Append(sexp.List(sexp.Atom("size"), sexp.Number(size.Width), sexp.Number(size.Height)))
	if fx.Font.Thickness != 0 {
		font.Append(sexp.List(sexp.Atom("thickness"), sexp.Number(fx.Font.Thickness)))
	}
	if fx.Font.Bold {
		font.Append(sexp.Atom("bold"))
	}
	if fx.Font.Italic {
		font.Append(sexp.Atom("italic"))
	}

	n := sexp.List(sexp.Atom("effects"), font)
	if fx.Justify != (Justify{}) {
		justify := sexp.List(sexp.Atom("justify"))
		if fx.Justify.Horizontal != "" {
			justify.Append(sexp.Atom(fx.Justify.Horizontal))
		}
		if fx.Justify.Vertical != "" {
			justify.Append(sexp.Atom(fx.Justify.Vertical))
		}
		if fx.Justify.Mirror {
			justify.Append(sexp.Atom("mirror"))
		}
		n.Append(justify)
	}
	if fx.Hide {
		n.Append(sexp.Atom("hide"))
	}
	return n
}

func buildProperty(p Property) *sexp.Node {
	return sexp.List(sexp.Atom("property"),
		sexp.String(p.Key), sexp.String(p.Value),
		buildAt(p.Position.Position, p.Position.Angle),
		buildEffects(p.Effects),
	)
}

func yesNo(v bool) *sexp.Node {
	if v {
		return sexp.Atom("yes")
	}
	return sexp.Atom("no")
}

func buildSymbolInstance(s *SymbolInstance) *sexp.Node {
	n := sexp.List(sexp.Atom("symbol"),
		sexp.List(sexp.Atom("lib_id"), sexp.String(s.LibID)),
		buildAt(s.Position, s.Angle),
	)
	if s.Mirror != "" {
		n.Append(sexp.List(sexp.Atom("mirror"), sexp.Atom(s.Mirror)))
	}
	n.Append(sexp.List(sexp.Atom("unit"), sexp.Int(s.Unit)))
	n.Append(sexp.List(sexp.Atom("in_bom"), yesNo(s.InBom)))
	n.Append(sexp.List(sexp.Atom("on_board"), yesNo(s.OnBoard)))
	if s.UUID != "" {
		n.Append(buildUUID(s.UUID))
	}
	for _, p := range s.Properties {
		n.Append(buildProperty(p))
	}
	for _, pin := range s.Pins {
		pinNode := sexp.List(sexp.Atom("pin"), sexp.String(pin.Number))
		if pin.UUID != "" {
			pinNode.Append(buildUUID(pin.UUID))
		}
		n.Append(pinNode)
	}
	return n
}

func buildWireLike(tag string, points []Position, stroke Stroke, id UUID) *sexp.Node {
	n := sexp.List(sexp.Atom(tag), buildPts(points), buildStroke(stroke))
	if id != "" {
		n.Append(buildUUID(id))
	}
	return n
}

func buildBusEntry(e *BusEntry) *sexp.Node {
	n := sexp.List(sexp.Atom("bus_entry"),
		buildAt(e.Position, 0),
		sexp.List(sexp.Atom("size"), sexp.Number(e.Size.Width), sexp.Number(e.Size.Height)),
		buildStroke(e.Stroke),
	)
	if e.UUID != "" {
		n.Append(buildUUID(e.UUID))
	}
	return n
}

func buildJunction(j *Junction) *sexp.Node {
	n := sexp.List(sexp.Atom("junction"),
		buildAt(j.Position, 0),
		sexp.List(sexp.Atom("diameter"), sexp.Number(j.Diameter)),
		buildColor(j.Color),
	)
	if j.UUID != "" {
		n.Append(buildUUID(j.UUID))
	}
	return n
}

func buildNoConnect(nc *NoConnect) *sexp.Node {
	n := sexp.List(sexp.Atom("no_connect"), buildAt(nc.Position, 0))
	if nc.UUID != "" {
		n.Append(buildUUID(nc.UUID))
	}
	return n
}

func buildLabel(l *Label) *sexp.Node {
	n := sexp.List(sexp.Atom(l.Tag()), sexp.String(l.Text))
	if l.Kind != LocalLabel {
		shape := l.Shape
		if shape == "" {
			shape = "input"
		}
		n.Append(sexp.List(sexp.Atom("shape"), sexp.Atom(shape)))
	}
	n.Append(buildAt(l.Position, l.Angle))
	n.Append(buildEffects(l.Effects))
	if l.UUID != "" {
		n.Append(buildUUID(l.UUID))
	}
	for _, p := range l.Properties {
		n.Append(buildProperty(p))
	}
	return n
}

func buildSheet(s *Sheet) *sexp.Node {
	n := sexp.List(sexp.Atom("sheet"),
		buildAt(s.Position, 0),
		sexp.List(sexp.Atom("size"), sexp.Number(s.Size.Width), sexp.Number(s.Size.Height)),
		buildStroke(s.Stroke),
		buildFill(s.Fill),
	)
	if s.UUID != "" {
		n.Append(buildUUID(s.UUID))
	}
	n.Append(buildProperty(Property{Key: "Sheetname", Value: s.Name, Effects: s.NameFx}))
	n.Append(buildProperty(Property{Key: "Sheetfile", Value: s.FileName, Effects: s.FileFx}))
	for _, p := range s.Properties {
		n.Append(buildProperty(p))
	}
	for _, pin := range s.Pins {
		pinNode := sexp.List(sexp.Atom("pin"), sexp.String(pin.Name), sexp.Atom(pin.Shape),
			buildAt(pin.Position, pin.Angle),
			buildEffects(pin.Effects),
		)
		if pin.UUID != "" {
			pinNode.Append(buildUUID(pin.UUID))
		}
		n.Append(pinNode)
	}
	return n
}

func buildText(t *Text) *sexp.Node {
	n := sexp.List(sexp.Atom("text"), sexp.String(t.Text),
		buildAt(t.Position, t.Angle),
		buildEffects(t.Effects),
	)
	if t.UUID != "" {
		n.Append(buildUUID(t.UUID))
	}
	return n
}

func buildImage(img *Image) *sexp.Node {
	n := sexp.List(sexp.Atom("image"), buildAt(img.Position, 0))
	if img.Scale != 0 && img.Scale != 1 {
		n.Append(sexp.List(sexp.Atom("scale"), sexp.Number(img.Scale)))
	}
	if img.UUID != "" {
		n.Append(buildUUID(img.UUID))
	}
	data := sexp.List(sexp.Atom("data"))
	for off := 0; off < len(img.Data); off += sexp.Base64LineWidth {
		end := off + sexp.Base64LineWidth
		if end > len(img.Data) {
			end = len(img.Data)
		}
		data.Append(sexp.String(img.Data[off:end]))
	}
	n.Append(data)
	return n
}

func buildLibSymbol(s *LibSymbol) *sexp.Node {
	n := sexp.List(sexp.Atom("symbol"), sexp.String(s.Name))
	if s.Extends != "" {
		n.Append(sexp.List(sexp.Atom("extends"), sexp.String(s.Extends)))
	}
	if !s.PinNumbers {
		n.Append(sexp.List(sexp.Atom("pin_numbers"), sexp.Atom("hide")))
	}
	if !s.PinNames {
		n.Append(sexp.List(sexp.Atom("pin_names"), sexp.Atom("hide")))
	}
	n.Append(sexp.List(sexp.Atom("in_bom"), yesNo(s.InBom)))
	n.Append(sexp.List(sexp.Atom("on_board"), yesNo(s.OnBoard)))
	for _, p := range s.Properties {
		n.Append(buildProperty(p))
	}
	if len(s.Units) > 0 {
		for _, unit := range s.Units {
			unitNode := sexp.List(sexp.Atom("symbol"), sexp.String(unit.Name))
			appendUnitBody(unitNode, unit.Graphics, unit.Pins)
			n.Append(unitNode)
		}
	} else {
		appendUnitBody(n, s.Graphics, s.Pins)
	}
	return n
}

func appendUnitBody(n *sexp.Node, graphics []*SymGraphic, pins []*Pin) {
	for _, g := range graphics {
		n.Append(buildSymGraphic(*g))
	}
	for _, pin := range pins {
		n.Append(buildPin(*pin))
	}
}

func buildSymGraphic(g SymGraphic) *sexp.Node {
	switch g.Type {
	case "rectangle":
		return sexp.List(sexp.Atom("rectangle"),
			buildXY("start", g.Start), buildXY("end", g.End),
			buildStroke(g.Stroke), buildFill(g.Fill))
	case "circle":
		return sexp.List(sexp.Atom("circle"),
			buildXY("center", g.Center),
			sexp.List(sexp.Atom("radius"), sexp.Number(g.Radius)),
			buildStroke(g.Stroke), buildFill(g.Fill))
	case "arc":
		return sexp.List(sexp.Atom("arc"),
			buildXY("start", g.Start), buildXY("mid", g.Mid), buildXY("end", g.End),
			buildStroke(g.Stroke), buildFill(g.Fill))
	case "text":
		return sexp.List(sexp.Atom("text"), sexp.String(g.Text),
			buildAt(g.At.Position, g.At.Angle))
	default: // polyline
		return sexp.List(sexp.Atom("polyline"),
			buildPts(g.Points), buildStroke(g.Stroke), buildFill(g.Fill))
	}
}

func buildPin(p Pin) *sexp.Node {
	n := sexp.List(sexp.Atom("pin"), sexp.Atom(pinType(p.Type)), sexp.Atom(pinStyle(p.Style)),
		buildAt(p.Position, p.Angle),
		sexp.List(sexp.Atom("length"), sexp.Number(p.Length)),
	)
	if p.Hide {
		n.Append(sexp.Atom("hide"))
	}
	n.Append(sexp.List(sexp.Atom("name"), sexp.String(p.Name), buildEffects(p.NameFx)))
	n.Append(sexp.List(sexp.Atom("number"), sexp.String(p.Number), buildEffects(p.NumberFx)))
	return n
}

func pinType(t string) string {
	if t == "" {
		return "passive"
	}
	return t
}

func pinStyle(s string) string {
	if s == "" {
		return "line"
	}
	return s
}
