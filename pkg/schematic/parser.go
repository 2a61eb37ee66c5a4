package schematic

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

// ParseFile reads and parses a schematic file.
func ParseFile(filename string) (*Schematic, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseBytes(data)
}

// Parse reads and parses a schematic from an io.Reader.
func Parse(r io.Reader) (*Schematic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a schematic from raw file bytes. A malformed top-level
// structure (unbalanced parentheses, wrong root tag) is fatal; unrecognized
// nested elements are preserved opaquely and survive a reformat unchanged.
func ParseBytes(data []byte) (*Schematic, error) {
	nodes, err := sexp.Parse(data)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &sexp.ParseError{Offset: 0, Msg: "empty file or no valid s-expressions found"}
	}

	root := nodes[0]
	if root.Tag() != "kicad_sch" {
		return nil, &sexp.ParseError{
			Offset: root.Span.Start,
			Msg:    fmt.Sprintf("not a schematic file: expected 'kicad_sch' root, got %q", root.Tag()),
		}
	}

	sch := &Schematic{source: data}
	sch.lead = data[:root.Children[0].Span.End]
	last := root.Children[len(root.Children)-1]
	sch.trailer = data[last.Span.End:]

	for _, node := range root.Children[1:] {
		sch.Elements = append(sch.Elements, sch.parseTopLevel(node))
	}
	return sch, nil
}

// parseTopLevel dispatches one top-level node to its extractor by leading tag.
func (sch *Schematic) parseTopLevel(node *sexp.Node) Element {
	switch node.Tag() {
	case "version":
		sch.Version, _ = sexp.GetInt(node, 1)
	case "generator":
		sch.Generator, _ = sexp.GetString(node, 1)
	case "generator_version":
		sch.GeneratorVer, _ = sexp.GetString(node, 1)
	case "uuid":
		sch.UUID, _ = sexp.GetUUID(node)
	case "paper":
		sch.Paper, _ = sexp.GetString(node, 1)
	case "title_block":
		sch.TitleBlock = parseTitleBlock(node)
	case "lib_symbols":
		return sch.parseLibSection(node)
	case "symbol":
		return parseSymbolInstance(node)
	case "wire":
		return parseWire(node)
	case "bus":
		return parseBus(node)
	case "bus_entry":
		return parseBusEntry(node)
	case "junction":
		return parseJunction(node)
	case "no_connect":
		return parseNoConnect(node)
	case "label":
		return parseLabel(node, LocalLabel)
	case "global_label":
		return parseLabel(node, GlobalLabel)
	case "hierarchical_label":
		return parseLabel(node, HierLabel)
	case "sheet":
		return parseSheet(node)
	case "text":
		return parseText(node)
	case "polyline":
		return parsePolyline(node)
	case "image":
		return parseImage(node)
	}
	// Header scalars parsed above and anything unrecognized are carried as
	// opaque nodes so they round-trip byte-identically.
	return &Opaque{raw: raw{node: node}, Node: node}
}

func parseTitleBlock(node *sexp.Node) TitleBlock {
	tb := TitleBlock{}
	if n, ok := sexp.FindNode(node, "title"); ok {
		tb.Title, _ = sexp.GetString(n, 1)
	}
	if n, ok := sexp.FindNode(node, "date"); ok {
		tb.Date, _ = sexp.GetString(n, 1)
	}
	if n, ok := sexp.FindNode(node, "rev"); ok {
		tb.Revision, _ = sexp.GetString(n, 1)
	}
	if n, ok := sexp.FindNode(node, "company"); ok {
		tb.Company, _ = sexp.GetString(n, 1)
	}
	for _, cn := range sexp.FindAllNodes(node, "comment") {
		num, _ := sexp.GetInt(cn, 1)
		text, _ := sexp.GetString(cn, 2)
		if num >= 1 && num <= 4 {
			tb.Comments[num-1] = text
		}
	}
	return tb
}

func (sch *Schematic) parseLibSection(node *sexp.Node) Element {
	section := &libSection{raw: raw{node: node}}
	for _, symNode := range sexp.FindAllNodes(node, "symbol") {
		sym := ParseLibSymbolNode(symNode)
		section.symbols = append(section.symbols, sym)
		sch.LibSymbols = append(sch.LibSymbols, sym)
	}
	sch.libSection = section
	return section
}

// ParseLibSymbolNode parses a (symbol "Name" ...) definition. It is shared
// with the library loader, which reads the same grammar from standalone
// library files.
func ParseLibSymbolNode(node *sexp.Node) *LibSymbol {
	sym := &LibSymbol{
		raw:        raw{node: node},
		PinNumbers: true,
		PinNames:   true,
		InBom:      true,
		OnBoard:    true,
	}
	sym.Name, _ = sexp.GetString(node, 1)

	if n, ok := sexp.FindNode(node, "extends"); ok {
		sym.Extends, _ = sexp.GetString(n, 1)
	}
	if n, ok := sexp.FindNode(node, "pin_numbers"); ok {
		sym.PinNumbers = !sexp.HasSymbol(n, "hide")
	}
	if n, ok := sexp.FindNode(node, "pin_names"); ok {
		sym.PinNames = !sexp.HasSymbol(n, "hide")
	}
	if n, ok := sexp.FindNode(node, "in_bom"); ok {
		val, _ := sexp.GetString(n, 1)
		sym.InBom = val == "yes"
	}
	if n, ok := sexp.FindNode(node, "on_board"); ok {
		val, _ := sexp.GetString(n, 1)
		sym.OnBoard = val == "yes"
	}
	for _, pn := range sexp.FindAllNodes(node, "property") {
		if prop, err := sexp.GetProperty(pn); err == nil {
			sym.Properties = append(sym.Properties, prop)
		}
	}

	// Pins and graphics directly on the definition (rare but legal).
	topUnit := parseSymbolUnit(node)
	sym.Graphics = append(sym.Graphics, topUnit.Graphics...)
	sym.Pins = append(sym.Pins, topUnit.Pins...)

	// Nested symbol units carry the bulk of the graphics and pins.
	for _, unitNode := range sexp.FindAllNodes(node, "symbol") {
		unit := parseSymbolUnit(unitNode)
		unit.Name, _ = sexp.GetString(unitNode, 1)
		sym.Units = append(sym.Units, unit)
		sym.Graphics = append(sym.Graphics, unit.Graphics...)
		sym.Pins = append(sym.Pins, unit.Pins...)
	}
	return sym
}

func parseSymbolUnit(node *sexp.Node) SymbolUnit {
	unit := SymbolUnit{}
	addGraphic := func(g SymGraphic) { unit.Graphics = append(unit.Graphics, &g) }
	for _, child := range node.Children {
		switch child.Tag() {
		case "rectangle":
			addGraphic(parseRectangle(child))
		case "circle":
			addGraphic(parseCircle(child))
		case "arc":
			addGraphic(parseArc(child))
		case "polyline":
			addGraphic(parseGraphicPolyline(child))
		case "text":
			addGraphic(parseGraphicText(child))
		case "pin":
			pin := parsePin(child)
			unit.Pins = append(unit.Pins, &pin)
		}
	}
	return unit
}

func parsePin(node *sexp.Node) Pin {
	pin := Pin{}
	pin.Type, _ = sexp.GetString(node, 1)
	pin.Style, _ = sexp.GetString(node, 2)
	if atNode, ok := sexp.FindNode(node, "at"); ok {
		pos, _ := sexp.GetPosition(atNode)
		pin.Position = pos.Position
		pin.Angle = pos.Angle
	}
	if lenNode, ok := sexp.FindNode(node, "length"); ok {
		pin.Length, _ = sexp.GetFloat(lenNode, 1)
	}
	if nameNode, ok := sexp.FindNode(node, "name"); ok {
		pin.Name, _ = sexp.GetString(nameNode, 1)
		if fx, ok := sexp.FindNode(nameNode, "effects"); ok {
			pin.NameFx, _ = sexp.GetEffects(fx)
		}
	}
	if numNode, ok := sexp.FindNode(node, "number"); ok {
		pin.Number, _ = sexp.GetString(numNode, 1)
		if fx, ok := sexp.FindNode(numNode, "effects"); ok {
			pin.NumberFx, _ = sexp.GetEffects(fx)
		}
	}
	pin.Hide = sexp.HasSymbol(node, "hide")
	return pin
}

func parseRectangle(node *sexp.Node) SymGraphic {
	g := SymGraphic{Type: "rectangle"}
	if n, ok := sexp.FindNode(node, "start"); ok {
		g.Start, _ = sexp.GetPositionXY(n)
	}
	if n, ok := sexp.FindNode(node, "end"); ok {
		g.End, _ = sexp.GetPositionXY(n)
	}
	parseStrokeFill(node, &g)
	return g
}

func parseCircle(node *sexp.Node) SymGraphic {
	g := SymGraphic{Type: "circle"}
	if n, ok := sexp.FindNode(node, "center"); ok {
		g.Center, _ = sexp.GetPositionXY(n)
	}
	if n, ok := sexp.FindNode(node, "radius"); ok {
		g.Radius, _ = sexp.GetFloat(n, 1)
	}
	parseStrokeFill(node, &g)
	return g
}

func parseArc(node *sexp.Node) SymGraphic {
	g := SymGraphic{Type: "arc"}
	if n, ok := sexp.FindNode(node, "start"); ok {
		g.Start, _ = sexp.GetPositionXY(n)
	}
	if n, ok := sexp.FindNode(node, "mid"); ok {
		g.Mid, _ = sexp.GetPositionXY(n)
	}
	if n, ok := sexp.FindNode(node, "end"); ok {
		g.End, _ = sexp.GetPositionXY(n)
	}
	parseStrokeFill(node, &g)
	return g
}

func parseGraphicPolyline(node *sexp.Node) SymGraphic {
	g := SymGraphic{Type: "polyline"}
	g.Points = parsePoints(node)
	parseStrokeFill(node, &g)
	return g
}

func parseGraphicText(node *sexp.Node) SymGraphic {
	g := SymGraphic{Type: "text"}
	g.Text, _ = sexp.GetString(node, 1)
	if n, ok := sexp.FindNode(node, "at"); ok {
		g.At, _ = sexp.GetPosition(n)
	}
	return g
}

func parseStrokeFill(node *sexp.Node, g *SymGraphic) {
	if n, ok := sexp.FindNode(node, "stroke"); ok {
		g.Stroke, _ = sexp.GetStroke(n)
	}
	if n, ok := sexp.FindNode(node, "fill"); ok {
		g.Fill, _ = sexp.GetFill(n)
	}
}

// parsePoints extracts the (pts (xy ..) ...) list of a wire-like node.
func parsePoints(node *sexp.Node) []Position {
	var points []Position
	if ptsNode, ok := sexp.FindNode(node, "pts"); ok {
		for _, xy := range sexp.FindAllNodes(ptsNode, "xy") {
			if pos, err := sexp.GetPositionXY(xy); err == nil {
				points = append(points, pos)
			}
		}
	}
	return points
}

func parseSymbolInstance(node *sexp.Node) *SymbolInstance {
	sym := &SymbolInstance{
		raw:     raw{node: node},
		InBom:   true,
		OnBoard: true,
		Unit:    1,
	}
	if n, ok := sexp.FindNode(node, "lib_id"); ok {
		sym.LibID, _ = sexp.GetString(n, 1)
	}
	if n, ok := sexp.FindNode(node, "at"); ok {
		pos, _ := sexp.GetPosition(n)
		sym.Position = pos.Position
		sym.Angle = pos.Angle
	}
	if n, ok := sexp.FindNode(node, "mirror"); ok {
		sym.Mirror, _ = sexp.GetString(n, 1)
	}
	if n, ok := sexp.FindNode(node, "unit"); ok {
		sym.Unit, _ = sexp.GetInt(n, 1)
	}
	if n, ok := sexp.FindNode(node, "in_bom"); ok {
		val, _ := sexp.GetString(n, 1)
		sym.InBom = val == "yes"
	}
	if n, ok := sexp.FindNode(node, "on_board"); ok {
		val, _ := sexp.GetString(n, 1)
		sym.OnBoard = val == "yes"
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		sym.UUID, _ = sexp.GetUUID(n)
	}
	for _, pn := range sexp.FindAllNodes(node, "property") {
		if prop, err := sexp.GetProperty(pn); err == nil {
			sym.Properties = append(sym.Properties, prop)
		}
	}
	for _, pn := range sexp.FindAllNodes(node, "pin") {
		ref := PinRef{}
		ref.Number, _ = sexp.GetString(pn, 1)
		if n, ok := sexp.FindNode(pn, "uuid"); ok {
			ref.UUID, _ = sexp.GetUUID(n)
		}
		sym.Pins = append(sym.Pins, ref)
	}
	return sym
}

func parseWire(node *sexp.Node) *Wire {
	w := &Wire{raw: raw{node: node}}
	w.Points = parsePoints(node)
	if n, ok := sexp.FindNode(node, "stroke"); ok {
		w.Stroke, _ = sexp.GetStroke(n)
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		w.UUID, _ = sexp.GetUUID(n)
	}
	return w
}

func parseBus(node *sexp.Node) *Bus {
	b := &Bus{raw: raw{node: node}}
	b.Points = parsePoints(node)
	if n, ok := sexp.FindNode(node, "stroke"); ok {
		b.Stroke, _ = sexp.GetStroke(n)
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		b.UUID, _ = sexp.GetUUID(n)
	}
	return b
}

func parseBusEntry(node *sexp.Node) *BusEntry {
	e := &BusEntry{raw: raw{node: node}}
	if n, ok := sexp.FindNode(node, "at"); ok {
		pos, _ := sexp.GetPosition(n)
		e.Position = pos.Position
	}
	if n, ok := sexp.FindNode(node, "size"); ok {
		e.Size, _ = sexp.GetSize(n)
	}
	if n, ok := sexp.FindNode(node, "stroke"); ok {
		e.Stroke, _ = sexp.GetStroke(n)
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		e.UUID, _ = sexp.GetUUID(n)
	}
	return e
}

func parseJunction(node *sexp.Node) *Junction {
	j := &Junction{raw: raw{node: node}}
	if n, ok := sexp.FindNode(node, "at"); ok {
		pos, _ := sexp.GetPosition(n)
		j.Position = pos.Position
	}
	if n, ok := sexp.FindNode(node, "diameter"); ok {
		j.Diameter, _ = sexp.GetFloat(n, 1)
	}
	if n, ok := sexp.FindNode(node, "color"); ok {
		j.Color, _ = sexp.GetColor(n)
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		j.UUID, _ = sexp.GetUUID(n)
	}
	return j
}

func parseNoConnect(node *sexp.Node) *NoConnect {
	nc := &NoConnect{raw: raw{node: node}}
	if n, ok := sexp.FindNode(node, "at"); ok {
		pos, _ := sexp.GetPosition(n)
		nc.Position = pos.Position
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		nc.UUID, _ = sexp.GetUUID(n)
	}
	return nc
}

func parseLabel(node *sexp.Node, kind LabelKind) *Label {
	l := &Label{raw: raw{node: node}, Kind: kind}
	l.Text, _ = sexp.GetString(node, 1)
	if n, ok := sexp.FindNode(node, "shape"); ok {
		l.Shape, _ = sexp.GetString(n, 1)
	}
	if n, ok := sexp.FindNode(node, "at"); ok {
		pos, _ := sexp.GetPosition(n)
		l.Position = pos.Position
		l.Angle = pos.Angle
	}
	if n, ok := sexp.FindNode(node, "effects"); ok {
		l.Effects, _ = sexp.GetEffects(n)
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		l.UUID, _ = sexp.GetUUID(n)
	}
	for _, pn := range sexp.FindAllNodes(node, "property") {
		if prop, err := sexp.GetProperty(pn); err == nil {
			l.Properties = append(l.Properties, prop)
		}
	}
	return l
}

func parseSheet(node *sexp.Node) *Sheet {
	s := &Sheet{raw: raw{node: node}}
	if n, ok := sexp.FindNode(node, "at"); ok {
		pos, _ := sexp.GetPosition(n)
		s.Position = pos.Position
	}
	if n, ok := sexp.FindNode(node, "size"); ok {
		s.Size, _ = sexp.GetSize(n)
	}
	if n, ok := sexp.FindNode(node, "stroke"); ok {
		s.Stroke, _ = sexp.GetStroke(n)
	}
	if n, ok := sexp.FindNode(node, "fill"); ok {
		s.Fill, _ = sexp.GetFill(n)
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		s.UUID, _ = sexp.GetUUID(n)
	}
	for _, pn := range sexp.FindAllNodes(node, "property") {
		prop, err := sexp.GetProperty(pn)
		if err != nil {
			continue
		}
		switch prop.Key {
		case "Sheetname":
			s.Name = prop.Value
			s.NameFx = prop.Effects
		case "Sheetfile":
			s.FileName = prop.Value
			s.FileFx = prop.Effects
		default:
			s.Properties = append(s.Properties, prop)
		}
	}
	for _, pn := range sexp.FindAllNodes(node, "pin") {
		pin := SheetPin{}
		pin.Name, _ = sexp.GetString(pn, 1)
		pin.Shape, _ = sexp.GetString(pn, 2)
		if n, ok := sexp.FindNode(pn, "at"); ok {
			pos, _ := sexp.GetPosition(n)
			pin.Position = pos.Position
			pin.Angle = pos.Angle
		}
		if n, ok := sexp.FindNode(pn, "effects"); ok {
			pin.Effects, _ = sexp.GetEffects(n)
		}
		if n, ok := sexp.FindNode(pn, "uuid"); ok {
			pin.UUID, _ = sexp.GetUUID(n)
		}
		s.Pins = append(s.Pins, pin)
	}
	return s
}

func parseText(node *sexp.Node) *Text {
	t := &Text{raw: raw{node: node}}
	t.Text, _ = sexp.GetString(node, 1)
	if n, ok := sexp.FindNode(node, "at"); ok {
		pos, _ := sexp.GetPosition(n)
		t.Position = pos.Position
		t.Angle = pos.Angle
	}
	if n, ok := sexp.FindNode(node, "effects"); ok {
		t.Effects, _ = sexp.GetEffects(n)
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		t.UUID, _ = sexp.GetUUID(n)
	}
	return t
}

func parsePolyline(node *sexp.Node) *Polyline {
	p := &Polyline{raw: raw{node: node}}
	p.Points = parsePoints(node)
	if n, ok := sexp.FindNode(node, "stroke"); ok {
		p.Stroke, _ = sexp.GetStroke(n)
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		p.UUID, _ = sexp.GetUUID(n)
	}
	return p
}

func parseImage(node *sexp.Node) *Image {
	img := &Image{raw: raw{node: node}, Scale: 1}
	if n, ok := sexp.FindNode(node, "at"); ok {
		pos, _ := sexp.GetPosition(n)
		img.Position = pos.Position
	}
	if n, ok := sexp.FindNode(node, "scale"); ok {
		img.Scale, _ = sexp.GetFloat(n, 1)
	}
	if n, ok := sexp.FindNode(node, "uuid"); ok {
		img.UUID, _ = sexp.GetUUID(n)
	}
	if dataNode, ok := sexp.FindNode(node, "data"); ok {
		var sb strings.Builder
		for _, chunk := range dataNode.Children[1:] {
			if chunk.IsLeaf() {
				sb.WriteString(strings.TrimSpace(chunk.Value))
			}
		}
		img.Data = sb.String()
	}
	return img
}
