package schematic

import (
	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

// Document-model collection helpers. These sit above the core parse/format
// engine: they filter, add, and remove placed elements, marking whatever they
// touch so the formatter knows what to re-render.

// New creates an empty schematic document.
func New() *Schematic {
	sch := &Schematic{
		Version:   20231120,
		Generator: "otsch",
		Paper:     "A4",
		UUID:      NewUUID(),
	}
	sch.Elements = append(sch.Elements,
		&Opaque{Node: sexp.List(sexp.Atom("version"), sexp.Int(sch.Version))},
		&Opaque{Node: sexp.List(sexp.Atom("generator"), sexp.String(sch.Generator))},
		&Opaque{Node: sexp.List(sexp.Atom("uuid"), sexp.String(string(sch.UUID)))},
		&Opaque{Node: sexp.List(sexp.Atom("paper"), sexp.String(sch.Paper))},
	)
	sch.libSection = &libSection{}
	sch.libSection.MarkDirty()
	sch.Elements = append(sch.Elements, sch.libSection)
	return sch
}

// NewUUID returns a fresh random element identifier.
func NewUUID() UUID {
	return UUID(uuid.NewString())
}

// Symbols returns all placed symbol instances in file order.
func (sch *Schematic) Symbols() []*SymbolInstance {
	var result []*SymbolInstance
	for _, el := range sch.Elements {
		if s, ok := el.(*SymbolInstance); ok {
			result = append(result, s)
		}
	}
	return result
}

// Wires returns all wires in file order.
func (sch *Schematic) Wires() []*Wire {
	var result []*Wire
	for _, el := range sch.Elements {
		if w, ok := el.(*Wire); ok {
			result = append(result, w)
		}
	}
	return result
}

// Junctions returns all junction markers in file order.
func (sch *Schematic) Junctions() []*Junction {
	var result []*Junction
	for _, el := range sch.Elements {
		if j, ok := el.(*Junction); ok {
			result = append(result, j)
		}
	}
	return result
}

// Labels returns labels of the given kinds, or all labels when none given.
func (sch *Schematic) Labels(kinds ...LabelKind) []*Label {
	var result []*Label
	for _, el := range sch.Elements {
		l, ok := el.(*Label)
		if !ok {
			continue
		}
		if len(kinds) == 0 {
			result = append(result, l)
			continue
		}
		for _, k := range kinds {
			if l.Kind == k {
				result = append(result, l)
				break
			}
		}
	}
	return result
}

// Sheets returns all hierarchical sheet references.
func (sch *Schematic) Sheets() []*Sheet {
	var result []*Sheet
	for _, el := range sch.Elements {
		if s, ok := el.(*Sheet); ok {
			result = append(result, s)
		}
	}
	return result
}

// GetSymbol returns a symbol instance by reference designator, or nil.
func (sch *Schematic) GetSymbol(ref string) *SymbolInstance {
	for _, s := range sch.Symbols() {
		if s.Reference() == ref {
			return s
		}
	}
	return nil
}

// GetSymbolsByLib returns all instances of the given library id.
func (sch *Schematic) GetSymbolsByLib(libID string) []*SymbolInstance {
	var result []*SymbolInstance
	for _, s := range sch.Symbols() {
		if s.LibID == libID {
			result = append(result, s)
		}
	}
	return result
}

// GetAllReferences returns every non-empty reference designator.
func (sch *Schematic) GetAllReferences() []string {
	var refs []string
	for _, s := range sch.Symbols() {
		if ref := s.Reference(); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// GetLabelNames returns the distinct net names of all label kinds.
func (sch *Schematic) GetLabelNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, l := range sch.Labels() {
		if !seen[l.Text] {
			seen[l.Text] = true
			names = append(names, l.Text)
		}
	}
	return names
}

// GetLibSymbol returns the embedded library definition with the given name.
func (sch *Schematic) GetLibSymbol(name string) *LibSymbol {
	for _, sym := range sch.LibSymbols {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

// AddElement appends an element to the document. New elements are rendered
// from their typed fields on the next Format.
func (sch *Schematic) AddElement(el Element) {
	sch.Elements = append(sch.Elements, el)
}

// RemoveElement deletes an element from the document. It returns false if
// the element is not part of the document.
func (sch *Schematic) RemoveElement(el Element) bool {
	for i, e := range sch.Elements {
		if e == el {
			sch.Elements = append(sch.Elements[:i], sch.Elements[i+1:]...)
			return true
		}
	}
	return false
}

// AddWire appends a wire along the given path with a fresh UUID.
func (sch *Schematic) AddWire(points []Position) *Wire {
	w := &Wire{Points: points, Stroke: Stroke{Type: "default"}, UUID: NewUUID()}
	sch.AddElement(w)
	return w
}

// AddJunction places a junction marker at the given position unless one is
// already there.
func (sch *Schematic) AddJunction(pos Position) *Junction {
	for _, j := range sch.Junctions() {
		if j.Position == pos {
			return j
		}
	}
	j := &Junction{Position: pos, UUID: NewUUID()}
	sch.AddElement(j)
	return j
}

// AddLabel places a net label of the given kind.
func (sch *Schematic) AddLabel(kind LabelKind, text string, pos Position) *Label {
	l := &Label{Kind: kind, Text: text, Position: pos, UUID: NewUUID()}
	sch.AddElement(l)
	return l
}

// AddLibSymbol embeds a library definition so placed instances can resolve
// it without external library files.
func (sch *Schematic) AddLibSymbol(sym *LibSymbol) {
	if sch.libSection == nil {
		sch.libSection = &libSection{}
		sch.libSection.MarkDirty()
		sch.Elements = append(sch.Elements, sch.libSection)
	}
	sch.libSection.symbols = append(sch.libSection.symbols, sym)
	sch.libSection.MarkDirty()
	sch.LibSymbols = append(sch.LibSymbols, sym)
}

// PlaceSymbol adds a symbol instance at the given position with a fresh UUID
// and Reference/Value properties.
func (sch *Schematic) PlaceSymbol(libID, ref, value string, pos Position) *SymbolInstance {
	s := &SymbolInstance{
		LibID:    libID,
		Position: pos,
		Unit:     1,
		InBom:    true,
		OnBoard:  true,
		UUID:     NewUUID(),
		Properties: []Property{
			{Key: "Reference", Value: ref, Position: PositionAngle{Position: pos}},
			{Key: "Value", Value: value, Position: PositionAngle{Position: pos}},
		},
	}
	sch.AddElement(s)
	return s
}

// SetPaper changes the paper size, rewriting only the paper entry.
func (sch *Schematic) SetPaper(paper string) {
	sch.Paper = paper
	sch.replaceHeader("paper", sexp.List(sexp.Atom("paper"), sexp.String(paper)))
}

// SetTitleBlock replaces the title block, rewriting only its entry.
func (sch *Schematic) SetTitleBlock(tb TitleBlock) {
	sch.TitleBlock = tb
	node := sexp.List(sexp.Atom("title_block"))
	if tb.Title != "" {
		node.Append(sexp.List(sexp.Atom("title"), sexp.String(tb.Title)))
	}
	if tb.Date != "" {
		node.Append(sexp.List(sexp.Atom("date"), sexp.String(tb.Date)))
	}
	if tb.Revision != "" {
		node.Append(sexp.List(sexp.Atom("rev"), sexp.String(tb.Revision)))
	}
	if tb.Company != "" {
		node.Append(sexp.List(sexp.Atom("company"), sexp.String(tb.Company)))
	}
	for i, c := range tb.Comments {
		if c != "" {
			node.Append(sexp.List(sexp.Atom("comment"), sexp.Int(i+1), sexp.String(c)))
		}
	}
	sch.replaceHeader("title_block", node)
}

// replaceHeader swaps the opaque entry with the given tag, inserting it
// before the first placed element if the document never had one.
func (sch *Schematic) replaceHeader(tag string, node *sexp.Node) {
	for _, el := range sch.Elements {
		if o, ok := el.(*Opaque); ok && o.Tag() == tag {
			o.Replace(node)
			return
		}
	}
	sch.Elements = append(sch.Elements, nil)
	copy(sch.Elements[1:], sch.Elements)
	o := &Opaque{Node: node}
	o.MarkDirty()
	sch.Elements[0] = o
}

// GetBoundingBox computes the extent of all placed element anchor points and
// wire geometry. Symbol body extents need the geometry engine and a resolved
// symbol; see the geometry package.
func (sch *Schematic) GetBoundingBox() sexp.BoundingBox {
	bbox := sexp.NewBoundingBox()
	for _, el := range sch.Elements {
		switch e := el.(type) {
		case *Wire:
			for _, pt := range e.Points {
				bbox.Expand(pt)
			}
		case *Bus:
			for _, pt := range e.Points {
				bbox.Expand(pt)
			}
		case *Polyline:
			for _, pt := range e.Points {
				bbox.Expand(pt)
			}
		case *SymbolInstance:
			bbox.Expand(e.Position)
		case *Junction:
			bbox.Expand(e.Position)
		case *NoConnect:
			bbox.Expand(e.Position)
		case *Label:
			bbox.Expand(e.Position)
		case *Text:
			bbox.Expand(e.Position)
		case *Sheet:
			bbox.Expand(e.Position)
			bbox.Expand(Position{X: e.Position.X + e.Size.Width, Y: e.Position.Y + e.Size.Height})
		}
	}
	return bbox
}
