// Package schematic provides the typed document model for schematic files,
// with parsing and formatting that preserve the original text of every
// element the caller did not modify.
package schematic

import (
	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

// Re-export shared types from the sexp package for convenience.
type Position = sexp.Position
type Angle = sexp.Angle
type PositionAngle = sexp.PositionAngle
type Size = sexp.Size
type Color = sexp.Color
type Stroke = sexp.Stroke
type Fill = sexp.Fill
type UUID = sexp.UUID
type Effects = sexp.Effects
type Font = sexp.Font
type Justify = sexp.Justify
type Property = sexp.Property

// Element is one top-level entry of a schematic document. Elements keep a
// reference to the source node they were parsed from; the formatter re-emits
// the original bytes for any element that was never marked dirty.
type Element interface {
	// Tag returns the element's leading tag ("wire", "symbol", ...).
	Tag() string
	// IsDirty reports whether the element must be re-rendered. New elements
	// with no source node are always dirty.
	IsDirty() bool
	// MarkDirty flags the element for re-rendering on the next Format.
	MarkDirty()

	sourceNode() *sexp.Node
}

// raw is the embedded base carrying source node and dirty flag.
type raw struct {
	node  *sexp.Node
	dirty bool
}

func (r *raw) IsDirty() bool          { return r.dirty || r.node == nil }
func (r *raw) MarkDirty()             { r.dirty = true }
func (r *raw) sourceNode() *sexp.Node { return r.node }

// Schematic represents a complete schematic document. Elements holds every
// top-level entry in file order, including header entries and elements the
// parser has no typed understanding of.
type Schematic struct {
	Version      int
	Generator    string
	GeneratorVer string
	UUID         UUID
	Paper        string
	TitleBlock   TitleBlock

	LibSymbols []*LibSymbol // embedded library definitions
	Elements   []Element    // ordered top-level entries

	source     []byte // original file text, nil for synthesized documents
	lead       []byte // bytes up to and including the root tag
	trailer    []byte // bytes from the last top-level entry to EOF
	libSection *libSection
}

// TitleBlock contains schematic title block information.
type TitleBlock struct {
	Title    string
	Date     string
	Revision string
	Company  string
	Comments [4]string
}

// LibSymbol represents a symbol definition: either embedded in a schematic's
// lib_symbols section or loaded from a standalone library file. Pins and
// Graphics aggregate the unit entries by pointer, so an edit through either
// view reaches the formatter.
type LibSymbol struct {
	raw
	Name       string // definition name; qualified as "Lib:Name" when embedded
	Extends    string // parent definition name, "" when standalone
	PinNumbers bool   // show pin numbers
	PinNames   bool   // show pin names
	InBom      bool
	OnBoard    bool
	Properties []Property
	Pins       []*Pin        // all pins across units
	Graphics   []*SymGraphic // all graphics across units
	Units      []SymbolUnit
}

func (s *LibSymbol) Tag() string { return "symbol" }

// SymbolUnit represents one unit of a multi-unit symbol.
type SymbolUnit struct {
	Name     string
	Graphics []*SymGraphic
	Pins     []*Pin
}

// SymGraphic represents a graphical primitive in symbol space.
type SymGraphic struct {
	Type   string // rectangle, circle, arc, polyline, text
	Start  Position
	Mid    Position // arc mid point
	End    Position
	Center Position // circle center
	Points []Position
	Radius float64
	Stroke Stroke
	Fill   Fill
	Text   string
	At     PositionAngle // text anchor
}

// Pin represents a symbol pin in symbol space.
type Pin struct {
	Type     string // input, output, bidirectional, passive, power_in, ...
	Style    string // line, inverted, clock, ...
	Position Position
	Angle    Angle // 0, 90, 180, 270
	Length   float64
	Name     string
	NameFx   Effects
	Number   string
	NumberFx Effects
	Hide     bool
}

// SymbolInstance represents a symbol placed on the schematic.
type SymbolInstance struct {
	raw
	LibID      string
	Position   Position
	Angle      Angle
	Mirror     string // "", "x", "y", "xy"
	Unit       int
	InBom      bool
	OnBoard    bool
	UUID       UUID
	Properties []Property
	Pins       []PinRef
}

func (s *SymbolInstance) Tag() string { return "symbol" }

// Reference returns the instance's reference designator ("R1", "U3").
func (s *SymbolInstance) Reference() string { return s.Property("Reference") }

// Value returns the instance's Value property.
func (s *SymbolInstance) Value() string { return s.Property("Value") }

// Property returns the value of the named property, or "".
func (s *SymbolInstance) Property(key string) string {
	for _, p := range s.Properties {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// SetProperty updates or adds a property value and marks the instance dirty.
func (s *SymbolInstance) SetProperty(key, value string) {
	for i := range s.Properties {
		if s.Properties[i].Key == key {
			s.Properties[i].Value = value
			s.MarkDirty()
			return
		}
	}
	s.Properties = append(s.Properties, Property{Key: key, Value: value})
	s.MarkDirty()
}

// PinRef represents a pin reference inside a symbol instance.
type PinRef struct {
	Number string
	UUID   UUID
}

// Wire represents a wire connection with at least two points.
type Wire struct {
	raw
	Points []Position
	Stroke Stroke
	UUID   UUID
}

func (w *Wire) Tag() string { return "wire" }

// Bus represents a bus connection.
type Bus struct {
	raw
	Points []Position
	Stroke Stroke
	UUID   UUID
}

func (b *Bus) Tag() string { return "bus" }

// BusEntry represents a bus entry point.
type BusEntry struct {
	raw
	Position Position
	Size     Size
	Stroke   Stroke
	UUID     UUID
}

func (b *BusEntry) Tag() string { return "bus_entry" }

// Junction represents a wire junction marker.
type Junction struct {
	raw
	Position Position
	Diameter float64
	Color    Color
	UUID     UUID
}

func (j *Junction) Tag() string { return "junction" }

// NoConnect represents a no-connect marker.
type NoConnect struct {
	raw
	Position Position
	UUID     UUID
}

func (n *NoConnect) Tag() string { return "no_connect" }

// LabelKind distinguishes the three label variants.
type LabelKind int

const (
	LocalLabel LabelKind = iota
	GlobalLabel
	HierLabel
)

// Label represents a net label. Kind selects local, global, or hierarchical;
// Shape is only meaningful for global and hierarchical labels.
type Label struct {
	raw
	Kind       LabelKind
	Text       string
	Shape      string // input, output, bidirectional, tri_state, passive
	Position   Position
	Angle      Angle
	Effects    Effects
	UUID       UUID
	Properties []Property
}

func (l *Label) Tag() string {
	switch l.Kind {
	case GlobalLabel:
		return "global_label"
	case HierLabel:
		return "hierarchical_label"
	default:
		return "label"
	}
}

// Sheet represents a hierarchical sheet reference.
type Sheet struct {
	raw
	Position   Position
	Size       Size
	Stroke     Stroke
	Fill       Fill
	UUID       UUID
	Name       string
	FileName   string
	NameFx     Effects
	FileFx     Effects
	Pins       []SheetPin
	Properties []Property
}

func (s *Sheet) Tag() string { return "sheet" }

// SheetPin represents a hierarchical pin on a sheet border.
type SheetPin struct {
	Name     string
	Shape    string
	Position Position
	Angle    Angle
	Effects  Effects
	UUID     UUID
}

// Text represents free text on the schematic.
type Text struct {
	raw
	Text     string
	Position Position
	Angle    Angle
	Effects  Effects
	UUID     UUID
}

func (t *Text) Tag() string { return "text" }

// Polyline represents a graphical polyline on the schematic.
type Polyline struct {
	raw
	Points []Position
	Stroke Stroke
	UUID   UUID
}

func (p *Polyline) Tag() string { return "polyline" }

// Image represents an embedded image. Data holds the base64 payload with
// whitespace stripped; the formatter re-wraps it at the fixed column width.
type Image struct {
	raw
	Position Position
	Scale    float64
	UUID     UUID
	Data     string
}

func (i *Image) Tag() string { return "image" }

// Opaque preserves a top-level element the library has no typed understanding
// of, so newer format elements round-trip unchanged. Header entries (version,
// paper, title_block, sheet_instances) are carried the same way.
type Opaque struct {
	raw
	Node *sexp.Node
}

func (o *Opaque) Tag() string { return o.Node.Tag() }

// Replace swaps the preserved tree for a new one and marks the entry dirty.
func (o *Opaque) Replace(node *sexp.Node) {
	o.Node = node
	o.MarkDirty()
}

// libSection tracks the lib_symbols container for selective re-rendering.
type libSection struct {
	raw
	symbols []*LibSymbol
}

func (l *libSection) Tag() string { return "lib_symbols" }

// IsDirty reports whether the section or any definition in it needs
// re-rendering, so an edit to one embedded symbol reaches the formatter.
func (l *libSection) IsDirty() bool {
	if l.raw.IsDirty() {
		return true
	}
	for _, sym := range l.symbols {
		if sym.IsDirty() {
			return true
		}
	}
	return false
}
