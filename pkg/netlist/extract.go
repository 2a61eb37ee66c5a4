package netlist

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/geometry"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/library"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/schematic"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

// Extract builds the netlist of a schematic. Wires merge whatever their
// endpoints touch; labels name the net at their position; symbol pins connect
// where their transformed connection point lands. Symbols whose library id
// cannot be resolved are skipped with their references collected in the
// returned slice.
func Extract(sch *schematic.Schematic, cache *library.Cache, tol float64) (*Netlist, []string, error) {
	if tol <= 0 {
		tol = 0.1
	}
	nl := New()
	idx := newPointIndex(tol)

	for wi, w := range sch.Wires() {
		if len(w.Points) < 2 {
			continue
		}
		prev := ""
		for pi, pt := range w.Points {
			key := fmt.Sprintf("wire:%d:%d", wi, pi)
			nl.AddPoint(key)
			idx.add(pt, key)
			if prev != "" {
				nl.Connect(prev, key)
			}
			prev = key
		}
	}

	// Merge every pair of coincident wire points.
	idx.eachCoincident(func(a, b string) { nl.Connect(a, b) })

	for _, l := range sch.Labels() {
		if keys := idx.at(l.Position); len(keys) > 0 {
			nl.Name(keys[0], l.Text)
		} else {
			// A label with no wire under it still names a single-point net.
			key := fmt.Sprintf("label:%s:%s", l.Text, posKey(l.Position))
			nl.AddPoint(key)
			idx.add(l.Position, key)
			nl.Name(key, l.Text)
		}
	}

	var unresolved []string
	for _, inst := range sch.Symbols() {
		sym, err := resolveInstance(sch, cache, inst)
		if err != nil {
			unresolved = append(unresolved, inst.Reference())
			continue
		}
		pins, err := geometry.AbsolutePins(sym, geometry.PlacementOf(inst))
		if err != nil {
			return nil, nil, err
		}
		for _, pin := range pins {
			ref := PinRef{Reference: inst.Reference(), PinNumber: pin.Number, PinName: pin.Name}
			nl.AddPin(ref)
			for _, key := range idx.at(pin.Position) {
				nl.Connect(pinKey(ref), key)
			}
			idx.add(pin.Position, pinKey(ref))
		}
	}

	nl.Finalize()
	return nl, unresolved, nil
}

// resolveInstance prefers the schematic's embedded definitions, falling back
// to the library cache.
func resolveInstance(sch *schematic.Schematic, cache *library.Cache, inst *schematic.SymbolInstance) (*library.ResolvedSymbol, error) {
	if def := sch.GetLibSymbol(inst.LibID); def != nil {
		return resolveEmbedded(sch, def, nil)
	}
	if cache == nil {
		return nil, &library.LibraryError{LibID: inst.LibID, Msg: "no embedded definition and no library cache"}
	}
	return cache.Get(inst.LibID)
}

// resolveEmbedded merges extends chains within the schematic's own
// lib_symbols section.
func resolveEmbedded(sch *schematic.Schematic, def *schematic.LibSymbol, seen []string) (*library.ResolvedSymbol, error) {
	for _, name := range seen {
		if name == def.Name {
			return nil, &library.CircularInheritanceError{Chain: append(append([]string{}, seen...), def.Name)}
		}
	}
	seen = append(seen, def.Name)

	resolved := &library.ResolvedSymbol{LibID: def.Name, Name: def.Name}
	if def.Extends != "" {
		parent := sch.GetLibSymbol(def.Extends)
		if parent == nil {
			// Embedded extends may reference the qualified sibling id.
			if lib, _, err := library.SplitLibID(def.Name); err == nil {
				parent = sch.GetLibSymbol(lib + ":" + def.Extends)
			}
		}
		if parent == nil {
			return nil, &library.LibraryError{LibID: def.Name, Msg: fmt.Sprintf("extends %q not found in embedded definitions", def.Extends)}
		}
		base, err := resolveEmbedded(sch, parent, seen)
		if err != nil {
			return nil, err
		}
		resolved.Pins = append(resolved.Pins, base.Pins...)
		resolved.Graphics = append(resolved.Graphics, base.Graphics...)
	}
	for _, pin := range def.Pins {
		if existing := resolved.Pin(pin.Number); existing != nil {
			*existing = *pin
			continue
		}
		resolved.Pins = append(resolved.Pins, *pin)
	}
	for _, g := range def.Graphics {
		resolved.Graphics = append(resolved.Graphics, *g)
	}
	return resolved, nil
}

// pointIndex buckets connection point keys by quantized position so that
// coincidence checks stay linear in the number of points.
type pointIndex struct {
	tol     float64
	buckets map[string][]indexed
}

type indexed struct {
	pos sexp.Position
	key string
}

func newPointIndex(tol float64) *pointIndex {
	return &pointIndex{tol: tol, buckets: make(map[string][]indexed)}
}

func (idx *pointIndex) bucketKey(p sexp.Position) string {
	// Quantize at twice the tolerance; neighbors are checked explicitly.
	q := idx.tol * 2
	return fmt.Sprintf("%d:%d", int(math.Floor(p.X/q)), int(math.Floor(p.Y/q)))
}

func (idx *pointIndex) add(p sexp.Position, key string) {
	idx.buckets[idx.bucketKey(p)] = append(idx.buckets[idx.bucketKey(p)], indexed{p, key})
}

// at returns the keys of points within tolerance of p.
func (idx *pointIndex) at(p sexp.Position) []string {
	var keys []string
	q := idx.tol * 2
	bx := math.Floor(p.X / q)
	by := math.Floor(p.Y / q)
	for dx := -1.0; dx <= 1; dx++ {
		for dy := -1.0; dy <= 1; dy++ {
			bucket := fmt.Sprintf("%d:%d", int(bx+dx), int(by+dy))
			for _, entry := range idx.buckets[bucket] {
				if math.Abs(entry.pos.X-p.X) <= idx.tol && math.Abs(entry.pos.Y-p.Y) <= idx.tol {
					keys = append(keys, entry.key)
				}
			}
		}
	}
	return keys
}

// eachCoincident invokes fn for every pair of distinct keys sharing a
// position within tolerance.
func (idx *pointIndex) eachCoincident(fn func(a, b string)) {
	for _, entries := range idx.buckets {
		for i := range entries {
			for _, other := range idx.at(entries[i].pos) {
				if other != entries[i].key {
					fn(entries[i].key, other)
				}
			}
		}
	}
}

func posKey(p sexp.Position) string {
	return fmt.Sprintf("%s,%s", sexp.FormatFloat(p.X), sexp.FormatFloat(p.Y))
}
