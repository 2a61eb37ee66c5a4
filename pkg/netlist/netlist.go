// Package netlist derives electrical connectivity from a schematic: which
// symbol pins, wires and labels share a net. Connectivity is tracked with a
// union-find structure so merging runs in near-constant amortized time.
package netlist

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PinRef identifies one symbol pin on the sheet.
type PinRef struct {
	Reference string `json:"reference"` // symbol reference designator
	PinNumber string `json:"pin"`
	PinName   string `json:"pin_name,omitempty"`
}

// Net is a connected set of pins, optionally named by a label.
type Net struct {
	ID   int      `json:"id"`
	Name string   `json:"name"`
	Pins []PinRef `json:"pins"`
}

// Netlist accumulates connectivity between pins and net names. Call Connect
// and Name while building, then Finalize to produce the net set.
type Netlist struct {
	parent map[string]string
	rank   map[string]int

	pins  map[string]PinRef
	names map[string][]string // union-find key -> label names attached

	Nets []*Net
}

// New creates an empty netlist.
func New() *Netlist {
	return &Netlist{
		parent: make(map[string]string),
		rank:   make(map[string]int),
		pins:   make(map[string]PinRef),
		names:  make(map[string][]string),
	}
}

// AddPin registers a pin as its own isolated net.
func (nl *Netlist) AddPin(pin PinRef) {
	key := pinKey(pin)
	if _, ok := nl.parent[key]; ok {
		return
	}
	nl.parent[key] = key
	nl.rank[key] = 0
	nl.pins[key] = pin
}

// AddPoint registers a bare connection point (a wire endpoint) identified by
// an arbitrary key, so wires can be merged before any pin lands on them.
func (nl *Netlist) AddPoint(key string) {
	if _, ok := nl.parent[key]; ok {
		return
	}
	nl.parent[key] = key
	nl.rank[key] = 0
}

// Connect merges the nets containing the two keys.
func (nl *Netlist) Connect(a, b string) {
	nl.AddPoint(a)
	nl.AddPoint(b)
	rootA := nl.find(a)
	rootB := nl.find(b)
	if rootA == rootB {
		return
	}
	// Union by rank.
	switch {
	case nl.rank[rootA] < nl.rank[rootB]:
		nl.parent[rootA] = rootB
	case nl.rank[rootA] > nl.rank[rootB]:
		nl.parent[rootB] = rootA
	default:
		nl.parent[rootB] = rootA
		nl.rank[rootA]++
	}
}

// ConnectPins merges the nets of two pins.
func (nl *Netlist) ConnectPins(a, b PinRef) {
	nl.AddPin(a)
	nl.AddPin(b)
	nl.Connect(pinKey(a), pinKey(b))
}

// Name attaches a label name to the net containing the given key.
func (nl *Netlist) Name(key, name string) {
	nl.AddPoint(key)
	root := nl.find(key)
	nl.names[root] = append(nl.names[root], name)
}

// find returns the representative key with path compression.
func (nl *Netlist) find(key string) string {
	root := key
	for nl.parent[root] != root {
		root = nl.parent[root]
	}
	current := key
	for current != root {
		next := nl.parent[current]
		nl.parent[current] = root
		current = next
	}
	return root
}

// Finalize groups pins by net and assigns names and ids. Nets with a label
// take the lexically first attached name; unnamed nets get "Net-<id>".
// Single-pin groups without a name are dropped.
func (nl *Netlist) Finalize() {
	groups := make(map[string][]PinRef)
	for key, pin := range nl.pins {
		root := nl.find(key)
		groups[root] = append(groups[root], pin)
	}
	// Label names may sit on roots that were merged after naming.
	netNames := make(map[string]string)
	for key, names := range nl.names {
		root := nl.find(key)
		sort.Strings(names)
		if existing, ok := netNames[root]; !ok || names[0] < existing {
			netNames[root] = names[0]
		}
	}

	roots := make([]string, 0, len(groups))
	for root := range groups {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	nl.Nets = nl.Nets[:0]
	id := 1
	for _, root := range roots {
		pins := groups[root]
		name := netNames[root]
		if len(pins) < 2 && name == "" {
			continue
		}
		sort.Slice(pins, func(i, j int) bool {
			if pins[i].Reference != pins[j].Reference {
				return pins[i].Reference < pins[j].Reference
			}
			return pins[i].PinNumber < pins[j].PinNumber
		})
		if name == "" {
			name = fmt.Sprintf("Net-%d", id)
		}
		nl.Nets = append(nl.Nets, &Net{ID: id, Name: name, Pins: pins})
		id++
	}
	sort.Slice(nl.Nets, func(i, j int) bool { return nl.Nets[i].Name < nl.Nets[j].Name })
}

// NetCount returns the number of nets. Only valid after Finalize.
func (nl *Netlist) NetCount() int {
	return len(nl.Nets)
}

// ExportJSON renders the finalized netlist as indented JSON.
func (nl *Netlist) ExportJSON() ([]byte, error) {
	if nl.Nets == nil {
		return nil, fmt.Errorf("netlist: not finalized")
	}
	output := struct {
		Version  string `json:"version"`
		NetCount int    `json:"net_count"`
		Nets     []*Net `json:"nets"`
	}{
		Version:  "1.0",
		NetCount: nl.NetCount(),
		Nets:     nl.Nets,
	}
	return json.MarshalIndent(output, "", "  ")
}

func pinKey(pin PinRef) string {
	return fmt.Sprintf("pin:%s:%s", pin.Reference, pin.PinNumber)
}
