// Package library loads symbol definitions from on-disk symbol libraries and
// resolves extends-style inheritance into ready-to-place symbols. Results are
// memoized per library id; a library file is parsed at most once regardless
// of how many placements reference it, even under concurrent first access.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/schematic"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

// LibraryError reports a library id that cannot be found on any configured
// search path, or a library file that cannot be read.
type LibraryError struct {
	LibID string
	Msg   string
}

func (e *LibraryError) Error() string {
	return fmt.Sprintf("library: %s: %s", e.LibID, e.Msg)
}

// CircularInheritanceError reports an extends chain that revisits a symbol
// already being resolved. It fails that symbol's resolution only; unrelated
// lookups keep working.
type CircularInheritanceError struct {
	Chain []string // resolution path, first element repeated at the cycle
}

func (e *CircularInheritanceError) Error() string {
	return fmt.Sprintf("library: circular extends chain: %s", strings.Join(e.Chain, " -> "))
}

// ResolvedSymbol is a symbol definition with every ancestor merged in. It is
// derived from, and never aliases, the raw definitions: mutating a resolved
// symbol does not touch the cache.
type ResolvedSymbol struct {
	LibID     string
	Name      string
	RefPrefix string // reference designator prefix ("R", "U")
	Pins      []schematic.Pin
	Graphics  []schematic.SymGraphic
	UnitCount int
}

// Pin returns the pin with the given number, or nil.
func (r *ResolvedSymbol) Pin(number string) *schematic.Pin {
	for i := range r.Pins {
		if r.Pins[i].Number == number {
			return &r.Pins[i]
		}
	}
	return nil
}

// Cache indexes symbol libraries on disk and memoizes raw and resolved
// definitions by library id ("LibName:SymbolName"). A library directory is
// only scanned when a symbol from it is first requested.
type Cache struct {
	mu         sync.Mutex
	paths      []string
	files      map[string]*libFile  // library name -> parse-once file entry
	resolved   map[string]*resEntry // full lib id -> resolve-once entry
	parseCount int
}

// libFile is the parse-once state for one library file.
type libFile struct {
	once sync.Once
	defs map[string]*schematic.LibSymbol
	err  error
	path string
}

// resEntry is the resolve-once state for one library id.
type resEntry struct {
	once sync.Once
	sym  *ResolvedSymbol
	err  error
}

// NewCache creates a cache searching the given directories for library files
// named "<LibName>.kicad_sym".
func NewCache(searchPaths ...string) *Cache {
	return &Cache{
		paths:    searchPaths,
		files:    make(map[string]*libFile),
		resolved: make(map[string]*resEntry),
	}
}

// AddSearchPath appends a library directory.
func (c *Cache) AddSearchPath(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, dir)
}

// ParseCount reports how many library files have been parsed, for cache
// idempotency checks.
func (c *Cache) ParseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parseCount
}

// Reset drops all cached definitions and zeroes the parse counter. The next
// Get re-reads library files.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = make(map[string]*libFile)
	c.resolved = make(map[string]*resEntry)
	c.parseCount = 0
}

// Get resolves a library id into a fully merged symbol. Repeated calls with
// the same id return the same result without re-reading the library file;
// concurrent first calls for one id wait for a single resolution instead of
// parsing twice.
func (c *Cache) Get(libID string) (*ResolvedSymbol, error) {
	c.mu.Lock()
	entry, ok := c.resolved[libID]
	if !ok {
		entry = &resEntry{}
		c.resolved[libID] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.sym, entry.err = c.resolve(libID, nil)
	})
	return entry.sym, entry.err
}

// resolve loads the raw definition and merges its extends chain. resolving
// holds the ids currently on the resolution stack; re-entering one is a
// circular inheritance error, not a recursion.
func (c *Cache) resolve(libID string, resolving []string) (*ResolvedSymbol, error) {
	for _, id := range resolving {
		if id == libID {
			return nil, &CircularInheritanceError{Chain: append(append([]string{}, resolving...), libID)}
		}
	}
	resolving = append(resolving, libID)

	libName, symName, err := SplitLibID(libID)
	if err != nil {
		return nil, err
	}
	defs, err := c.libraryDefs(libName)
	if err != nil {
		return nil, err
	}
	def, ok := defs[symName]
	if !ok {
		return nil, &LibraryError{LibID: libID, Msg: fmt.Sprintf("symbol %q not found in library %q", symName, libName)}
	}

	resolved := &ResolvedSymbol{
		LibID:     libID,
		Name:      symName,
		RefPrefix: refPrefix(def),
		UnitCount: len(def.Units),
	}

	if def.Extends != "" {
		// The parent lives in the same library unless qualified.
		parentID := def.Extends
		if !strings.Contains(parentID, ":") {
			parentID = libName + ":" + parentID
		}
		parent, err := c.resolve(parentID, resolving)
		if err != nil {
			return nil, err
		}
		resolved.Pins = append(resolved.Pins, parent.Pins...)
		resolved.Graphics = append(resolved.Graphics, parent.Graphics...)
		if resolved.RefPrefix == "" {
			resolved.RefPrefix = parent.RefPrefix
		}
		if resolved.UnitCount == 0 {
			resolved.UnitCount = parent.UnitCount
		}
	}

	mergeSymbol(resolved, def)
	return resolved, nil
}

// mergeSymbol appends the child's pins and graphics onto the resolved base.
// A child pin with the same number as an inherited pin overrides it.
func mergeSymbol(resolved *ResolvedSymbol, def *schematic.LibSymbol) {
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
}

// libraryDefs returns the parsed definitions of one library file, locating
// and parsing it on first use.
func (c *Cache) libraryDefs(libName string) (map[string]*schematic.LibSymbol, error) {
	c.mu.Lock()
	file, ok := c.files[libName]
	if !ok {
		file = &libFile{}
		c.files[libName] = file
	}
	paths := c.paths
	c.mu.Unlock()

	file.once.Do(func() {
		file.path = findLibraryFile(paths, libName)
		if file.path == "" {
			file.err = &LibraryError{LibID: libName, Msg: "no library file found on search paths"}
			return
		}
		file.defs, file.err = parseLibraryFile(file.path)
		if file.err == nil {
			c.mu.Lock()
			c.parseCount++
			c.mu.Unlock()
		}
	})
	return file.defs, file.err
}

// findLibraryFile scans the search paths lazily for "<libName>.kicad_sym".
func findLibraryFile(paths []string, libName string) string {
	for _, dir := range paths {
		candidate := filepath.Join(dir, libName+".kicad_sym")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// parseLibraryFile reads a (kicad_symbol_lib ...) file into its definitions.
func parseLibraryFile(path string) (map[string]*schematic.LibSymbol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LibraryError{LibID: path, Msg: err.Error()}
	}
	nodes, err := sexp.Parse(data)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 || nodes[0].Tag() != "kicad_symbol_lib" {
		return nil, &sexp.ParseError{Offset: 0, Msg: fmt.Sprintf("%s: expected 'kicad_symbol_lib' root", path)}
	}

	defs := make(map[string]*schematic.LibSymbol)
	for _, symNode := range sexp.FindAllNodes(nodes[0], "symbol") {
		def := schematic.ParseLibSymbolNode(symNode)
		defs[def.Name] = def
	}
	return defs, nil
}

// SplitLibID splits "LibName:SymbolName" into its parts.
func SplitLibID(libID string) (libName, symName string, err error) {
	idx := strings.Index(libID, ":")
	if idx <= 0 || idx == len(libID)-1 {
		return "", "", &LibraryError{LibID: libID, Msg: "invalid library id, want \"Library:Symbol\""}
	}
	return libID[:idx], libID[idx+1:], nil
}

// refPrefix pulls the reference designator prefix from a definition's
// Reference property.
func refPrefix(def *schematic.LibSymbol) string {
	for _, p := range def.Properties {
		if p.Key == "Reference" {
			return p.Value
		}
	}
	return ""
}
