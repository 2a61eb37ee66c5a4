package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const resistorLib = `(kicad_symbol_lib
	(version 20231120)
	(generator "test")
	(symbol "R"
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
	(symbol "R_Small"
		(extends "R")
		(property "Reference" "R" (at 0.762 0.508 90) (effects (font (size 1.27 1.27))))
		(symbol "R_Small_1_1"
			(pin passive line (at 0 1.27 270) (length 0.508)
				(name "~" (effects (font (size 1.27 1.27))))
				(number "1" (effects (font (size 1.27 1.27))))
			)
		)
	)
)
`

func writeLib(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".kicad_sym"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCacheGet(t *testing.T) {
	dir := t.TempDir()
	writeLib(t, dir, "Device", resistorLib)

	cache := NewCache(dir)
	sym, err := cache.Get("Device:R")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sym.Name != "R" || sym.RefPrefix != "R" {
		t.Errorf("Got %s / %s", sym.Name, sym.RefPrefix)
	}
	if len(sym.Pins) != 2 {
		t.Fatalf("Expected 2 pins, got %d", len(sym.Pins))
	}
	if sym.Pin("1") == nil || sym.Pin("2") == nil {
		t.Error("Pins 1 and 2 expected")
	}
	if len(sym.Graphics) != 1 {
		t.Errorf("Expected 1 graphic, got %d", len(sym.Graphics))
	}
}

func TestCacheParsesFileOnce(t *testing.T) {
	dir := t.TempDir()
	writeLib(t, dir, "Device", resistorLib)

	cache := NewCache(dir)
	for i := 0; i < 5; i++ {
		if _, err := cache.Get("Device:R"); err != nil {
			t.Fatal(err)
		}
		if _, err := cache.Get("Device:R_Small"); err != nil {
			t.Fatal(err)
		}
	}
	if n := cache.ParseCount(); n != 1 {
		t.Errorf("Library file parsed %d times, want 1", n)
	}

	cache.Reset()
	if _, err := cache.Get("Device:R"); err != nil {
		t.Fatal(err)
	}
	if n := cache.ParseCount(); n != 1 {
		t.Errorf("After reset, parse count = %d, want 1", n)
	}
}

func TestExtendsMerge(t *testing.T) {
	dir := t.TempDir()
	writeLib(t, dir, "Device", resistorLib)

	cache := NewCache(dir)
	sym, err := cache.Get("Device:R_Small")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	// Inherited pin 2 plus overridden pin 1.
	if len(sym.Pins) != 2 {
		t.Fatalf("Expected 2 pins after merge, got %d", len(sym.Pins))
	}
	pin1 := sym.Pin("1")
	if pin1 == nil {
		t.Fatal("Pin 1 missing")
	}
	if pin1.Length != 0.508 {
		t.Errorf("Pin 1 not overridden by child, length = %v", pin1.Length)
	}
	pin2 := sym.Pin("2")
	if pin2 == nil || pin2.Length != 1.27 {
		t.Error("Inherited pin 2 missing or wrong")
	}
	// Parent's rectangle comes along.
	if len(sym.Graphics) != 1 {
		t.Errorf("Expected inherited graphic, got %d", len(sym.Graphics))
	}
}

func TestCircularExtends(t *testing.T) {
	for n := 1; n <= 5; n++ {
		dir := t.TempDir()
		writeLib(t, dir, "Cyclic", buildCycle(n))

		cache := NewCache(dir)
		_, err := cache.Get("Cyclic:S0")
		var cerr *CircularInheritanceError
		if !errors.As(err, &cerr) {
			t.Fatalf("Cycle length %d: expected CircularInheritanceError, got %v", n, err)
		}
		if len(cerr.Chain) != n+1 {
			t.Errorf("Cycle length %d: chain %v", n, cerr.Chain)
		}
	}
}

// buildCycle generates n definitions where S0 extends S1 ... extends S0.
func buildCycle(n int) string {
	var sb strings.Builder
	sb.WriteString("(kicad_symbol_lib (version 20231120) (generator \"test\")\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "\t(symbol \"S%d\" (extends \"S%d\"))\n", i, (i+1)%n)
	}
	sb.WriteString(")\n")
	return sb.String()
}

func TestCycleDoesNotPoisonSiblings(t *testing.T) {
	lib := `(kicad_symbol_lib
	(symbol "A" (extends "B"))
	(symbol "B" (extends "A"))
	(symbol "OK"
		(symbol "OK_1_1"
			(pin passive line (at 0 0 0) (length 1.27)
				(name "~" (effects (font (size 1.27 1.27))))
				(number "1" (effects (font (size 1.27 1.27))))
			)
		)
	)
)
`
	dir := t.TempDir()
	writeLib(t, dir, "Mixed", lib)

	cache := NewCache(dir)
	if _, err := cache.Get("Mixed:A"); err == nil {
		t.Fatal("Expected cycle error for A")
	}
	sym, err := cache.Get("Mixed:OK")
	if err != nil {
		t.Fatalf("Sibling resolution failed after cycle: %v", err)
	}
	if len(sym.Pins) != 1 {
		t.Errorf("Expected 1 pin, got %d", len(sym.Pins))
	}
}

func TestMissingLibraryAndSymbol(t *testing.T) {
	dir := t.TempDir()
	writeLib(t, dir, "Device", resistorLib)

	cache := NewCache(dir)
	var lerr *LibraryError

	_, err := cache.Get("Nowhere:R")
	if !errors.As(err, &lerr) {
		t.Fatalf("Expected LibraryError for missing library, got %v", err)
	}
	_, err = cache.Get("Device:NoSuchSymbol")
	if !errors.As(err, &lerr) {
		t.Fatalf("Expected LibraryError for missing symbol, got %v", err)
	}
	_, err = cache.Get("bad-id")
	if !errors.As(err, &lerr) {
		t.Fatalf("Expected LibraryError for malformed id, got %v", err)
	}
}

func TestSearchPathOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeLib(t, second, "Device", resistorLib)

	// Library only exists on the second path.
	cache := NewCache(first, second)
	if _, err := cache.Get("Device:R"); err != nil {
		t.Fatalf("Second search path not consulted: %v", err)
	}
}

func TestConcurrentGet(t *testing.T) {
	dir := t.TempDir()
	writeLib(t, dir, "Device", resistorLib)

	cache := NewCache(dir)
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get("Device:R_Small"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if n := cache.ParseCount(); n != 1 {
		t.Errorf("Concurrent access parsed file %d times", n)
	}
}
