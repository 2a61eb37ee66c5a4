// Command sexp-compare cross-checks the native schematic reader against an
// independent s-expression parser. It compares list counts and leaf counts
// and flags files the two parsers disagree on, which usually means a lexer
// edge case (escapes, comments, odd whitespace).
package main

import (
	"fmt"
	"os"

	chewxy "github.com/chewxy/sexp"

	otsexp "github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: sexp-compare <file.kicad_sch|file.kicad_sym> ...")
		os.Exit(1)
	}

	failures := 0
	for _, filename := range os.Args[1:] {
		if err := compare(filename); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
			failures++
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func compare(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	native, err := otsexp.Parse(data)
	if err != nil {
		return fmt.Errorf("native parser: %w", err)
	}

	reference, err := chewxy.ParseString(string(data))
	if err != nil {
		return fmt.Errorf("reference parser: %w", err)
	}

	if len(native) != len(reference) {
		return fmt.Errorf("top-level count mismatch: native %d, reference %d",
			len(native), len(reference))
	}
	for i := range native {
		nLeaves := leafCount(native[i])
		rLeaves := reference[i].LeafCount()
		if nLeaves != rLeaves {
			return fmt.Errorf("expression %d: leaf count mismatch: native %d, reference %d",
				i, nLeaves, rLeaves)
		}
	}

	fmt.Printf("%s: OK (%d expression(s), %d leaves)\n",
		filename, len(native), leafCount(native[0]))
	return nil
}

func leafCount(n *otsexp.Node) int {
	if n.IsLeaf() {
		return 1
	}
	total := 0
	for _, child := range n.Children {
		total += leafCount(child)
	}
	return total
}
