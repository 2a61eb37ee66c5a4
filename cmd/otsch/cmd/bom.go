package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/schematic"
)

var bomOutput string

var bomCmd = &cobra.Command{
	Use:   "bom <schematic_file>",
	Short: "Export bill of materials as CSV",
	Long: `Group placed components by value and footprint and export the groups as
CSV with reference lists and quantities. Components marked not-in-bom are
excluded.`,
	Args: cobra.ExactArgs(1),
	RunE: runBom,
}

func init() {
	bomCmd.Flags().StringVarP(&bomOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(bomCmd)
}

type bomGroup struct {
	value     string
	footprint string
	refs      []string
}

func runBom(cmd *cobra.Command, args []string) error {
	sch, err := schematic.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing schematic: %w", err)
	}

	groups := make(map[string]*bomGroup)
	for _, sym := range sch.Symbols() {
		if !sym.InBom {
			continue
		}
		ref := sym.Reference()
		if ref == "" {
			continue
		}
		value := sym.Value()
		footprint := sym.Property("Footprint")
		key := value + "\x00" + footprint
		g, ok := groups[key]
		if !ok {
			g = &bomGroup{value: value, footprint: footprint}
			groups[key] = g
		}
		g.refs = append(g.refs, ref)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := os.Stdout
	if bomOutput != "" {
		f, err := os.Create(bomOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"References", "Value", "Footprint", "Quantity"}); err != nil {
		return err
	}
	for _, key := range keys {
		g := groups[key]
		sort.Strings(g.refs)
		row := []string{strings.Join(g.refs, ", "), g.value, g.footprint, fmt.Sprintf("%d", len(g.refs))}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
