package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/library"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/netlist"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/schematic"
)

var netlistOutput string

var netlistCmd = &cobra.Command{
	Use:   "netlist <schematic_file>",
	Short: "Export connectivity as JSON",
	Long: `Derive the electrical nets of a schematic from its wires, labels, and
symbol pin positions, and export them as JSON. Symbol definitions come from
the schematic's embedded lib_symbols section, with configured library
directories as fallback.`,
	Args: cobra.ExactArgs(1),
	RunE: runNetlist,
}

func init() {
	netlistCmd.Flags().StringVarP(&netlistOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(netlistCmd)
}

func runNetlist(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sch, err := schematic.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing schematic: %w", err)
	}

	cache := library.NewCache(cfg.Libraries.Paths...)
	nl, unresolved, err := netlist.Extract(sch, cache, cfg.Routing.Tolerance)
	if err != nil {
		return err
	}
	for _, ref := range unresolved {
		fmt.Fprintf(os.Stderr, "warning: no symbol definition for %s, pins skipped\n", ref)
	}

	data, err := nl.ExportJSON()
	if err != nil {
		return err
	}
	if netlistOutput == "" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(netlistOutput, data, 0644)
}
