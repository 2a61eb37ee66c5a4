package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSch/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "otsch",
	Short: "OpenTraceSch - KiCad schematic editing tools",
	Long: `OpenTraceSch (otsch) reads, edits, and writes KiCad schematic files
while preserving the byte-exact formatting of everything it does not touch.

Examples:
  otsch info design.kicad_sch             # Show schematic summary
  otsch roundtrip design.kicad_sch        # Verify parse/format fidelity
  otsch route design.kicad_sch 10,20 30,40
  otsch junctions design.kicad_sch --fix  # Insert missing junction markers
  otsch netlist design.kicad_sch          # Export connectivity as JSON
  otsch bom design.kicad_sch              # Export bill of materials as CSV`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/otsch/config.toml)")
}

// loadConfig reads the configuration selected by the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
