package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/schematic"
	"github.com/OpenTraceLab/OpenTraceSch/pkg/sexp"
)

var (
	routeStrategy string
	routeDryRun   bool
)

var routeCmd = &cobra.Command{
	Use:   "route <schematic_file> <x1,y1> <x2,y2>",
	Short: "Add an orthogonal wire between two points",
	Long: `Route a wire between two sheet positions (millimeters) and write the
schematic back in place. Positions are snapped to the configured grid before
routing. Only the new wire is rendered; every existing element keeps its
original bytes.

Strategies: direct, horizontal_first, vertical_first, auto`,
	Args: cobra.ExactArgs(3),
	RunE: runRoute,
}

var junctionsCmd = &cobra.Command{
	Use:   "junctions <schematic_file>",
	Short: "Detect missing junction markers",
	Long: `List positions where three or more wire endpoints meet, or where a wire
ends on another wire's segment, without a junction marker. With --fix the
markers are inserted and the file rewritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runJunctions,
}

var (
	junctionsFix       bool
	junctionsCrossings bool
)

func init() {
	routeCmd.Flags().StringVarP(&routeStrategy, "strategy", "s", "auto", "routing strategy")
	routeCmd.Flags().BoolVarP(&routeDryRun, "dry-run", "n", false, "print the path without writing")
	junctionsCmd.Flags().BoolVar(&junctionsFix, "fix", false, "insert missing junction markers")
	junctionsCmd.Flags().BoolVar(&junctionsCrossings, "crossings", false, "treat X crossings as connections")
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(junctionsCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	start, err := parsePoint(args[1])
	if err != nil {
		return err
	}
	end, err := parsePoint(args[2])
	if err != nil {
		return err
	}

	routeCfg := routing.Config{
		Grid:      cfg.Routing.Grid,
		Tolerance: cfg.Routing.Tolerance,
	}
	start = routing.SnapToGrid(start, routeCfg.Grid)
	end = routing.SnapToGrid(end, routeCfg.Grid)
	path, err := routing.Route(start, end, routing.Strategy(routeStrategy), routeCfg)
	if err != nil {
		return err
	}

	if verbose || routeDryRun {
		var pts []string
		for _, p := range path {
			pts = append(pts, fmt.Sprintf("(%s, %s)", sexp.FormatFloat(p.X), sexp.FormatFloat(p.Y)))
		}
		fmt.Printf("Path: %s (length %s mm)\n", strings.Join(pts, " -> "),
			sexp.FormatFloatPrec(routing.PathLength(path), 2))
	}
	if routeDryRun {
		return nil
	}

	filename := args[0]
	sch, err := schematic.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("error parsing schematic: %w", err)
	}
	sch.AddWire(path)
	return os.WriteFile(filename, sch.Format(), 0644)
}

func runJunctions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	filename := args[0]
	sch, err := schematic.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("error parsing schematic: %w", err)
	}

	routeCfg := routing.Config{
		Grid:            cfg.Routing.Grid,
		Tolerance:       cfg.Routing.Tolerance,
		DetectCrossings: cfg.Routing.DetectCrossings || junctionsCrossings,
	}
	missing := routing.MissingJunctions(sch, routeCfg)
	if len(missing) == 0 {
		fmt.Println("No missing junctions")
		return nil
	}

	for _, pos := range missing {
		fmt.Printf("Missing junction at (%s, %s)\n", sexp.FormatFloat(pos.X), sexp.FormatFloat(pos.Y))
	}
	if !junctionsFix {
		return nil
	}

	for _, pos := range missing {
		sch.AddJunction(pos)
	}
	if err := os.WriteFile(filename, sch.Format(), 0644); err != nil {
		return err
	}
	fmt.Printf("Inserted %d junction(s)\n", len(missing))
	return nil
}

// parsePoint parses "x,y" in millimeters.
func parsePoint(s string) (sexp.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return sexp.Position{}, fmt.Errorf("invalid point %q, want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return sexp.Position{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return sexp.Position{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return sexp.Position{X: x, Y: y}, nil
}
