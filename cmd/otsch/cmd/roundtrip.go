package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSch/pkg/schematic"
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <schematic_file>",
	Short: "Verify parse/format fidelity",
	Long: `Parse a schematic and format it again without any edits, then compare
the output byte-for-byte with the original file. Any difference means an
element was not preserved faithfully.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoundtrip,
}

func init() {
	rootCmd.AddCommand(roundtripCmd)
}

func runRoundtrip(cmd *cobra.Command, args []string) error {
	filename := args[0]
	original, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	sch, err := schematic.ParseBytes(original)
	if err != nil {
		return fmt.Errorf("error parsing schematic: %w", err)
	}
	output := sch.Format()

	if bytes.Equal(original, output) {
		fmt.Printf("%s: OK (%d bytes, %d elements)\n", filename, len(original), len(sch.Elements))
		return nil
	}

	offset := firstDifference(original, output)
	line := 1 + bytes.Count(original[:min(offset, len(original))], []byte{'\n'})
	return fmt.Errorf("%s: output differs at byte %d (line %d): original %d bytes, formatted %d bytes",
		filename, offset, line, len(original), len(output))
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
