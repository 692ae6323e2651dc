// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"extscan-cli/internal/compat"
	"extscan-cli/internal/issue"
	"extscan-cli/internal/store"
)

var compatFlags struct {
	out        string
	baseline   string
	jsonOutput bool
}

// compatCmd re-assesses compatibility from the persisted aggregate without
// re-scanning the corpus.
var compatCmd = &cobra.Command{
	Use:   "compat",
	Short: "Assess compatibility from stored collections",
	Long: `Assess compatibility from stored collections.

Reads the aggregate collections a previous 'extscan scan' wrote to the
output directory and evaluates every manifest against the baseline,
without walking the corpus again. Useful for iterating on a baseline
file after a single expensive scan.`,
	Example: `  extscan compat --out ./extscan-out
  extscan compat --out ./extscan-out --baseline ./baseline.cue --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompat()
	},
}

func init() {
	compatCmd.Flags().StringVar(&compatFlags.out, "out", "extscan-out", "output directory holding the aggregate collections")
	compatCmd.Flags().StringVar(&compatFlags.baseline, "baseline", "", "CUE baseline file (default: built-in baseline)")
	compatCmd.Flags().BoolVar(&compatFlags.jsonOutput, "json", false, "emit the matrix as JSON to stdout")
}

func runCompat() error {
	agg, err := store.Load(compatFlags.out)
	if err != nil {
		rendered, _ := issue.Get(issue.AggregateNotFoundId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}
	if len(agg.Manifests) == 0 {
		rendered, _ := issue.Get(issue.AggregateNotFoundId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return fmt.Errorf("no manifests in aggregate at %s", compatFlags.out)
	}

	baseline, err := loadBaselineFromFlag(compatFlags.baseline)
	if err != nil {
		rendered, _ := issue.Get(issue.BaselineParseFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}
	assessor, err := compat.NewAssessor(baseline)
	if err != nil {
		rendered, _ := issue.Get(issue.BaselineParseFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	matrix := assessor.Assess(agg.Manifests)

	if compatFlags.jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(matrix)
	}

	printMatrix(matrix)
	return nil
}

func printMatrix(matrix *compat.Matrix) {
	fmt.Println(TitleStyle.Render("Compatibility Matrix"))
	fmt.Printf("%s: %d total, %s %d, %s %d, %s %d\n",
		CmdStyle.Render("Summary"), matrix.Total,
		SuccessStyle.Render("compatible"), matrix.Compatible,
		WarningStyle.Render("needs review"), matrix.NeedsReview,
		ErrorStyle.Render("incompatible"), matrix.Incompatible)
	fmt.Println()

	for _, verdict := range matrix.Verdicts {
		style := SuccessStyle
		switch verdict.Status {
		case compat.StatusNeedsReview:
			style = WarningStyle
		case compat.StatusIncompatible:
			style = ErrorStyle
		}

		fmt.Printf("%s  %s\n", style.Render(string(verdict.Status)), verdict.ExtensionName)
		if len(verdict.Issues) > 0 && verbose {
			fmt.Printf("    %s\n", VerboseStyle.Render(strings.Join(verdict.Issues, "; ")))
		}
	}
}
