// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"extscan-cli/internal/categorize"
	"extscan-cli/internal/compat"
	"extscan-cli/internal/config"
	"extscan-cli/internal/issue"
	"extscan-cli/internal/report"
	"extscan-cli/internal/scan"
	"extscan-cli/internal/store"
	"extscan-cli/pkg/types"
)

var scanFlags struct {
	root            string
	out             string
	builtinDir      string
	workers         int
	sampleCap       int
	baseline        string
	reportPath      string
	jsonOutput      bool
	skipIntegration bool
}

// scanCmd runs the full inventory pipeline: scan, categorize, assess, report.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan an extension corpus and write the inventory report",
	Long: `Scan an extension corpus and write the inventory report.

The scan walks the corpus for extension manifests (package.json) and
TypeScript declaration files (*.d.ts), extracts contribution points,
activation events, and declared API types, aggregates them into JSON
collections under the output directory, and renders a markdown report
with ranked views and a compatibility assessment.

Per-file extraction failures never abort the scan; they surface as
diagnostics in the report and the scan exits zero with partial status.`,
	Example: `  extscan scan --root ./corpus
  extscan scan --root ./corpus --out ./inventory --report ./inventory/report.md
  extscan scan --root ./corpus --baseline ./baseline.cue --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanFlags.root, "root", "", "corpus directory to scan (required)")
	scanCmd.Flags().StringVar(&scanFlags.out, "out", "", "output directory for aggregate collections (default \"extscan-out\")")
	scanCmd.Flags().StringVar(&scanFlags.builtinDir, "builtin-dir", "", "corpus subtree holding built-in extensions (default \"extensions\")")
	scanCmd.Flags().IntVar(&scanFlags.workers, "workers", 0, "number of extraction workers (default: CPU count)")
	scanCmd.Flags().IntVar(&scanFlags.sampleCap, "sample-cap", 0, "max sample lines per integration token")
	scanCmd.Flags().StringVar(&scanFlags.baseline, "baseline", "", "CUE baseline file for the compatibility assessment")
	scanCmd.Flags().StringVar(&scanFlags.reportPath, "report", "", "markdown report path (default \"<out>/report.md\")")
	scanCmd.Flags().BoolVar(&scanFlags.jsonOutput, "json", false, "emit the JSON summary to stdout")
	scanCmd.Flags().BoolVar(&scanFlags.skipIntegration, "skip-integration-surface", false, "skip the advisory integration surface search")

	if err := scanCmd.MarkFlagRequired("root"); err != nil {
		panic(err)
	}
}

func runScan(cmd *cobra.Command) error {
	opts := scanOptionsFromFlags()
	if err := opts.Normalize(); err != nil {
		var rootErr *scan.CorpusRootError
		if errors.As(err, &rootErr) {
			rendered, _ := issue.Get(issue.CorpusRootMissingId).Render("dark")
			fmt.Fprint(os.Stderr, rendered)
		}
		return &ExitError{Code: types.ScanStatusFailed.ExitCode(), Err: err}
	}

	// Load the baseline first: a bad --baseline must not cost a full corpus
	// scan to discover.
	baseline, err := loadBaselineFromFlag(scanFlags.baseline)
	if err != nil {
		rendered, _ := issue.Get(issue.BaselineParseFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return &ExitError{Code: types.ScanStatusFailed.ExitCode(), Err: err}
	}
	assessor, err := compat.NewAssessor(baseline)
	if err != nil {
		rendered, _ := issue.Get(issue.BaselineParseFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return &ExitError{Code: types.ScanStatusFailed.ExitCode(), Err: err}
	}

	result, err := scan.Run(cmd.Context(), opts)
	if err != nil {
		if cmd.Context().Err() != nil {
			return err
		}
		var writeErr *store.WriteFailure
		var rootErr *scan.CorpusRootError
		switch {
		case errors.As(err, &writeErr):
			rendered, _ := issue.Get(issue.AggregateWriteFailedId).Render("dark")
			fmt.Fprint(os.Stderr, rendered)
		case errors.As(err, &rootErr):
			rendered, _ := issue.Get(issue.CorpusRootMissingId).Render("dark")
			fmt.Fprint(os.Stderr, rendered)
		}
		return &ExitError{Code: types.ScanStatusFailed.ExitCode(), Err: err}
	}

	agg := result.Aggregate
	views := categorize.Categorize(agg.Contributions, agg.Activations, agg.Drift)
	matrix := assessor.Assess(agg.Manifests)

	rpt := &report.Report{
		GeneratedAt: time.Now().UTC(),
		Scan:        result,
		Views:       views,
		Compat:      matrix,
	}

	reportPath := scanFlags.reportPath
	if reportPath == "" {
		reportPath = filepath.Join(opts.Out, "report.md")
	}
	if err := report.WriteMarkdown(rpt, reportPath); err != nil {
		rendered, _ := issue.Get(issue.ReportWriteFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return &ExitError{Code: types.ScanStatusFailed.ExitCode(), Err: err}
	}

	if scanFlags.jsonOutput {
		if err := report.WriteSummaryJSON(os.Stdout, rpt); err != nil {
			rendered, _ := issue.Get(issue.ReportWriteFailedId).Render("dark")
			fmt.Fprint(os.Stderr, rendered)
			return &ExitError{Code: types.ScanStatusFailed.ExitCode(), Err: err}
		}
	} else {
		printScanSummary(result, matrix, reportPath)
	}

	if code := result.Status.ExitCode(); !code.IsSuccess() {
		return &ExitError{Code: code}
	}
	return nil
}

// scanOptionsFromFlags builds scan options from config defaults overridden by
// explicit flags.
func scanOptionsFromFlags() scan.Options {
	opts := scan.Options{
		Root:                   scanFlags.root,
		Out:                    scanFlags.out,
		BuiltinDir:             scanFlags.builtinDir,
		Workers:                scanFlags.workers,
		SampleCap:              scanFlags.sampleCap,
		SkipIntegrationSurface: scanFlags.skipIntegration,
		Verbose:                verbose,
	}

	// Config fills anything the flags left at zero.
	if cfg, err := config.Load(); err == nil {
		if opts.BuiltinDir == "" {
			opts.BuiltinDir = cfg.BuiltinDir
		}
		if opts.Workers == 0 {
			opts.Workers = cfg.Workers
		}
		if opts.SampleCap == 0 {
			opts.SampleCap = cfg.SampleCap
		}
		opts.CheckpointEvery = cfg.CheckpointEvery
		opts.ExtraVendorKeywords = cfg.ExtraVendorKeywords
	}
	return opts
}

func loadBaselineFromFlag(path string) (compat.Baseline, error) {
	if path == "" {
		return compat.DefaultBaseline()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return compat.Baseline{}, fmt.Errorf("read baseline: %w", err)
	}
	return compat.LoadBaseline(data, path)
}

func printScanSummary(result *scan.Result, matrix *compat.Matrix, reportPath string) {
	statusStyle := SuccessStyle
	if result.Status != types.ScanStatusSuccess {
		statusStyle = WarningStyle
	}

	fmt.Println(TitleStyle.Render("Scan complete"))
	fmt.Printf("%s: %s\n", CmdStyle.Render("Status"), statusStyle.Render(result.Status.String()))
	fmt.Printf("%s: %d manifests, %d declaration files\n",
		CmdStyle.Render("Files"), result.ManifestFiles, result.DeclarationFiles)
	fmt.Printf("%s: %d built-in, %d vendor-specific\n",
		CmdStyle.Render("Extensions"), result.BuiltinManifests, result.VendorSpecific)
	fmt.Printf("%s: %d compatible, %d needs review, %d incompatible\n",
		CmdStyle.Render("Compatibility"), matrix.Compatible, matrix.NeedsReview, matrix.Incompatible)
	if len(result.Diagnostics) > 0 {
		fmt.Printf("%s: %d (see report)\n", WarningStyle.Render("Diagnostics"), len(result.Diagnostics))
	}
	fmt.Printf("%s: %s\n", CmdStyle.Render("Report"), reportPath)
}
