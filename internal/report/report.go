// SPDX-License-Identifier: MPL-2.0

// Package report renders the inventory results: a markdown report for humans
// and an indented JSON summary for tooling. Every section is emitted in a
// deterministic order so two runs over the same corpus produce identical
// bytes.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"extscan-cli/internal/categorize"
	"extscan-cli/internal/compat"
	"extscan-cli/internal/scan"
	"extscan-cli/pkg/declscan"
)

// Report bundles everything a single pipeline run produced.
type Report struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Scan        *scan.Result       `json:"scan"`
	Views       *categorize.Result `json:"views"`
	Compat      *compat.Matrix     `json:"compat"`
}

var declarationKindOrder = []declscan.DeclarationKind{
	declscan.KindInterface,
	declscan.KindClass,
	declscan.KindEnum,
	declscan.KindTypeAlias,
}

// WriteMarkdown writes the markdown report to path.
func WriteMarkdown(report *Report, path string) error {
	if report == nil {
		return errors.New("report is nil")
	}
	if path == "" {
		return errors.New("report path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown produces the full markdown report.
func RenderMarkdown(report *Report) string {
	generatedAt := report.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	var sb strings.Builder
	sb.WriteString("# Extension API Surface Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339)))

	writeScanSection(&sb, report.Scan)
	writeContributionSection(&sb, report.Views)
	writeActivationSection(&sb, report.Views)
	writeDeclarationSection(&sb, report.Scan)
	writeVendorSection(&sb, report.Scan)
	writeDriftSection(&sb, report.Views)
	writeCompatSection(&sb, report.Compat)
	writeDiagnosticsSection(&sb, report.Scan)

	return sb.String()
}

// WriteSummaryJSON writes the machine-readable summary to the provided writer.
func WriteSummaryJSON(w io.Writer, report *Report) error {
	if w == nil {
		return errors.New("writer is nil")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

func writeScanSection(sb *strings.Builder, result *scan.Result) {
	sb.WriteString("## Scan Summary\n\n")
	if result == nil {
		sb.WriteString("No scan result.\n\n")
		return
	}

	sb.WriteString(fmt.Sprintf("- Status: %s\n", result.Status))
	sb.WriteString(fmt.Sprintf("- Files scanned: %d\n", result.FilesScanned))
	sb.WriteString(fmt.Sprintf("- Manifest files: %d\n", result.ManifestFiles))
	sb.WriteString(fmt.Sprintf("- Declaration files: %d\n", result.DeclarationFiles))
	sb.WriteString(fmt.Sprintf("- Built-in manifests: %d\n", result.BuiltinManifests))
	sb.WriteString(fmt.Sprintf("- Vendor-specific manifests: %d\n", result.VendorSpecific))
	sb.WriteString(fmt.Sprintf("- Diagnostics: %d\n\n", len(result.Diagnostics)))
}

func writeContributionSection(sb *strings.Builder, views *categorize.Result) {
	sb.WriteString("## Contribution Usage\n\n")
	if views == nil || len(views.ContributionRanking) == 0 {
		sb.WriteString("No contributions detected.\n\n")
		return
	}

	sb.WriteString("| Contribution Type | Items | Files |\n")
	sb.WriteString("|---|---|---|\n")
	for _, row := range views.ContributionRanking {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n",
			escapeTableValue(row.ContributionType), row.TotalItemCount, row.DistinctFileCount))
	}
	sb.WriteString("\n")
}

func writeActivationSection(sb *strings.Builder, views *categorize.Result) {
	sb.WriteString("## Activation Categories\n\n")
	if views == nil || len(views.ActivationRanking) == 0 {
		sb.WriteString("No activation events detected.\n\n")
		return
	}

	sb.WriteString("| Category | Occurrences |\n")
	sb.WriteString("|---|---|\n")
	for _, row := range views.ActivationRanking {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n",
			escapeTableValue(string(row.EventCategory)), row.OccurrenceCount))
	}
	sb.WriteString("\n")
}

func writeDeclarationSection(sb *strings.Builder, result *scan.Result) {
	sb.WriteString("## Declaration Surface\n\n")
	if result == nil || result.Aggregate == nil || len(result.Aggregate.Declarations) == 0 {
		sb.WriteString("No declarations detected.\n\n")
		return
	}

	counts := map[declscan.DeclarationKind]int{}
	for _, entry := range result.Aggregate.Declarations {
		counts[entry.DeclarationKind]++
	}

	sb.WriteString("| Kind | Count |\n")
	sb.WriteString("|---|---|\n")
	for _, kind := range declarationKindOrder {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", kind, counts[kind]))
	}
	sb.WriteString("\n")
}

func writeVendorSection(sb *strings.Builder, result *scan.Result) {
	sb.WriteString("## Vendor Signals\n\n")
	if result == nil || result.Aggregate == nil {
		sb.WriteString("No vendor signals.\n\n")
		return
	}

	var vendorNames []string
	for _, record := range result.Aggregate.Manifests {
		if record.IsVendorSpecific {
			vendorNames = append(vendorNames, record.Name)
		}
	}
	slices.Sort(vendorNames)

	sb.WriteString("### Vendor-Specific Extensions\n\n")
	if len(vendorNames) == 0 {
		sb.WriteString("None\n\n")
	} else {
		for _, name := range vendorNames {
			sb.WriteString(fmt.Sprintf("- %s\n", escapeTableValue(name)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Integration Surface\n\n")
	if len(result.IntegrationSurface) == 0 {
		sb.WriteString("Not measured.\n\n")
		return
	}

	sb.WriteString("| Token | Files | Sample |\n")
	sb.WriteString("|---|---|---|\n")
	for _, signal := range result.IntegrationSurface {
		sample := "-"
		if len(signal.Samples) > 0 {
			first := signal.Samples[0]
			sample = fmt.Sprintf("%s:%d", first.SourcePath, first.LineNumber)
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n",
			escapeTableValue(signal.Token), signal.FileCount, escapeTableValue(sample)))
	}
	sb.WriteString("\n")
}

func writeDriftSection(sb *strings.Builder, views *categorize.Result) {
	sb.WriteString("## Taxonomy Drift\n\n")
	if views == nil || len(views.DriftRanking) == 0 {
		sb.WriteString("No unrecognized contribution keys observed.\n\n")
		return
	}

	sb.WriteString("| Unrecognized Key | Files |\n")
	sb.WriteString("|---|---|\n")
	for _, row := range views.DriftRanking {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", escapeTableValue(row.Key), row.FileCount))
	}
	sb.WriteString("\n")
}

func writeCompatSection(sb *strings.Builder, matrix *compat.Matrix) {
	sb.WriteString("## Compatibility Matrix\n\n")
	if matrix == nil {
		sb.WriteString("No assessment performed.\n\n")
		return
	}

	sb.WriteString(fmt.Sprintf("- Total: %d\n", matrix.Total))
	sb.WriteString(fmt.Sprintf("- Compatible: %d\n", matrix.Compatible))
	sb.WriteString(fmt.Sprintf("- Needs review: %d\n", matrix.NeedsReview))
	sb.WriteString(fmt.Sprintf("- Incompatible: %d\n\n", matrix.Incompatible))

	if len(matrix.Verdicts) == 0 {
		return
	}

	sb.WriteString("| Extension | Status | Issues |\n")
	sb.WriteString("|---|---|---|\n")
	for _, verdict := range matrix.Verdicts {
		issues := "-"
		if len(verdict.Issues) > 0 {
			issues = strings.Join(verdict.Issues, "; ")
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			escapeTableValue(verdict.ExtensionName),
			escapeTableValue(string(verdict.Status)),
			escapeTableValue(issues)))
	}
	sb.WriteString("\n")
}

func writeDiagnosticsSection(sb *strings.Builder, result *scan.Result) {
	sb.WriteString("## Diagnostics\n\n")
	if result == nil || len(result.Diagnostics) == 0 {
		sb.WriteString("None\n\n")
		return
	}

	// Workers report diagnostics in completion order; sort by path so two
	// runs over the same corpus render identically.
	sorted := append([]scan.Diagnostic(nil), result.Diagnostics...)
	slices.SortStableFunc(sorted, func(a, b scan.Diagnostic) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		default:
			return 0
		}
	})

	sb.WriteString("| Severity | Code | Path | Message |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, diag := range sorted {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeTableValue(string(diag.Severity)),
			escapeTableValue(diag.Code),
			escapeTableValue(diag.Path),
			escapeTableValue(diag.Message)))
	}
	sb.WriteString("\n")
}

func escapeTableValue(value string) string {
	if value == "" {
		return "-"
	}

	escaped := strings.ReplaceAll(value, "\r", "")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	escaped = strings.ReplaceAll(escaped, "|", "\\|")
	return escaped
}
