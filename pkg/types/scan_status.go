// SPDX-License-Identifier: MPL-2.0

package types

import "fmt"

type (
	// ScanStatus summarizes the overall outcome of a corpus scan.
	ScanStatus int
)

const (
	// ScanStatusSuccess means every discovered file was extracted cleanly.
	ScanStatusSuccess ScanStatus = iota
	// ScanStatusPartial means the scan completed but some files produced
	// diagnostics (e.g. malformed manifests that were skipped).
	ScanStatusPartial
	// ScanStatusFailed means the scan could not start or could not persist
	// its aggregates. No completed result is available.
	ScanStatusFailed
)

// String returns a human-readable status name.
func (s ScanStatus) String() string {
	switch s {
	case ScanStatusSuccess:
		return "success"
	case ScanStatusPartial:
		return "completed with diagnostics"
	case ScanStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown status %d", int(s))
	}
}

// ExitCode maps the scan status to a process exit code. Per-file extraction
// diagnostics never produce a non-zero exit; only a structural failure to
// access the corpus or persist the aggregates does.
func (s ScanStatus) ExitCode() ExitCode {
	if s == ScanStatusFailed {
		return 1
	}
	return 0
}
