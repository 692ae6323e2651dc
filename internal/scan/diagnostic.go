// SPDX-License-Identifier: MPL-2.0

package scan

const (
	// SeverityWarning indicates a recoverable per-file condition.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal extraction error.
	SeverityError Severity = "error"
)

// Diagnostic codes.
const (
	CodeManifestParseSkipped = "manifest_parse_skipped"
	CodeFileReadSkipped      = "file_read_skipped"
	CodeExtractorPanic       = "extractor_panic"
)

type (
	// Severity represents scan diagnostic severity.
	Severity string

	// Diagnostic is a structured per-file finding returned to callers rather
	// than written to stderr, so the CLI layer owns the rendering policy.
	// Diagnostics never abort a scan.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity `json:"severity"`
		// Code is a machine-readable identifier (e.g., "manifest_parse_skipped").
		Code string `json:"code"`
		// Message is the human-readable description.
		Message string `json:"message"`
		// Path is the corpus-relative file path the diagnostic refers to.
		Path string `json:"path"`
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error `json:"-"`
	}
)
