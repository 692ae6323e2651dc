// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"os"

	"extscan-cli/internal/store"
	"extscan-cli/internal/vendorscan"
	"extscan-cli/pkg/declscan"
	"extscan-cli/pkg/manifest"
)

// extractManifest parses one manifest file and derives its full record
// batch. A malformed manifest yields a warning diagnostic and no batch.
func extractManifest(c candidate, classifier *vendorscan.Classifier) (*store.Batch, *Diagnostic) {
	doc, err := manifest.Load(c.path, c.rel)
	if err != nil {
		return nil, &Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeManifestParseSkipped,
			Message:  err.Error(),
			Path:     c.rel,
			Cause:    err,
		}
	}

	record := doc.Summarize()
	record.IsBuiltin = c.builtin
	record.IsVendorSpecific = classifier.IsVendorSpecific(record)

	contributions, drift := doc.Contributions()
	return &store.Batch{
		SourcePath:    c.rel,
		Manifests:     []manifest.ManifestRecord{record},
		Contributions: contributions,
		Activations:   doc.ActivationEvents(),
		Drift:         drift,
	}, nil
}

// extractDeclarations runs the line-pattern extractor over one declaration
// file. Unreadable files yield a warning diagnostic and no batch.
func extractDeclarations(c candidate, extractor declscan.Extractor) (*store.Batch, *Diagnostic) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, &Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeFileReadSkipped,
			Message:  "declaration file is not readable: " + err.Error(),
			Path:     c.rel,
			Cause:    err,
		}
	}

	return &store.Batch{
		SourcePath:   c.rel,
		Declarations: extractor.Extract(data, c.rel),
	}, nil
}
