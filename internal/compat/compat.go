// SPDX-License-Identifier: MPL-2.0

// Package compat assesses scanned manifests against a declarative baseline
// describing the supported host surface. The baseline is a CUE document;
// assessment itself is pure, so re-running it over the same aggregate and
// baseline yields the same verdicts.
package compat

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"extscan-cli/pkg/cueutil"
	"extscan-cli/pkg/manifest"
	"extscan-cli/pkg/types"
)

//go:embed baseline.cue
var baselineSchema []byte

// nowFunc supplies verdict timestamps. Tests pin it.
var nowFunc = time.Now

// Status is the compatibility outcome for one manifest.
type Status string

const (
	StatusCompatible   Status = "compatible"
	StatusNeedsReview  Status = "needs-review"
	StatusIncompatible Status = "incompatible"
)

type (
	// Baseline is the decoded compatibility contract.
	Baseline struct {
		RequiredFields          []string `json:"requiredFields"`
		VersionPattern          string   `json:"versionPattern"`
		EngineField             string   `json:"engineField"`
		RecognizedContributions []string `json:"recognizedContributions"`
		KnownCompatible         []string `json:"knownCompatible"`
	}

	// Verdict is the assessment of a single manifest. Issues are ordered:
	// structural findings first, then unsupported contribution keys sorted
	// by name, then the vendor note.
	Verdict struct {
		ExtensionName string    `json:"extensionName"`
		SourcePath    string    `json:"sourcePath"`
		Status        Status    `json:"status"`
		Issues        []string  `json:"issues"`
		EvaluatedAt   time.Time `json:"evaluatedAt"`
	}

	// Matrix is the corpus-wide assessment: one verdict per manifest plus
	// status counts.
	Matrix struct {
		Verdicts     []Verdict `json:"verdicts"`
		Total        int       `json:"total"`
		Compatible   int       `json:"compatible"`
		NeedsReview  int       `json:"needsReview"`
		Incompatible int       `json:"incompatible"`
	}

	// Assessor applies one baseline to manifest records.
	Assessor struct {
		baseline   Baseline
		versionRE  *regexp.Regexp
		engineKey  string
		recognized map[string]struct{}
		known      map[string]struct{}
	}
)

// DefaultBaseline returns the built-in baseline with recognized contributions
// taken from the embedded contribution taxonomy.
func DefaultBaseline() (Baseline, error) {
	return decodeBaseline([]byte("{}"), "<builtin>")
}

// LoadBaseline validates and decodes a user-supplied baseline document.
func LoadBaseline(data []byte, filename string) (Baseline, error) {
	return decodeBaseline(data, filename)
}

func decodeBaseline(data []byte, filename string) (Baseline, error) {
	result, err := cueutil.ParseAndDecode[Baseline](baselineSchema, data, "#Baseline", cueutil.WithFilename(filename))
	if err != nil {
		return Baseline{}, fmt.Errorf("load compatibility baseline: %w", err)
	}

	baseline := *result.Value
	if len(baseline.RecognizedContributions) == 0 {
		baseline.RecognizedContributions = manifest.ContributionTypes()
	}
	return baseline, nil
}

// NewAssessor compiles the baseline's version pattern and index sets. An
// empty version pattern means standard semantic versioning.
func NewAssessor(baseline Baseline) (*Assessor, error) {
	var versionRE *regexp.Regexp
	if baseline.VersionPattern != "" {
		compiled, err := regexp.Compile(baseline.VersionPattern)
		if err != nil {
			return nil, fmt.Errorf("compile baseline version pattern %q: %w", baseline.VersionPattern, err)
		}
		versionRE = compiled
	}

	engineKey, ok := strings.CutPrefix(baseline.EngineField, "engines.")
	if !ok || engineKey == "" {
		return nil, fmt.Errorf("baseline engineField %q must name a key under engines", baseline.EngineField)
	}

	a := &Assessor{
		baseline:   baseline,
		versionRE:  versionRE,
		engineKey:  engineKey,
		recognized: make(map[string]struct{}, len(baseline.RecognizedContributions)),
		known:      make(map[string]struct{}, len(baseline.KnownCompatible)),
	}
	for _, key := range baseline.RecognizedContributions {
		a.recognized[key] = struct{}{}
	}
	for _, name := range baseline.KnownCompatible {
		a.known[name] = struct{}{}
	}
	return a, nil
}

// Assess evaluates every manifest and tallies the matrix. Verdicts keep the
// input order; callers pass the insertion-ordered aggregate.
func (a *Assessor) Assess(records []manifest.ManifestRecord) *Matrix {
	matrix := &Matrix{Verdicts: make([]Verdict, 0, len(records)), Total: len(records)}
	for _, record := range records {
		verdict := a.assessOne(record)
		switch verdict.Status {
		case StatusCompatible:
			matrix.Compatible++
		case StatusNeedsReview:
			matrix.NeedsReview++
		case StatusIncompatible:
			matrix.Incompatible++
		}
		matrix.Verdicts = append(matrix.Verdicts, verdict)
	}
	return matrix
}

func (a *Assessor) assessOne(record manifest.ManifestRecord) Verdict {
	verdict := Verdict{
		ExtensionName: record.Name,
		SourcePath:    record.SourcePath,
		Issues:        []string{},
		EvaluatedAt:   nowFunc(),
	}

	structural := a.structuralIssues(record)
	verdict.Issues = append(verdict.Issues, structural...)
	if len(structural) > 0 {
		verdict.Status = StatusIncompatible
		return verdict
	}

	unsupported := a.unsupportedContributions(record)
	verdict.Issues = append(verdict.Issues, unsupported...)

	vendorHeld := record.IsVendorSpecific && !a.knownCompatible(record.Name)
	if vendorHeld {
		verdict.Issues = append(verdict.Issues, "vendor-specific extension: requires manual compatibility review")
	}

	if len(unsupported) > 0 || vendorHeld {
		verdict.Status = StatusNeedsReview
	} else {
		verdict.Status = StatusCompatible
	}
	return verdict
}

func (a *Assessor) structuralIssues(record manifest.ManifestRecord) []string {
	var issues []string
	for _, field := range a.baseline.RequiredFields {
		if a.fieldValue(record, field) == "" {
			issues = append(issues, "missing required field: "+field)
		}
	}
	if version := record.Version; version != "" && !a.versionValid(version) {
		issues = append(issues, "malformed version: "+string(version))
	}
	return issues
}

func (a *Assessor) versionValid(version types.SemanticVersion) bool {
	if a.versionRE != nil {
		return a.versionRE.MatchString(string(version))
	}
	return version.IsValid()
}

func (a *Assessor) unsupportedContributions(record manifest.ManifestRecord) []string {
	var issues []string
	for _, key := range record.ContributionKeys {
		if _, ok := a.recognized[key]; !ok {
			issues = append(issues, "unsupported contribution point: "+key)
		}
	}
	slices.Sort(issues)
	return issues
}

func (a *Assessor) knownCompatible(name string) bool {
	_, ok := a.known[name]
	return ok
}

func (a *Assessor) fieldValue(record manifest.ManifestRecord, field string) string {
	switch field {
	case "name":
		return record.Name
	case "version":
		return string(record.Version)
	case "engineRequirement":
		// The engine requirement lives wherever the baseline's engineField
		// points, not necessarily at engines.vscode.
		return record.Engines[a.engineKey]
	case "publisher":
		return record.Publisher
	case "displayName":
		return record.DisplayName
	default:
		// Unknown required fields read as absent so a stricter baseline
		// fails closed instead of silently passing.
		return ""
	}
}
