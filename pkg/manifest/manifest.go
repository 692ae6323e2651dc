// SPDX-License-Identifier: MPL-2.0

// Package manifest parses extension manifest documents and extracts the
// facts the inventory pipeline aggregates: contribution entries, activation
// events, and per-manifest metadata records.
//
// Parsing is deliberately tolerant. Manifests in the wild carry absent,
// mistyped, and vendor-invented fields; every accessor treats "absent or not
// the expected type" as "not present" instead of failing the file.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"extscan-cli/pkg/types"

	"github.com/tidwall/gjson"
	"golang.org/x/exp/slices"
)

type (
	// ManifestRecord is the fixed metadata projection of one manifest file.
	// Created once per extraction pass and immutable afterward.
	ManifestRecord struct {
		Name              string                `json:"name"`
		DisplayName       string                `json:"displayName"`
		Version           types.SemanticVersion `json:"version"`
		Publisher         string                `json:"publisher"`
		EngineRequirement string                `json:"engineRequirement"`
		Engines           map[string]string     `json:"engines"`
		Categories        []string              `json:"categories"`
		Keywords          []string              `json:"keywords"`
		ActivationEvents  []string              `json:"activationEvents"`
		ContributionKeys  []string              `json:"contributionKeys"`
		Dependencies      []string              `json:"dependencies"`
		IsVendorSpecific  bool                  `json:"isVendorSpecific"`
		IsBuiltin         bool                  `json:"isBuiltin"`
		SourcePath        string                `json:"sourcePath"`
	}

	// ContributionEntry records that a manifest declares at least one item of
	// a recognized contribution type. ItemCount equals the cardinality of
	// RawPayload when it is a JSON array, else 1.
	ContributionEntry struct {
		SourcePath       string          `json:"sourcePath"`
		ContributionType string          `json:"contributionType"`
		ItemCount        int             `json:"itemCount"`
		RawPayload       json.RawMessage `json:"rawPayload"`
	}

	// ActivationEvent is one (file, event-string) pair with its derived
	// category.
	ActivationEvent struct {
		SourcePath    string        `json:"sourcePath"`
		EventString   string        `json:"eventString"`
		EventCategory EventCategory `json:"eventCategory"`
	}

	// DriftRecord marks one unrecognized top-level contribution key observed
	// in a manifest. Drift is a taxonomy-review signal, not an error.
	DriftRecord struct {
		SourcePath string `json:"sourcePath"`
		Key        string `json:"key"`
	}

	// Document is a parsed manifest ready for fact extraction. Extraction
	// methods are read-only and never touch shared state.
	Document struct {
		sourcePath string
		root       gjson.Result
	}

	// MalformedManifestError reports a manifest that failed structural
	// parsing. It is recoverable: the scanner skips the file and continues.
	MalformedManifestError struct {
		Path   string
		Reason string
	}
)

// Error implements the error interface.
func (e *MalformedManifestError) Error() string {
	return fmt.Sprintf("malformed manifest %s: %s", e.Path, e.Reason)
}

// Load reads and parses the manifest at path. sourcePath is the
// slash-separated corpus-relative path recorded as provenance on every
// extracted fact.
func Load(path, sourcePath string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MalformedManifestError{Path: sourcePath, Reason: err.Error()}
	}
	return ParseBytes(data, sourcePath)
}

// ParseBytes parses raw manifest bytes. The document must be well-formed
// JSON with an object root; anything else is a MalformedManifestError.
func ParseBytes(data []byte, sourcePath string) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, &MalformedManifestError{Path: sourcePath, Reason: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &MalformedManifestError{Path: sourcePath, Reason: "root is not a JSON object"}
	}
	return &Document{sourcePath: sourcePath, root: root}, nil
}

// SourcePath returns the corpus-relative path of the parsed manifest.
func (d *Document) SourcePath() string { return d.sourcePath }

// Contributions iterates the fixed contribution-type taxonomy over the
// manifest's `contributes` object and emits one ContributionEntry per
// recognized key with a non-empty value. Keys present under `contributes`
// but absent from the taxonomy are returned as drift records.
func (d *Document) Contributions() ([]ContributionEntry, []DriftRecord) {
	contributes := d.root.Get("contributes")
	if !contributes.IsObject() {
		return nil, nil
	}

	var entries []ContributionEntry
	for _, key := range loadedTaxonomy.ContributionTypes {
		value := contributes.Get(escapeKey(key))
		if !value.Exists() || isEmptyValue(value) {
			continue
		}
		entries = append(entries, ContributionEntry{
			SourcePath:       d.sourcePath,
			ContributionType: key,
			ItemCount:        itemCount(value),
			RawPayload:       json.RawMessage(value.Raw),
		})
	}

	var drift []DriftRecord
	contributes.ForEach(func(key, value gjson.Result) bool {
		if !IsRecognizedContribution(key.String()) {
			drift = append(drift, DriftRecord{SourcePath: d.sourcePath, Key: key.String()})
		}
		return true
	})

	return entries, drift
}

// ActivationEvents reads the manifest's activation-event list verbatim and
// classifies each entry into exactly one category.
func (d *Document) ActivationEvents() []ActivationEvent {
	var events []ActivationEvent
	for _, raw := range d.stringList("activationEvents") {
		events = append(events, ActivationEvent{
			SourcePath:    d.sourcePath,
			EventString:   raw,
			EventCategory: ClassifyActivationEvent(raw),
		})
	}
	return events
}

// Summarize projects the manifest down to its ManifestRecord. Absent or
// mistyped fields yield zero values; IsVendorSpecific and IsBuiltin are left
// false for the scanner to derive. EngineRequirement is the engines.vscode
// projection; Engines keeps every declared engine constraint so an assessor
// baseline may point at a different one.
func (d *Document) Summarize() ManifestRecord {
	record := ManifestRecord{
		Name:              d.root.Get("name").String(),
		DisplayName:       d.root.Get("displayName").String(),
		Version:           types.SemanticVersion(d.root.Get("version").String()),
		Publisher:         d.root.Get("publisher").String(),
		EngineRequirement: d.root.Get("engines.vscode").String(),
		Engines:           d.engineMap(),
		Categories:        d.stringList("categories"),
		Keywords:          d.stringList("keywords"),
		ActivationEvents:  d.stringList("activationEvents"),
		Dependencies:      d.stringList("extensionDependencies"),
		SourcePath:        d.sourcePath,
	}

	contributes := d.root.Get("contributes")
	if contributes.IsObject() {
		contributes.ForEach(func(key, value gjson.Result) bool {
			record.ContributionKeys = append(record.ContributionKeys, key.String())
			return true
		})
	}

	// ContributionKeys and Dependencies are sets; keep them sorted so two
	// extraction passes over the same file produce identical records.
	slices.Sort(record.ContributionKeys)
	record.ContributionKeys = slices.Compact(record.ContributionKeys)
	slices.Sort(record.Dependencies)
	record.Dependencies = slices.Compact(record.Dependencies)

	return record
}

// engineMap reads the manifest's `engines` object as a name-to-constraint
// map, skipping non-string values. Nil when engines is absent or mistyped.
func (d *Document) engineMap() map[string]string {
	engines := d.root.Get("engines")
	if !engines.IsObject() {
		return nil
	}

	out := map[string]string{}
	engines.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			out[key.String()] = value.String()
		}
		return true
	})
	return out
}

// stringList reads a field as a list of strings, skipping entries that are
// not strings. A scalar string field yields a single-element list, matching
// the permissiveness of the legacy pipeline.
func (d *Document) stringList(field string) []string {
	value := d.root.Get(field)
	switch {
	case value.IsArray():
		var out []string
		for _, item := range value.Array() {
			if item.Type == gjson.String {
				out = append(out, item.String())
			}
		}
		return out
	case value.Type == gjson.String:
		return []string{value.String()}
	default:
		return nil
	}
}

// itemCount is the cardinality of a contribution payload: array length for
// arrays, else 1.
func itemCount(value gjson.Result) int {
	if value.IsArray() {
		return len(value.Array())
	}
	return 1
}

// isEmptyValue reports whether a contribution value counts as "not present":
// empty array, empty object, empty string, or null.
func isEmptyValue(value gjson.Result) bool {
	switch {
	case value.Type == gjson.Null:
		return true
	case value.IsArray():
		return len(value.Array()) == 0
	case value.IsObject():
		return len(value.Map()) == 0
	case value.Type == gjson.String:
		return value.String() == ""
	default:
		return false
	}
}

// escapeKey escapes gjson path metacharacters so taxonomy identifiers are
// looked up as literal keys.
func escapeKey(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '\\':
			out = append(out, '\\')
		}
		out = append(out, key[i])
	}
	return string(out)
}
