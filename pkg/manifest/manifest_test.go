// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/json"
	"errors"
	"testing"
)

const sampleManifest = `{
	"name": "sample-tools",
	"displayName": "Sample Tools",
	"version": "1.4.0",
	"publisher": "sample-publisher",
	"engines": {"vscode": "^1.80.0"},
	"categories": ["Programming Languages", "Linters"],
	"keywords": ["lint", "sample"],
	"activationEvents": ["onCommand:sample.run", "onStartupFinished"],
	"extensionDependencies": ["ms.base", "a.first"],
	"contributes": {
		"commands": [
			{"command": "sample.run", "title": "Run"},
			{"command": "sample.stop", "title": "Stop"},
			{"command": "sample.restart", "title": "Restart"}
		],
		"configuration": {"title": "Sample", "properties": {}},
		"fooBarBaz": {"custom": true}
	}
}`

func mustParse(t *testing.T, data, sourcePath string) *Document {
	t.Helper()
	doc, err := ParseBytes([]byte(data), sourcePath)
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	return doc
}

func TestParseBytesMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"truncated", `{"name": "x"`},
		{"array root", `[1, 2, 3]`},
		{"scalar root", `"just a string"`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.data), "ext/package.json")
			if err == nil {
				t.Fatal("expected MalformedManifestError")
			}
			var malformed *MalformedManifestError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedManifestError, got %T", err)
			}
			if malformed.Path != "ext/package.json" {
				t.Fatalf("unexpected path: %s", malformed.Path)
			}
		})
	}
}

func TestContributions(t *testing.T) {
	doc := mustParse(t, sampleManifest, "ext/sample/package.json")

	entries, drift := doc.Contributions()
	if len(entries) != 2 {
		t.Fatalf("expected 2 contribution entries, got %d", len(entries))
	}

	byType := map[string]ContributionEntry{}
	for _, entry := range entries {
		byType[entry.ContributionType] = entry
	}

	commands, ok := byType["commands"]
	if !ok {
		t.Fatal("expected a commands entry")
	}
	if commands.ItemCount != 3 {
		t.Fatalf("commands itemCount = %d, want 3", commands.ItemCount)
	}
	if commands.SourcePath != "ext/sample/package.json" {
		t.Fatalf("unexpected sourcePath: %s", commands.SourcePath)
	}

	configuration, ok := byType["configuration"]
	if !ok {
		t.Fatal("expected a configuration entry")
	}
	if configuration.ItemCount != 1 {
		t.Fatalf("configuration itemCount = %d, want 1 (object payload)", configuration.ItemCount)
	}

	if len(drift) != 1 || drift[0].Key != "fooBarBaz" {
		t.Fatalf("expected one drift record for fooBarBaz, got %v", drift)
	}
}

func TestContributionItemCountInvariant(t *testing.T) {
	doc := mustParse(t, sampleManifest, "ext/sample/package.json")

	entries, _ := doc.Contributions()
	for _, entry := range entries {
		if entry.ItemCount < 1 {
			t.Fatalf("%s: itemCount %d < 1", entry.ContributionType, entry.ItemCount)
		}

		var asList []json.RawMessage
		if err := json.Unmarshal(entry.RawPayload, &asList); err == nil {
			if entry.ItemCount != len(asList) {
				t.Fatalf("%s: itemCount %d != payload length %d",
					entry.ContributionType, entry.ItemCount, len(asList))
			}
		} else if entry.ItemCount != 1 {
			t.Fatalf("%s: itemCount %d for non-list payload, want 1",
				entry.ContributionType, entry.ItemCount)
		}
	}
}

func TestContributionsSkipEmptyValues(t *testing.T) {
	doc := mustParse(t, `{
		"name": "empty",
		"contributes": {
			"commands": [],
			"menus": {},
			"themes": null,
			"snippets": [{"language": "go", "path": "./snippets.json"}]
		}
	}`, "ext/empty/package.json")

	entries, _ := doc.Contributions()
	if len(entries) != 1 {
		t.Fatalf("expected only the snippets entry, got %d entries", len(entries))
	}
	if entries[0].ContributionType != "snippets" {
		t.Fatalf("unexpected contribution type: %s", entries[0].ContributionType)
	}
}

func TestActivationEvents(t *testing.T) {
	doc := mustParse(t, sampleManifest, "ext/sample/package.json")

	events := doc.ActivationEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 activation events, got %d", len(events))
	}
	if events[0].EventString != "onCommand:sample.run" || events[0].EventCategory != EventCategoryCommand {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].EventString != "onStartupFinished" || events[1].EventCategory != EventCategoryStartup {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestSummarize(t *testing.T) {
	doc := mustParse(t, sampleManifest, "ext/sample/package.json")

	record := doc.Summarize()
	if record.Name != "sample-tools" {
		t.Fatalf("unexpected name: %s", record.Name)
	}
	if record.Version.String() != "1.4.0" {
		t.Fatalf("unexpected version: %s", record.Version)
	}
	if record.EngineRequirement != "^1.80.0" {
		t.Fatalf("unexpected engine requirement: %s", record.EngineRequirement)
	}
	if len(record.Categories) != 2 {
		t.Fatalf("unexpected categories: %v", record.Categories)
	}

	// Sets come back sorted regardless of document order.
	wantKeys := []string{"commands", "configuration", "fooBarBaz"}
	if len(record.ContributionKeys) != len(wantKeys) {
		t.Fatalf("unexpected contribution keys: %v", record.ContributionKeys)
	}
	for i, key := range wantKeys {
		if record.ContributionKeys[i] != key {
			t.Fatalf("contributionKeys[%d] = %s, want %s", i, record.ContributionKeys[i], key)
		}
	}
	if record.Dependencies[0] != "a.first" || record.Dependencies[1] != "ms.base" {
		t.Fatalf("dependencies not sorted: %v", record.Dependencies)
	}

	if record.IsVendorSpecific {
		t.Fatal("IsVendorSpecific must be left false for the classifier")
	}
}

func TestSummarizeEnginesMap(t *testing.T) {
	doc := mustParse(t, `{
		"name": "multi-engine",
		"engines": {"vscode": "^1.80.0", "other": "^2.0.0", "node": 18}
	}`, "ext/multi/package.json")

	record := doc.Summarize()
	if record.EngineRequirement != "^1.80.0" {
		t.Fatalf("unexpected engine requirement: %q", record.EngineRequirement)
	}
	if len(record.Engines) != 2 {
		t.Fatalf("non-string engine values should be skipped: %v", record.Engines)
	}
	if record.Engines["vscode"] != "^1.80.0" || record.Engines["other"] != "^2.0.0" {
		t.Fatalf("unexpected engines map: %v", record.Engines)
	}
}

func TestSummarizeTolerantFields(t *testing.T) {
	doc := mustParse(t, `{
		"name": "odd",
		"version": 42,
		"categories": "Other",
		"keywords": ["ok", 7, {"nested": true}],
		"engines": "not-an-object"
	}`, "ext/odd/package.json")

	record := doc.Summarize()
	if record.Version.String() != "42" {
		t.Fatalf("unexpected version coercion: %q", record.Version)
	}
	if len(record.Categories) != 1 || record.Categories[0] != "Other" {
		t.Fatalf("scalar category should yield single-element list: %v", record.Categories)
	}
	if len(record.Keywords) != 1 || record.Keywords[0] != "ok" {
		t.Fatalf("non-string keywords should be skipped: %v", record.Keywords)
	}
	if record.EngineRequirement != "" {
		t.Fatalf("mistyped engines should read as absent: %q", record.EngineRequirement)
	}
	if record.Engines != nil {
		t.Fatalf("mistyped engines should yield a nil map: %v", record.Engines)
	}
}
