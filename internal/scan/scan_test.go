// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"extscan-cli/pkg/types"
)

func validManifest(name string) string {
	return fmt.Sprintf(`{
  "name": %q,
  "version": "1.0.0",
  "publisher": "community",
  "engines": { "vscode": "^1.80.0" },
  "activationEvents": ["onCommand:%s.run"],
  "contributes": { "commands": [{ "command": "%s.run" }] }
}`, name, name, name)
}

func writeCorpusFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func testOptions(t *testing.T, root string) Options {
	t.Helper()
	opts := Options{
		Root:                   root,
		Out:                    t.TempDir(),
		Workers:                4,
		SkipIntegrationSurface: true,
	}
	if err := opts.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return opts
}

func TestRunMissingRootIsFatal(t *testing.T) {
	opts := Options{Root: filepath.Join(t.TempDir(), "absent"), Out: t.TempDir()}

	err := opts.Normalize()
	if err == nil {
		t.Fatal("expected corpus root error")
	}
	var rootErr *CorpusRootError
	if !errors.As(err, &rootErr) {
		t.Fatalf("expected CorpusRootError, got %T: %v", err, err)
	}
}

func TestRunScansCorpus(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "third-party/alpha/package.json", validManifest("alpha"))
	writeCorpusFile(t, root, "extensions/builtin-one/package.json", validManifest("builtin-one"))
	writeCorpusFile(t, root, "third-party/aws-toolkit/package.json", validManifest("aws-toolkit"))
	writeCorpusFile(t, root, "third-party/alpha/src/api.d.ts", "export interface AlphaAPI {}\n")
	writeCorpusFile(t, root, "third-party/alpha/node_modules/dep/package.json", validManifest("dep"))

	result, err := Run(context.Background(), testOptions(t, root))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Status != types.ScanStatusSuccess {
		t.Fatalf("status = %v, diagnostics = %+v", result.Status, result.Diagnostics)
	}
	if result.ManifestFiles != 3 {
		t.Fatalf("manifest files = %d, want 3 (node_modules excluded)", result.ManifestFiles)
	}
	if result.DeclarationFiles != 1 {
		t.Fatalf("declaration files = %d, want 1", result.DeclarationFiles)
	}
	if result.BuiltinManifests != 1 {
		t.Fatalf("builtin manifests = %d, want 1", result.BuiltinManifests)
	}
	if result.VendorSpecific != 1 {
		t.Fatalf("vendor-specific manifests = %d, want 1", result.VendorSpecific)
	}
	if len(result.Aggregate.Manifests) != 3 {
		t.Fatalf("aggregate manifests = %d", len(result.Aggregate.Manifests))
	}
	if len(result.Aggregate.Declarations) != 1 || result.Aggregate.Declarations[0].DeclarationName != "AlphaAPI" {
		t.Fatalf("aggregate declarations = %+v", result.Aggregate.Declarations)
	}
}

func TestRunPartialFailureIsolation(t *testing.T) {
	root := t.TempDir()
	const valid = 5
	for i := 0; i < valid; i++ {
		writeCorpusFile(t, root, fmt.Sprintf("ext%d/package.json", i), validManifest(fmt.Sprintf("ext%d", i)))
	}
	writeCorpusFile(t, root, "broken/package.json", `{"name": "broken",`)

	result, err := Run(context.Background(), testOptions(t, root))
	if err != nil {
		t.Fatalf("a malformed manifest must not fail the run: %v", err)
	}

	if result.Status != types.ScanStatusPartial {
		t.Fatalf("status = %v, want partial", result.Status)
	}
	if result.Status.ExitCode() != 0 {
		t.Fatalf("partial scans must still exit 0, got %d", result.Status.ExitCode())
	}
	if len(result.Aggregate.Manifests) != valid {
		t.Fatalf("aggregate manifests = %d, want all %d valid files", len(result.Aggregate.Manifests), valid)
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %+v, want exactly one", result.Diagnostics)
	}
	diag := result.Diagnostics[0]
	if diag.Code != CodeManifestParseSkipped || diag.Severity != SeverityWarning {
		t.Fatalf("diagnostic = %+v", diag)
	}
	if diag.Path != "broken/package.json" {
		t.Fatalf("diagnostic path = %q", diag.Path)
	}
}

func TestRunPersistsCollections(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "alpha/package.json", validManifest("alpha"))

	opts := testOptions(t, root)
	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range []string{"manifests.json", "contributions.json", "activations.json", "declarations.json", "drift.json"} {
		if _, err := os.Stat(filepath.Join(opts.Out, name)); err != nil {
			t.Errorf("collection %s not persisted: %v", name, err)
		}
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeCorpusFile(t, root, fmt.Sprintf("ext%d/package.json", i), validManifest(fmt.Sprintf("ext%d", i)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, testOptions(t, root)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Root: t.TempDir()}
	if err := opts.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if opts.BuiltinDir != DefaultBuiltinDir {
		t.Errorf("builtin dir = %q", opts.BuiltinDir)
	}
	if opts.Workers < 1 || opts.Workers > maxWorkers {
		t.Errorf("workers = %d", opts.Workers)
	}
	if opts.CheckpointEvery <= 0 || opts.QueueDepth <= 0 || opts.SampleCap <= 0 {
		t.Errorf("defaults not filled: %+v", opts)
	}
	if !filepath.IsAbs(opts.Out) {
		t.Errorf("out not absolute: %q", opts.Out)
	}
}

func TestIsBuiltinPath(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"extensions/git/package.json", true},
		{"extensions", true},
		{"extensions-extra/pkg/package.json", false},
		{"third-party/extensions/package.json", false},
		{"package.json", false},
	}
	for _, tt := range tests {
		if got := isBuiltinPath(tt.rel, "extensions"); got != tt.want {
			t.Errorf("isBuiltinPath(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}
