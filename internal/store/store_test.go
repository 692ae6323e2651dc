// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"extscan-cli/pkg/declscan"
	"extscan-cli/pkg/manifest"
)

func manifestBatch(sourcePath, name string) Batch {
	return Batch{
		SourcePath: sourcePath,
		Manifests: []manifest.ManifestRecord{
			{Name: name, SourcePath: sourcePath},
		},
		Contributions: []manifest.ContributionEntry{
			{SourcePath: sourcePath, ContributionType: "commands", ItemCount: 2, RawPayload: []byte(`[{},{}]`)},
		},
		Activations: []manifest.ActivationEvent{
			{SourcePath: sourcePath, EventString: "*", EventCategory: manifest.EventCategoryAlwaysOn},
		},
	}
}

func TestAppendFlushLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := s.Append(manifestBatch("a/package.json", "a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(Batch{
		SourcePath: "src/api.d.ts",
		Declarations: []declscan.DeclarationEntry{
			{SourcePath: "src/api.d.ts", DeclarationName: "Host", DeclarationKind: declscan.KindClass},
		},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	agg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(agg.Manifests) != 1 || agg.Manifests[0].Name != "a" {
		t.Fatalf("unexpected manifests: %+v", agg.Manifests)
	}
	if len(agg.Contributions) != 1 || agg.Contributions[0].ItemCount != 2 {
		t.Fatalf("unexpected contributions: %+v", agg.Contributions)
	}
	if len(agg.Declarations) != 1 || agg.Declarations[0].DeclarationName != "Host" {
		t.Fatalf("unexpected declarations: %+v", agg.Declarations)
	}
}

func TestFlushWritesEmptyCollectionsAsLists(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "manifests.json"))
	if err != nil {
		t.Fatalf("read collection: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("empty collection serialized as %q, want []", data)
	}
}

func TestCheckpointInterval(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := s.Append(manifestBatch("a/package.json", "a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "manifests.json")); !os.IsNotExist(err) {
		t.Fatal("collection persisted before checkpoint interval")
	}

	// Second batch crosses the interval and checkpoints.
	if err := s.Append(manifestBatch("b/package.json", "b")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	agg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(agg.Manifests) != 2 {
		t.Fatalf("checkpoint persisted %d manifests, want 2", len(agg.Manifests))
	}
}

func TestFlushOverwritesPreviousRun(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Append(manifestBatch("a/package.json", "a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := first.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// A re-scan produces a fresh, complete collection, not appended history.
	second, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := second.Append(manifestBatch("b/package.json", "b")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := second.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	agg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(agg.Manifests) != 1 || agg.Manifests[0].Name != "b" {
		t.Fatalf("re-scan did not overwrite: %+v", agg.Manifests)
	}
}

func TestWriteFailurePropagates(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Replace the store directory with a file so the temp-file create fails.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if err := os.WriteFile(dir, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Cleanup(func() { os.Remove(dir) })

	err = s.Flush()
	if err == nil {
		t.Fatal("expected WriteFailure")
	}
	var failure *WriteFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected WriteFailure, got %T: %v", err, err)
	}
}

func TestWriterSerializesConcurrentProducers(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	w := NewWriter(s, 4)

	const producers = 8
	const batchesPerProducer = 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < batchesPerProducer; i++ {
				if err := w.Enqueue(context.Background(), manifestBatch("x/package.json", "x")); err != nil {
					t.Errorf("Enqueue: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	agg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(agg.Manifests) != producers*batchesPerProducer {
		t.Fatalf("got %d manifests, want %d", len(agg.Manifests), producers*batchesPerProducer)
	}
}

func TestWriterEnqueueRespectsContext(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	w := NewWriter(s, 1)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// With a canceled context Enqueue must not block forever even if it
	// cannot hand the batch off immediately.
	for i := 0; i < 100; i++ {
		if err := w.Enqueue(ctx, manifestBatch("x/package.json", "x")); err != nil {
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
	}
}
