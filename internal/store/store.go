// SPDX-License-Identifier: MPL-2.0

// Package store owns the aggregate collections built during a corpus scan:
// one insertion-ordered JSON collection per fact kind. Records are appended
// in file-scoped batches and persisted by checkpoint; every persisted
// collection is written whole to a temp file and renamed over the previous
// version, so an interrupted scan leaves intact collections containing
// exactly the records appended up to the last checkpoint.
//
// The store keeps the whole aggregate buffered in memory rather than
// rewriting collection files on every append. Collections grow monotonically
// within a scan; deduplication is the categorizer's concern, not the store's.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"extscan-cli/pkg/declscan"
	"extscan-cli/pkg/manifest"
)

// Collection file names, one per fact kind.
const (
	manifestsFile     = "manifests.json"
	contributionsFile = "contributions.json"
	activationsFile   = "activations.json"
	declarationsFile  = "declarations.json"
	driftFile         = "drift.json"
)

// DefaultCheckpointEvery bounds how many batches may be lost to an
// interruption between checkpoints.
const DefaultCheckpointEvery = 32

type (
	// Batch carries every record extracted from a single input file. A batch
	// is the unit of append: either all of its records enter the aggregate or
	// none do.
	Batch struct {
		SourcePath    string
		Manifests     []manifest.ManifestRecord
		Contributions []manifest.ContributionEntry
		Activations   []manifest.ActivationEvent
		Declarations  []declscan.DeclarationEntry
		Drift         []manifest.DriftRecord
	}

	// Aggregate is the complete set of collections from one scan. Slices are
	// insertion-ordered; the store owns the backing arrays.
	Aggregate struct {
		Manifests     []manifest.ManifestRecord    `json:"manifests"`
		Contributions []manifest.ContributionEntry `json:"contributions"`
		Activations   []manifest.ActivationEvent   `json:"activations"`
		Declarations  []declscan.DeclarationEntry  `json:"declarations"`
		Drift         []manifest.DriftRecord       `json:"drift"`
	}

	// WriteFailure reports a failed collection persist. It aborts the scan:
	// partial aggregate state must not be silently accepted as complete.
	WriteFailure struct {
		Collection string
		Err        error
	}

	// FileStore is the file-backed aggregate store. Methods are not
	// goroutine-safe; concurrent producers must serialize through a Writer.
	FileStore struct {
		dir             string
		checkpointEvery int
		agg             Aggregate
		sinceCheckpoint int
	}
)

// Error implements the error interface.
func (e *WriteFailure) Error() string {
	return fmt.Sprintf("write aggregate collection %s: %v", e.Collection, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteFailure) Unwrap() error { return e.Err }

// Open prepares a store rooted at dir. Each scan produces a fresh, complete
// set of collections: any collections from a previous run are overwritten at
// the first checkpoint, never appended to.
func Open(dir string, checkpointEvery int) (*FileStore, error) {
	if checkpointEvery <= 0 {
		checkpointEvery = DefaultCheckpointEvery
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create aggregate dir: %w", err)
	}
	return &FileStore{dir: dir, checkpointEvery: checkpointEvery}, nil
}

// Dir returns the directory holding the collection files.
func (s *FileStore) Dir() string { return s.dir }

// Append adds a file-scoped batch to the in-memory aggregate and checkpoints
// when the configured batch interval has elapsed.
func (s *FileStore) Append(batch Batch) error {
	s.agg.Manifests = append(s.agg.Manifests, batch.Manifests...)
	s.agg.Contributions = append(s.agg.Contributions, batch.Contributions...)
	s.agg.Activations = append(s.agg.Activations, batch.Activations...)
	s.agg.Declarations = append(s.agg.Declarations, batch.Declarations...)
	s.agg.Drift = append(s.agg.Drift, batch.Drift...)

	s.sinceCheckpoint++
	if s.sinceCheckpoint >= s.checkpointEvery {
		return s.Flush()
	}
	return nil
}

// Flush persists every collection atomically and resets the checkpoint
// counter. Safe to call repeatedly; a final Flush at scan end is required.
func (s *FileStore) Flush() error {
	collections := []struct {
		name  string
		value any
	}{
		{manifestsFile, emptyAsList(s.agg.Manifests)},
		{contributionsFile, emptyAsList(s.agg.Contributions)},
		{activationsFile, emptyAsList(s.agg.Activations)},
		{declarationsFile, emptyAsList(s.agg.Declarations)},
		{driftFile, emptyAsList(s.agg.Drift)},
	}

	for _, c := range collections {
		if err := writeAtomic(filepath.Join(s.dir, c.name), c.value); err != nil {
			return &WriteFailure{Collection: c.name, Err: err}
		}
	}

	s.sinceCheckpoint = 0
	return nil
}

// Snapshot returns the current aggregate. The caller must treat it as
// read-only; the scan phase has completed before any reader runs.
func (s *FileStore) Snapshot() *Aggregate {
	return &s.agg
}

// Load reads a persisted aggregate from dir. Missing collection files read
// as empty collections so a partially-checkpointed directory still loads.
func Load(dir string) (*Aggregate, error) {
	var agg Aggregate
	loaders := []struct {
		name string
		dst  any
	}{
		{manifestsFile, &agg.Manifests},
		{contributionsFile, &agg.Contributions},
		{activationsFile, &agg.Activations},
		{declarationsFile, &agg.Declarations},
		{driftFile, &agg.Drift},
	}

	for _, l := range loaders {
		data, err := os.ReadFile(filepath.Join(dir, l.name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read aggregate collection %s: %w", l.name, err)
		}
		if err := json.Unmarshal(data, l.dst); err != nil {
			return nil, fmt.Errorf("decode aggregate collection %s: %w", l.name, err)
		}
	}

	return &agg, nil
}

// writeAtomic serializes value to a temp file in the target directory and
// renames it over path. Rename within one directory is atomic on POSIX
// filesystems, so readers never observe a torn collection.
func writeAtomic(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// emptyAsList substitutes an empty slice for nil so empty collections
// serialize as [] rather than null.
func emptyAsList[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
