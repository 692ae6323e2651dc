// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"extscan-cli/internal/store"
	"extscan-cli/internal/vendorscan"
)

// DefaultBuiltinDir is the corpus subtree holding built-in extensions.
const DefaultBuiltinDir = "extensions"

// maxWorkers caps file-level parallelism; the scan is I/O bound and more
// workers only contend on the writer queue.
const maxWorkers = 8

// Options configures a corpus scan.
type Options struct {
	// Root is the corpus directory to walk.
	Root string
	// Out is the directory receiving the aggregate collections.
	Out string
	// BuiltinDir names the subtree under Root holding built-in extensions.
	BuiltinDir string
	// Workers is the number of extraction workers.
	Workers int
	// CheckpointEvery is the store checkpoint interval in batches.
	CheckpointEvery int
	// QueueDepth bounds the batch channel feeding the store writer.
	QueueDepth int
	// SampleCap bounds sample lines per integration token.
	SampleCap int
	// ExtraVendorKeywords extends the embedded vendor token list.
	ExtraVendorKeywords []string
	// SkipIntegrationSurface disables the advisory corpus text search.
	SkipIntegrationSurface bool
	// Verbose enables per-file debug logging.
	Verbose bool
}

// Normalize fills defaults, resolves paths, and validates.
func (o *Options) Normalize() error {
	if o.Root != "" {
		absRoot, err := filepath.Abs(o.Root)
		if err != nil {
			return err
		}
		o.Root = absRoot
	}
	if o.Out == "" {
		o.Out = "extscan-out"
	}
	if !filepath.IsAbs(o.Out) {
		absOut, err := filepath.Abs(o.Out)
		if err != nil {
			return err
		}
		o.Out = absOut
	}
	if o.BuiltinDir == "" {
		o.BuiltinDir = DefaultBuiltinDir
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Workers > maxWorkers {
		o.Workers = maxWorkers
	}
	if o.CheckpointEvery <= 0 {
		o.CheckpointEvery = store.DefaultCheckpointEvery
	}
	if o.QueueDepth <= 0 {
		o.QueueDepth = store.DefaultQueueDepth
	}
	if o.SampleCap <= 0 {
		o.SampleCap = vendorscan.DefaultSampleCap
	}
	return o.Validate()
}

// Validate checks that the corpus root exists and is scannable.
func (o Options) Validate() error {
	if o.Root == "" {
		return &CorpusRootError{Reason: "corpus root is required"}
	}
	info, err := os.Stat(o.Root)
	if err != nil {
		return &CorpusRootError{Path: o.Root, Reason: "corpus root is not accessible", Cause: err}
	}
	if !info.IsDir() {
		return &CorpusRootError{Path: o.Root, Reason: "corpus root is not a directory"}
	}
	if o.Out == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// CorpusRootError reports a corpus root that cannot be scanned. It is fatal:
// no extraction starts without a readable root.
type CorpusRootError struct {
	Path   string
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *CorpusRootError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Path)
}

// Unwrap returns the underlying error, if any.
func (e *CorpusRootError) Unwrap() error { return e.Cause }
