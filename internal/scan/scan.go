// SPDX-License-Identifier: MPL-2.0

// Package scan orchestrates a corpus scan: it walks the corpus root for
// manifest and declaration files, extracts facts from each file in parallel,
// and streams file-scoped batches into the aggregate store through its
// single writer. Per-file failures become diagnostics on the result; only a
// root that cannot be read or a store that cannot flush fails the run.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"extscan-cli/internal/store"
	"extscan-cli/internal/vendorscan"
	"extscan-cli/pkg/declscan"
	"extscan-cli/pkg/types"
)

type fileKind int

const (
	kindManifest fileKind = iota
	kindDeclaration
)

type candidate struct {
	path    string
	rel     string
	kind    fileKind
	builtin bool
}

// Result is the outcome of one corpus scan.
type Result struct {
	Status             types.ScanStatus          `json:"status"`
	FilesScanned       int                       `json:"filesScanned"`
	ManifestFiles      int                       `json:"manifestFiles"`
	DeclarationFiles   int                       `json:"declarationFiles"`
	BuiltinManifests   int                       `json:"builtinManifests"`
	VendorSpecific     int                       `json:"vendorSpecific"`
	Diagnostics        []Diagnostic              `json:"diagnostics"`
	IntegrationSurface []vendorscan.TokenSignal  `json:"integrationSurface,omitempty"`
	Aggregate          *store.Aggregate          `json:"-"`
	StartedAt          time.Time                 `json:"startedAt"`
	Duration           time.Duration             `json:"duration"`
}

// Run executes the full scan described by opts. Callers normalize opts
// first; Run re-validates defensively.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "scan"})
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	started := time.Now().UTC()

	candidates, err := discover(opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("corpus walked", "files", len(candidates))

	st, err := store.Open(opts.Out, opts.CheckpointEvery)
	if err != nil {
		return nil, err
	}
	writer := store.NewWriter(st, opts.QueueDepth)
	classifier := vendorscan.NewClassifier(opts.ExtraVendorKeywords)
	extractor := declscan.NewLinePattern()

	var (
		mu    sync.Mutex
		diags []Diagnostic
	)
	addDiag := func(d Diagnostic) {
		mu.Lock()
		diags = append(diags, d)
		mu.Unlock()
	}

	work := make(chan candidate)
	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range work {
				// Cancellation is checked between files; a single file is a
				// fast unit of work.
				if ctx.Err() != nil {
					continue
				}
				batch, diag := extractFile(c, classifier, extractor)
				if diag != nil {
					logger.Debug("file skipped", "path", diag.Path, "code", diag.Code)
					addDiag(*diag)
				}
				if batch != nil {
					if err := writer.Enqueue(ctx, *batch); err != nil {
						continue
					}
				}
			}
		}()
	}

	for _, c := range candidates {
		work <- c
	}
	close(work)
	wg.Wait()

	closeErr := writer.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := st.Snapshot()
	result := &Result{
		Status:           types.ScanStatusSuccess,
		FilesScanned:     len(candidates),
		ManifestFiles:    countKind(candidates, kindManifest),
		DeclarationFiles: countKind(candidates, kindDeclaration),
		Diagnostics:      diags,
		Aggregate:        agg,
		StartedAt:        started,
		Duration:         time.Since(started),
	}
	for _, record := range agg.Manifests {
		if record.IsBuiltin {
			result.BuiltinManifests++
		}
		if record.IsVendorSpecific {
			result.VendorSpecific++
		}
	}

	if closeErr != nil {
		result.Status = types.ScanStatusFailed
		return result, closeErr
	}
	if len(diags) > 0 {
		result.Status = types.ScanStatusPartial
	}

	if !opts.SkipIntegrationSurface {
		signals, err := vendorscan.SearchIntegrationSurface(ctx, opts.Root, opts.SampleCap)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logger.Warn("integration surface search skipped", "err", err)
		} else {
			result.IntegrationSurface = signals
		}
	}

	logger.Info("scan complete",
		"files", result.FilesScanned,
		"manifests", result.ManifestFiles,
		"declarations", result.DeclarationFiles,
		"diagnostics", len(result.Diagnostics),
		"status", result.Status)

	return result, nil
}

// discover walks the corpus root and collects manifest and declaration file
// candidates in deterministic walk order. node_modules and VCS subtrees are
// never scanned; the output directory is skipped when it sits inside the
// corpus.
func discover(opts Options) ([]candidate, error) {
	var candidates []candidate

	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == opts.Root {
				return &CorpusRootError{Path: opts.Root, Reason: "corpus root is not readable", Cause: err}
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" || path == opts.Out {
				return filepath.SkipDir
			}
			return nil
		}

		kind, ok := classifyPath(d.Name())
		if !ok {
			return nil
		}
		rel, relErr := filepath.Rel(opts.Root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		candidates = append(candidates, candidate{
			path:    path,
			rel:     rel,
			kind:    kind,
			builtin: isBuiltinPath(rel, opts.BuiltinDir),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func classifyPath(name string) (fileKind, bool) {
	switch {
	case name == "package.json":
		return kindManifest, true
	case strings.HasSuffix(name, ".d.ts"):
		return kindDeclaration, true
	default:
		return 0, false
	}
}

func isBuiltinPath(rel, builtinDir string) bool {
	return rel == builtinDir || strings.HasPrefix(rel, builtinDir+"/")
}

func countKind(candidates []candidate, kind fileKind) int {
	n := 0
	for _, c := range candidates {
		if c.kind == kind {
			n++
		}
	}
	return n
}

// extractFile produces the batch for one candidate file. A panic inside an
// extractor is confined to the file and surfaces as an error diagnostic.
func extractFile(c candidate, classifier *vendorscan.Classifier, extractor declscan.Extractor) (batch *store.Batch, diag *Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			batch = nil
			diag = &Diagnostic{
				Severity: SeverityError,
				Code:     CodeExtractorPanic,
				Message:  fmt.Sprintf("extractor panic: %v", r),
				Path:     c.rel,
			}
		}
	}()

	switch c.kind {
	case kindManifest:
		return extractManifest(c, classifier)
	case kindDeclaration:
		return extractDeclarations(c, extractor)
	default:
		return nil, nil
	}
}
