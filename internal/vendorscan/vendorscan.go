// SPDX-License-Identifier: MPL-2.0

// Package vendorscan decides which scanned extensions are vendor-specific and
// measures the corpus's vendor integration surface. Classification is a pure
// predicate over manifest fields driven by the embedded token lists in
// keywords.toml; the integration-surface search is a lossy, advisory text
// pass over implementation sources.
package vendorscan

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"

	"extscan-cli/pkg/manifest"
)

//go:embed keywords.toml
var keywordsTOML []byte

// DefaultSampleCap bounds the matching lines retained per integration token.
const DefaultSampleCap = 5

// maxLineSize bounds the scanner buffer for minified sources.
const maxLineSize = 1 << 20

type tokenLists struct {
	VendorKeywords       []string `toml:"vendor_keywords"`
	IntegrationTokens    []string `toml:"integration_tokens"`
	SearchableExtensions []string `toml:"searchable_extensions"`
}

var loadedTokens tokenLists

func init() {
	if err := toml.Unmarshal(keywordsTOML, &loadedTokens); err != nil {
		panic(fmt.Sprintf("vendorscan: embedded keywords.toml is invalid: %v", err))
	}
	if len(loadedTokens.VendorKeywords) == 0 {
		panic("vendorscan: embedded keywords.toml declares no vendor keywords")
	}
}

type (
	// Classifier evaluates the vendor-specific predicate. The token set is
	// fixed at construction, so classification is pure and order-independent.
	Classifier struct {
		tokens []string
	}

	// SampleLine is one retained integration-token match.
	SampleLine struct {
		SourcePath string `json:"sourcePath"`
		LineNumber int    `json:"lineNumber"`
		Text       string `json:"text"`
	}

	// TokenSignal is the integration-surface measurement for one token:
	// how many files mention it and a capped sample of the matching lines.
	TokenSignal struct {
		Token     string       `json:"token"`
		FileCount int          `json:"fileCount"`
		Samples   []SampleLine `json:"samples"`
	}
)

// NewClassifier builds a classifier over the embedded vendor keywords plus
// any extra tokens from configuration. Tokens are normalized to lowercase.
func NewClassifier(extraKeywords []string) *Classifier {
	tokens := make([]string, 0, len(loadedTokens.VendorKeywords)+len(extraKeywords))
	for _, t := range loadedTokens.VendorKeywords {
		tokens = append(tokens, strings.ToLower(t))
	}
	for _, t := range extraKeywords {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tokens = append(tokens, t)
		}
	}
	slices.Sort(tokens)
	return &Classifier{tokens: slices.Compact(tokens)}
}

// IsVendorSpecific reports whether any vendor token occurs, case-insensitively,
// in the manifest's name, publisher, or keyword entries.
func (c *Classifier) IsVendorSpecific(record manifest.ManifestRecord) bool {
	if c.fieldMatches(record.Name) || c.fieldMatches(record.Publisher) {
		return true
	}
	for _, keyword := range record.Keywords {
		if c.fieldMatches(keyword) {
			return true
		}
	}
	return false
}

func (c *Classifier) fieldMatches(field string) bool {
	if field == "" {
		return false
	}
	lowered := strings.ToLower(field)
	for _, token := range c.tokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

// SearchIntegrationSurface walks root looking for integration tokens in
// source files with a searchable extension. Results are ordered by token.
// Unreadable files are skipped: the signal is advisory and a partial count
// is still useful.
func SearchIntegrationSurface(ctx context.Context, root string, sampleCap int) ([]TokenSignal, error) {
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}

	tokens := make([]string, len(loadedTokens.IntegrationTokens))
	copy(tokens, loadedTokens.IntegrationTokens)
	slices.Sort(tokens)

	signals := make(map[string]*TokenSignal, len(tokens))
	for _, token := range tokens {
		signals[token] = &TokenSignal{Token: token, Samples: []SampleLine{}}
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !searchable(path) {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		searchFile(path, filepath.ToSlash(rel), tokens, signals, sampleCap)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("integration surface search: %w", err)
	}

	out := make([]TokenSignal, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, *signals[token])
	}
	return out, nil
}

func searchable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(loadedTokens.SearchableExtensions, ext)
}

func searchFile(path, sourcePath string, tokens []string, signals map[string]*TokenSignal, sampleCap int) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	matched := map[string]bool{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		lowered := strings.ToLower(line)
		for _, token := range tokens {
			if !strings.Contains(lowered, token) {
				continue
			}
			signal := signals[token]
			if !matched[token] {
				matched[token] = true
				signal.FileCount++
			}
			if len(signal.Samples) < sampleCap {
				signal.Samples = append(signal.Samples, SampleLine{
					SourcePath: sourcePath,
					LineNumber: lineNumber,
					Text:       strings.TrimSpace(line),
				})
			}
		}
	}
}
