// SPDX-License-Identifier: MPL-2.0

// Package declscan extracts exported declarations from TypeScript-style
// declaration files by line pattern matching.
//
// This is deliberately not a parser. Matching is conservative: a declaration
// is recognized only when its keyword and name share a physical line.
// Multi-line declaration headers, generics spanning lines, and decorators are
// not specially handled — an accepted precision/recall tradeoff for inventory
// purposes. The Extractor interface isolates that choice so a parser-based
// implementation can substitute without touching the store or categorizer.
package declscan

import (
	"bufio"
	"bytes"
	"regexp"
)

// DeclarationKind identifies the syntactic kind of an extracted declaration.
type DeclarationKind string

const (
	KindInterface DeclarationKind = "interface"
	KindClass     DeclarationKind = "class"
	KindEnum      DeclarationKind = "enum"
	KindTypeAlias DeclarationKind = "type-alias"
)

// DeclarationEntry is one exported declaration found in a declaration file.
type DeclarationEntry struct {
	SourcePath       string          `json:"sourcePath"`
	DeclarationName  string          `json:"declarationName"`
	DeclarationKind  DeclarationKind `json:"declarationKind"`
	RawSignatureLine string          `json:"rawSignatureLine"`
}

// Extractor extracts declaration entries from raw declaration-file text.
// Implementations must be stateless and safe for concurrent use.
type Extractor interface {
	Extract(content []byte, sourcePath string) []DeclarationEntry
}

// declLine matches a line that begins (after optional leading whitespace and
// optional export/declare/abstract/const qualifiers) with one of the four
// declaration keywords followed by an identifier.
var declLine = regexp.MustCompile(
	`^\s*(?:export\s+)?(?:declare\s+)?(?:abstract\s+)?(?:const\s+)?(interface|class|enum|type)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)

var kindByKeyword = map[string]DeclarationKind{
	"interface": KindInterface,
	"class":     KindClass,
	"enum":      KindEnum,
	"type":      KindTypeAlias,
}

// LinePattern is the pattern-matching Extractor. The zero value is ready to
// use.
type LinePattern struct{}

// NewLinePattern returns the default line-pattern extractor.
func NewLinePattern() *LinePattern { return &LinePattern{} }

// Extract scans content line by line and returns every matching declaration.
// It operates on plain text independent of file well-formedness and never
// fails: unmatchable content simply yields zero entries.
func (*LinePattern) Extract(content []byte, sourcePath string) []DeclarationEntry {
	var entries []DeclarationEntry

	scanner := bufio.NewScanner(bytes.NewReader(content))
	// Declaration files can carry long single-line type aliases.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		match := declLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		entries = append(entries, DeclarationEntry{
			SourcePath:       sourcePath,
			DeclarationName:  match[2],
			DeclarationKind:  kindByKeyword[match[1]],
			RawSignatureLine: line,
		})
	}
	// Scanner errors (over-long lines) end extraction early for this file;
	// partial results are still valid file-scoped facts.

	return entries
}
