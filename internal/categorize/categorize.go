// SPDX-License-Identifier: MPL-2.0

// Package categorize reduces the aggregate collections into the grouped and
// ranked views the report is built from. All outputs are deterministically
// ordered: ranks sort descending by count with ties broken by name in
// ascending lexical order, so identical input always produces byte-identical
// report tables.
package categorize

import (
	"extscan-cli/pkg/manifest"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type (
	// ContributionUsage is one row of the ranked contribution-type view.
	ContributionUsage struct {
		ContributionType  string `json:"contributionType"`
		TotalItemCount    int    `json:"totalItemCount"`
		DistinctFileCount int    `json:"distinctFileCount"`
	}

	// ActivationUsage is one row of the ranked activation-category view.
	// Every defined category appears, including zero-count ones, so the
	// report shape is stable across corpora.
	ActivationUsage struct {
		EventCategory   manifest.EventCategory `json:"eventCategory"`
		OccurrenceCount int                    `json:"occurrenceCount"`
	}

	// FileRollup summarizes one source file's extracted facts.
	FileRollup struct {
		SourcePath           string   `json:"sourcePath"`
		ContributionTypes    []string `json:"contributionTypesPresent"`
		ActivationEventCount int      `json:"activationEventCount"`
	}

	// DriftUsage is one observed unrecognized contribution key with the
	// number of distinct files declaring it.
	DriftUsage struct {
		Key       string `json:"key"`
		FileCount int    `json:"fileCount"`
	}

	// Result bundles every categorized view.
	Result struct {
		ContributionRanking []ContributionUsage `json:"contributionRanking"`
		ActivationRanking   []ActivationUsage   `json:"activationRanking"`
		FileRollups         []FileRollup        `json:"fileRollups"`
		DriftRanking        []DriftUsage        `json:"driftRanking"`
	}
)

// Categorize computes every view over the completed aggregate collections.
// It is a pure single-pass reduction: re-running it over the same input
// yields identical output.
func Categorize(contributions []manifest.ContributionEntry, activations []manifest.ActivationEvent, drift []manifest.DriftRecord) *Result {
	return &Result{
		ContributionRanking: rankContributions(contributions),
		ActivationRanking:   rankActivations(activations),
		FileRollups:         rollupFiles(contributions, activations),
		DriftRanking:        rankDrift(drift),
	}
}

func rankContributions(entries []manifest.ContributionEntry) []ContributionUsage {
	totals := map[string]int{}
	files := map[string]map[string]struct{}{}

	for _, entry := range entries {
		totals[entry.ContributionType] += entry.ItemCount
		if files[entry.ContributionType] == nil {
			files[entry.ContributionType] = map[string]struct{}{}
		}
		files[entry.ContributionType][entry.SourcePath] = struct{}{}
	}

	usage := make([]ContributionUsage, 0, len(totals))
	for _, contributionType := range sortedKeys(totals) {
		usage = append(usage, ContributionUsage{
			ContributionType:  contributionType,
			TotalItemCount:    totals[contributionType],
			DistinctFileCount: len(files[contributionType]),
		})
	}

	slices.SortStableFunc(usage, func(a, b ContributionUsage) int {
		if a.TotalItemCount != b.TotalItemCount {
			return b.TotalItemCount - a.TotalItemCount
		}
		return compareStrings(a.ContributionType, b.ContributionType)
	})
	return usage
}

func rankActivations(events []manifest.ActivationEvent) []ActivationUsage {
	counts := map[manifest.EventCategory]int{}
	for _, category := range manifest.EventCategories() {
		counts[category] = 0
	}
	for _, event := range events {
		counts[event.EventCategory]++
	}

	usage := make([]ActivationUsage, 0, len(counts))
	for _, category := range manifest.EventCategories() {
		usage = append(usage, ActivationUsage{EventCategory: category, OccurrenceCount: counts[category]})
	}

	slices.SortStableFunc(usage, func(a, b ActivationUsage) int {
		if a.OccurrenceCount != b.OccurrenceCount {
			return b.OccurrenceCount - a.OccurrenceCount
		}
		return compareStrings(string(a.EventCategory), string(b.EventCategory))
	})
	return usage
}

func rollupFiles(contributions []manifest.ContributionEntry, activations []manifest.ActivationEvent) []FileRollup {
	types := map[string]map[string]struct{}{}
	eventCounts := map[string]int{}

	for _, entry := range contributions {
		if types[entry.SourcePath] == nil {
			types[entry.SourcePath] = map[string]struct{}{}
		}
		types[entry.SourcePath][entry.ContributionType] = struct{}{}
	}
	for _, event := range activations {
		eventCounts[event.SourcePath]++
	}

	paths := map[string]struct{}{}
	for path := range types {
		paths[path] = struct{}{}
	}
	for path := range eventCounts {
		paths[path] = struct{}{}
	}

	rollups := make([]FileRollup, 0, len(paths))
	for _, path := range sortedKeys(paths) {
		presentTypes := maps.Keys(types[path])
		slices.Sort(presentTypes)
		rollups = append(rollups, FileRollup{
			SourcePath:           path,
			ContributionTypes:    presentTypes,
			ActivationEventCount: eventCounts[path],
		})
	}
	return rollups
}

func rankDrift(drift []manifest.DriftRecord) []DriftUsage {
	files := map[string]map[string]struct{}{}
	for _, record := range drift {
		if files[record.Key] == nil {
			files[record.Key] = map[string]struct{}{}
		}
		files[record.Key][record.SourcePath] = struct{}{}
	}

	usage := make([]DriftUsage, 0, len(files))
	for _, key := range sortedKeys(files) {
		usage = append(usage, DriftUsage{Key: key, FileCount: len(files[key])})
	}

	slices.SortStableFunc(usage, func(a, b DriftUsage) int {
		if a.FileCount != b.FileCount {
			return b.FileCount - a.FileCount
		}
		return compareStrings(a.Key, b.Key)
	})
	return usage
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
